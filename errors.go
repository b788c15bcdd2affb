package bazaar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/store"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("bazaar: invalid input")

	// Actor errors
	ErrActorWrite      = errors.New("bazaar: actor write failed")
	ErrReentrantCall   = actor.ErrReentrantCall
	ErrStateNotFound   = store.ErrNotFound
	ErrStoreClosed     = store.ErrClosed
	ErrUnknownDuration = duration.ErrUnknown

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("bazaar: subscription not found")

	// Add-on errors
	ErrQuantityNotFound = addon.ErrQuantityNotFound
	ErrCurrencyNotFound = addon.ErrCurrencyNotFound
	ErrAddonNotFound    = addon.ErrAddonNotFound

	// Quota errors
	ErrQuotaExceeded = quota.ErrQuotaExceeded
	ErrGrantNotFound = quota.ErrGrantNotFound
	ErrRefillExceeds = quota.ErrRefillExceeds
	ErrInvalidAmount = quota.ErrInvalidAmount
	ErrUnknownBudget = quota.ErrUnknownBudget
)

// errSkipWrite aborts an actor Update without writing. Facades translate
// it into a false or nil result.
var errSkipWrite = errors.New("bazaar: nothing to write")

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bazaar: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "bazaar: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("bazaar: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrorOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// fromValidator converts validator/v10 field errors into a MultiError of
// ValidationErrors.
func fromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var me MultiError
	for _, fe := range fieldErrs {
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		me.Add(ValidationError{Field: fe.Field(), Message: msg})
	}
	return me.ErrorOrNil()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStateNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrQuantityNotFound) ||
		errors.Is(err, ErrCurrencyNotFound) ||
		errors.Is(err, ErrAddonNotFound) ||
		errors.Is(err, ErrGrantNotFound)
}

// IsQuotaError returns true if the error is related to quota balances.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrRefillExceeds) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownBudget)
}

// IsValidation returns true if the error was raised before any actor call
// because the input was malformed.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrInvalidInput) || errors.As(err, &ve) || errors.Is(err, ErrUnknownDuration)
}
