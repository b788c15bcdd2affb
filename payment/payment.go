// Package payment defines payment records: subscription payment
// transactions and add-on purchases. Each record is owned by its own actor,
// addressed by the record ID.
package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Card holds the displayable part of the paying card. Full card numbers
// are never stored.
type Card struct {
	CardHolder string `json:"card_holder" validate:"required,max=100"`
	CardLast4  string `json:"card_last4" validate:"required,len=4,numeric"`
	CardExpiry string `json:"card_expiry" validate:"required,len=5"` // MM/YY
}

func (c Card) validate() error {
	if strings.TrimSpace(c.CardHolder) == "" {
		return errors.New("card_holder is required")
	}
	if len(c.CardLast4) != 4 {
		return errors.New("card_last4 must hold exactly four digits")
	}
	return nil
}

// Transaction is a payment for a subscription.
type Transaction struct {
	ID             id.PaymentID      `json:"id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	UserID         uuid.UUID         `json:"user_id"`
	VerticalID     int               `json:"vertical_id"`
	CategoryID     int               `json:"category_id"`
	Card
	Amount          types.Money `json:"amount"`
	TransactionDate time.Time   `json:"transaction_date"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	LastUpdated     time.Time   `json:"last_updated"`
	IsExpired       bool        `json:"is_expired"`
}

// Expire flags the transaction when its end date has passed at now. It
// reports whether the flag changed.
func (t *Transaction) Expire(now time.Time) bool {
	if t.IsExpired || now.Before(t.EndDate) {
		return false
	}
	t.IsExpired = true
	t.LastUpdated = now
	return true
}

func (t *Transaction) Validate() error {
	var errs []error
	if t.ID.IsNil() {
		errs = append(errs, errors.New("id is required"))
	}
	if t.SubscriptionID.IsNil() {
		errs = append(errs, errors.New("subscription_id is required"))
	}
	if t.UserID == uuid.Nil {
		errs = append(errs, errors.New("user_id is required"))
	}
	if err := t.Card.validate(); err != nil {
		errs = append(errs, err)
	}
	if !t.EndDate.After(t.StartDate) {
		errs = append(errs, errors.New("end_date must follow start_date"))
	}
	return errors.Join(errs...)
}

// AddonPayment is a purchase of an add-on offer.
type AddonPayment struct {
	ID id.AddonPaymentID `json:"id"`
	// AddonID is the purchased unit-currency offer.
	AddonID    id.UnitCurrencyID `json:"addon_id"`
	UserID     uuid.UUID         `json:"user_id"`
	VerticalID int               `json:"vertical_id"`
	Card
	Amount      types.Money `json:"amount"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	LastUpdated time.Time   `json:"last_updated"`
	IsExpired   bool        `json:"is_expired"`
}

// Expire flags the purchase when its end date has passed at now.
func (p *AddonPayment) Expire(now time.Time) bool {
	if p.IsExpired || now.Before(p.EndDate) {
		return false
	}
	p.IsExpired = true
	p.LastUpdated = now
	return true
}

func (p *AddonPayment) Validate() error {
	var errs []error
	if p.ID.IsNil() {
		errs = append(errs, errors.New("id is required"))
	}
	if p.AddonID.IsNil() {
		errs = append(errs, errors.New("addon_id is required"))
	}
	if p.UserID == uuid.Nil {
		errs = append(errs, errors.New("user_id is required"))
	}
	if err := p.Card.validate(); err != nil {
		errs = append(errs, err)
	}
	if !p.EndDate.After(p.StartDate) {
		errs = append(errs, errors.New("end_date must follow start_date"))
	}
	return errors.Join(errs...)
}

// CreateRequest pays for a subscription.
type CreateRequest struct {
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	UserID         uuid.UUID         `json:"user_id"`
	VerticalID     int               `json:"vertical_id" validate:"gte=0"`
	CategoryID     int               `json:"category_id" validate:"gte=0"`
	Card
	// StartDate defaults to the transaction time.
	StartDate *time.Time `json:"start_date,omitempty"`
}

// AddonPaymentRequest buys an add-on offer. The buyer is passed separately.
type AddonPaymentRequest struct {
	AddonID    id.UnitCurrencyID `json:"addon_id"`
	VerticalID int               `json:"vertical_id" validate:"gte=0"`
	Card
	StartDate *time.Time `json:"start_date,omitempty"`
}
