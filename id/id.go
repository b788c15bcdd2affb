// Package id defines TypeID-based identity types for every Bazaar entity.
//
// An entity's ID doubles as the address of the virtual actor that owns its
// state. IDs are UUIDv7-backed TypeIDs ("prefix_suffix"), so they are
// globally unique, K-sortable and carry their entity kind in the prefix.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Bazaar entity types.
const (
	PrefixSubscription Prefix = "sub"  // Subscription product
	PrefixPayment      Prefix = "pay"  // Subscription payment transaction
	PrefixAddonPayment Prefix = "apay" // Add-on purchase
	PrefixQuantity     Prefix = "qty"  // Add-on unit definition
	PrefixCurrency     Prefix = "cur"  // Add-on currency
	PrefixUnitCurrency Prefix = "uc"   // Quantity x currency x duration offer
)

// ID is the primary identifier type for all Bazaar entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "sub_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that its prefix is the expected one.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// SubscriptionID identifies a subscription product (prefix: "sub").
type SubscriptionID = ID

// PaymentID identifies a subscription payment transaction (prefix: "pay").
type PaymentID = ID

// AddonPaymentID identifies an add-on purchase (prefix: "apay").
type AddonPaymentID = ID

// QuantityID identifies an add-on unit definition (prefix: "qty").
type QuantityID = ID

// CurrencyID identifies an add-on currency (prefix: "cur").
type CurrencyID = ID

// UnitCurrencyID identifies a priced add-on offer (prefix: "uc").
type UnitCurrencyID = ID

// TransactionID is the key of a quota grant: either a PaymentID or an
// AddonPaymentID.
type TransactionID = ID

func NewSubscriptionID() ID { return New(PrefixSubscription) }
func NewPaymentID() ID      { return New(PrefixPayment) }
func NewAddonPaymentID() ID { return New(PrefixAddonPayment) }
func NewQuantityID() ID     { return New(PrefixQuantity) }
func NewCurrencyID() ID     { return New(PrefixCurrency) }
func NewUnitCurrencyID() ID { return New(PrefixUnitCurrency) }

func ParseSubscriptionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSubscription) }
func ParsePaymentID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixPayment) }
func ParseAddonPaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAddonPayment) }
func ParseQuantityID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixQuantity) }
func ParseCurrencyID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixCurrency) }
func ParseUnitCurrencyID(s string) (ID, error) { return ParseWithPrefix(s, PrefixUnitCurrency) }

// String returns the full TypeID string, or "" for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer. The Nil ID is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
