// Package addon defines the add-on catalog aggregate. The catalog is one
// document owned by the AddonActor at DefaultID; every change rewrites the
// whole document inside a single actor turn.
package addon

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/types"
)

// DefaultID is the actor ID of the add-on catalog.
const DefaultID = "default"

var (
	ErrQuantityNotFound = errors.New("bazaar: add-on quantity not found")
	ErrCurrencyNotFound = errors.New("bazaar: add-on currency not found")
	ErrAddonNotFound    = errors.New("bazaar: add-on not found")
)

// Quantity is a unit definition, e.g. "10 featured ads".
type Quantity struct {
	ID           id.QuantityID `json:"id"`
	QuantityName string        `json:"quantity_name"`
	// Value is the number of units a purchase grants.
	Value int `json:"value"`
	// Budget is the quota category the units are credited to.
	Budget    quota.Budget `json:"budget"`
	CreatedAt time.Time    `json:"created_at"`
}

// Currency is a currency an add-on can be sold in.
type Currency struct {
	ID           id.CurrencyID `json:"id"`
	CurrencyName string        `json:"currency_name"`
	CreatedAt    time.Time     `json:"created_at"`
}

// UnitCurrency is a purchasable offer: a quantity, priced in a currency,
// valid for a duration.
type UnitCurrency struct {
	ID         id.UnitCurrencyID `json:"id"`
	QuantityID id.QuantityID     `json:"quantity_id"`
	CurrencyID id.CurrencyID     `json:"currency_id"`
	Duration   duration.Type     `json:"duration"`
	Price      types.Money       `json:"price"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Data is the add-on catalog.
type Data struct {
	Quantities     []Quantity     `json:"quantities"`
	Currencies     []Currency     `json:"currencies"`
	UnitCurrencies []UnitCurrency `json:"unit_currencies"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// NewData returns an empty catalog.
func NewData(now time.Time) *Data {
	return &Data{
		Quantities:     []Quantity{},
		Currencies:     []Currency{},
		UnitCurrencies: []UnitCurrency{},
		LastUpdated:    now,
	}
}

// Quantity looks up a quantity by ID.
func (d *Data) Quantity(qid id.QuantityID) (Quantity, bool) {
	for _, q := range d.Quantities {
		if q.ID.String() == qid.String() {
			return q, true
		}
	}
	return Quantity{}, false
}

// Currency looks up a currency by ID.
func (d *Data) Currency(cid id.CurrencyID) (Currency, bool) {
	for _, c := range d.Currencies {
		if c.ID.String() == cid.String() {
			return c, true
		}
	}
	return Currency{}, false
}

// UnitCurrency looks up an offer by ID.
func (d *Data) UnitCurrency(uid id.UnitCurrencyID) (UnitCurrency, bool) {
	for _, u := range d.UnitCurrencies {
		if u.ID.String() == uid.String() {
			return u, true
		}
	}
	return UnitCurrency{}, false
}

// AddQuantity appends q.
func (d *Data) AddQuantity(q Quantity) {
	d.Quantities = append(d.Quantities, q)
	d.LastUpdated = q.CreatedAt
}

// AddCurrency appends c.
func (d *Data) AddCurrency(c Currency) {
	d.Currencies = append(d.Currencies, c)
	d.LastUpdated = c.CreatedAt
}

// AddUnitCurrency appends u after checking that its quantity and currency
// exist. On error the catalog is unchanged.
func (d *Data) AddUnitCurrency(u UnitCurrency) error {
	if _, ok := d.Quantity(u.QuantityID); !ok {
		return fmt.Errorf("%w: %s", ErrQuantityNotFound, u.QuantityID)
	}
	if _, ok := d.Currency(u.CurrencyID); !ok {
		return fmt.Errorf("%w: %s", ErrCurrencyNotFound, u.CurrencyID)
	}
	d.UnitCurrencies = append(d.UnitCurrencies, u)
	d.LastUpdated = u.CreatedAt
	return nil
}

// Offer is a unit-currency resolved against its quantity and currency.
type Offer struct {
	UnitCurrency
	Quantity Quantity
	Currency Currency
}

// Offer resolves the unit-currency uid.
func (d *Data) Offer(uid id.UnitCurrencyID) (Offer, error) {
	u, ok := d.UnitCurrency(uid)
	if !ok {
		return Offer{}, fmt.Errorf("%w: %s", ErrAddonNotFound, uid)
	}
	q, ok := d.Quantity(u.QuantityID)
	if !ok {
		return Offer{}, fmt.Errorf("%w: %s", ErrQuantityNotFound, u.QuantityID)
	}
	c, ok := d.Currency(u.CurrencyID)
	if !ok {
		return Offer{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, u.CurrencyID)
	}
	return Offer{UnitCurrency: u, Quantity: q, Currency: c}, nil
}

// ByQuantityID returns the offers for one quantity with names resolved.
// Unknown quantities yield an empty slice.
func (d *Data) ByQuantityID(qid id.QuantityID) []UnitCurrencyResponse {
	out := []UnitCurrencyResponse{}
	for _, u := range d.UnitCurrencies {
		if u.QuantityID.String() != qid.String() {
			continue
		}
		r := UnitCurrencyResponse{
			ID:           u.ID,
			QuantityID:   u.QuantityID,
			CurrencyID:   u.CurrencyID,
			Duration:     u.Duration,
			DurationName: u.Duration.String(),
			Price:        u.Price,
			CreatedAt:    u.CreatedAt,
		}
		if q, ok := d.Quantity(u.QuantityID); ok {
			r.QuantityName = q.QuantityName
		}
		if c, ok := d.Currency(u.CurrencyID); ok {
			r.CurrencyName = c.CurrencyName
		}
		out = append(out, r)
	}
	return out
}

// Validate checks that IDs are unique and that every unit-currency points
// at an existing quantity and currency.
func (d *Data) Validate() error {
	seen := make(map[string]struct{})
	unique := func(i id.ID) error {
		if i.IsNil() {
			return errors.New("catalog entry without id")
		}
		if _, ok := seen[i.String()]; ok {
			return fmt.Errorf("duplicate catalog id %s", i)
		}
		seen[i.String()] = struct{}{}
		return nil
	}

	var errs []error
	for _, q := range d.Quantities {
		errs = append(errs, unique(q.ID))
	}
	for _, c := range d.Currencies {
		errs = append(errs, unique(c.ID))
	}
	for _, u := range d.UnitCurrencies {
		errs = append(errs, unique(u.ID))
		if _, ok := d.Quantity(u.QuantityID); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrQuantityNotFound, u.QuantityID))
		}
		if _, ok := d.Currency(u.CurrencyID); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrCurrencyNotFound, u.CurrencyID))
		}
	}
	return errors.Join(errs...)
}
