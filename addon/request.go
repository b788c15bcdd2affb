package addon

import (
	"time"

	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/types"
)

// CreateQuantityRequest defines a purchasable amount of one budget.
type CreateQuantityRequest struct {
	QuantityName string       `json:"quantity_name" validate:"required,max=100"`
	Value        int          `json:"value" validate:"gte=1"`
	Budget       quota.Budget `json:"budget" validate:"required,oneof=ads promote refresh"`
}

// CreateCurrencyRequest names a currency offers can be priced in.
type CreateCurrencyRequest struct {
	CurrencyName string `json:"currency_name" validate:"required,max=50"`
}

// CreateUnitCurrencyRequest prices a quantity in a currency. Price is in
// minor units of PriceCurrency.
type CreateUnitCurrencyRequest struct {
	QuantityID    id.QuantityID `json:"quantity_id"`
	CurrencyID    id.CurrencyID `json:"currency_id"`
	Duration      duration.Type `json:"duration" validate:"required"`
	Price         int64         `json:"price" validate:"gte=0"`
	PriceCurrency string        `json:"price_currency" validate:"omitempty,len=3"`
}

// Money returns the request price.
func (r *CreateUnitCurrencyRequest) Money() types.Money {
	return types.New(r.Price, r.PriceCurrency)
}

// QuantityResponse is the public view of a Quantity.
type QuantityResponse struct {
	ID           id.QuantityID `json:"id"`
	QuantityName string        `json:"quantity_name"`
	Value        int           `json:"value"`
	Budget       quota.Budget  `json:"budget"`
	CreatedAt    time.Time     `json:"created_at"`
}

// CurrencyResponse is the public view of a Currency.
type CurrencyResponse struct {
	ID           id.CurrencyID `json:"id"`
	CurrencyName string        `json:"currency_name"`
	CreatedAt    time.Time     `json:"created_at"`
}

// UnitCurrencyResponse is an offer with its quantity, currency and
// duration names resolved.
type UnitCurrencyResponse struct {
	ID           id.UnitCurrencyID `json:"id"`
	QuantityID   id.QuantityID     `json:"quantity_id"`
	QuantityName string            `json:"quantity_name"`
	CurrencyID   id.CurrencyID     `json:"currency_id"`
	CurrencyName string            `json:"currency_name"`
	Duration     duration.Type     `json:"duration"`
	DurationName string            `json:"duration_name"`
	Price        types.Money       `json:"price"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ToResponse converts q to its public view.
func (q Quantity) ToResponse() QuantityResponse {
	return QuantityResponse{
		ID:           q.ID,
		QuantityName: q.QuantityName,
		Value:        q.Value,
		Budget:       q.Budget,
		CreatedAt:    q.CreatedAt,
	}
}

// ToResponse converts c to its public view.
func (c Currency) ToResponse() CurrencyResponse {
	return CurrencyResponse{ID: c.ID, CurrencyName: c.CurrencyName, CreatedAt: c.CreatedAt}
}
