package subscription

import (
	"fmt"
	"time"

	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// CreateRequest carries the fields of a new subscription product.
// Price is in minor units of Currency.
type CreateRequest struct {
	ProductCode      string        `json:"product_code" validate:"required,max=64"`
	SubscriptionName string        `json:"subscription_name" validate:"required,max=200"`
	Duration         duration.Type `json:"duration" validate:"required"`
	Price            int64         `json:"price" validate:"gte=0"`
	Currency         string        `json:"currency" validate:"omitempty,len=3"`
	CategoryID       int           `json:"category_id" validate:"gte=0"`
	VerticalTypeID   int           `json:"vertical_type_id" validate:"gte=0"`
	StatusID         Status        `json:"status_id" validate:"omitempty,oneof=1 2"`
	AdsBudget        int           `json:"ads_budget" validate:"gte=0"`
	PromoteBudget    int           `json:"promote_budget" validate:"gte=0"`
	RefreshBudget    int           `json:"refresh_budget" validate:"gte=0"`
	// StartDate defaults to the creation time.
	StartDate *time.Time `json:"start_date,omitempty"`
}

// UpdateRequest replaces every field of an existing subscription.
// StatusDeleted is rejected; deletion goes through DeleteSubscription.
type UpdateRequest struct {
	ProductCode      string        `json:"product_code" validate:"required,max=64"`
	SubscriptionName string        `json:"subscription_name" validate:"required,max=200"`
	Duration         duration.Type `json:"duration" validate:"required"`
	Price            int64         `json:"price" validate:"gte=0"`
	Currency         string        `json:"currency" validate:"omitempty,len=3"`
	CategoryID       int           `json:"category_id" validate:"gte=0"`
	VerticalTypeID   int           `json:"vertical_type_id" validate:"gte=0"`
	StatusID         Status        `json:"status_id" validate:"omitempty,oneof=1 2"`
	AdsBudget        int           `json:"ads_budget" validate:"gte=0"`
	PromoteBudget    int           `json:"promote_budget" validate:"gte=0"`
	RefreshBudget    int           `json:"refresh_budget" validate:"gte=0"`
	StartDate        *time.Time    `json:"start_date,omitempty"`
}

// Build returns the subscription described by the request, stamped with
// now. The start date defaults to now and the end date is derived from it;
// an undefined duration yields duration.ErrUnknown.
func (r *CreateRequest) Build(subID id.SubscriptionID, now time.Time) (*Subscription, error) {
	start := now
	if r.StartDate != nil {
		start = *r.StartDate
	}
	sub, err := build(subID, now, fields{
		productCode: r.ProductCode, name: r.SubscriptionName, duration: r.Duration,
		price: r.Price, currency: r.Currency, categoryID: r.CategoryID,
		verticalTypeID: r.VerticalTypeID, status: r.StatusID,
		ads: r.AdsBudget, promote: r.PromoteBudget, refresh: r.RefreshBudget,
		startDate: &start,
	})
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = now
	return sub, nil
}

// Build returns the full replacement for subscription subID. Without a
// start date the result carries zero dates, to be filled by Merge from the
// persisted record.
func (r *UpdateRequest) Build(subID id.SubscriptionID, now time.Time) (*Subscription, error) {
	return build(subID, now, fields{
		productCode: r.ProductCode, name: r.SubscriptionName, duration: r.Duration,
		price: r.Price, currency: r.Currency, categoryID: r.CategoryID,
		verticalTypeID: r.VerticalTypeID, status: r.StatusID,
		ads: r.AdsBudget, promote: r.PromoteBudget, refresh: r.RefreshBudget,
		startDate: r.StartDate,
	})
}

type fields struct {
	productCode, name, currency string
	duration                    duration.Type
	price                       int64
	categoryID, verticalTypeID  int
	status                      Status
	ads, promote, refresh       int
	startDate                   *time.Time
}

func build(subID id.SubscriptionID, now time.Time, f fields) (*Subscription, error) {
	if !f.duration.Valid() {
		return nil, fmt.Errorf("%w: %d", duration.ErrUnknown, int(f.duration))
	}

	var start, end time.Time
	if f.startDate != nil {
		start = f.startDate.UTC()
		end, _ = duration.EndDate(start, f.duration)
	}

	status := f.status
	if status == 0 {
		status = StatusActive
	}
	price := types.New(f.price, f.currency)

	return &Subscription{
		ID:               subID,
		ProductCode:      f.productCode,
		SubscriptionName: f.name,
		Duration:         f.duration,
		Price:            price,
		Currency:         price.Currency,
		CategoryID:       f.categoryID,
		VerticalTypeID:   f.verticalTypeID,
		StatusID:         status,
		AdsBudget:        f.ads,
		PromoteBudget:    f.promote,
		RefreshBudget:    f.refresh,
		StartDate:        start,
		EndDate:          end,
		LastUpdated:      now,
	}, nil
}
