// Package subscription defines the subscription product record owned by a
// SubscriptionActor, together with its request and response shapes.
package subscription

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// Status is the lifecycle status of a subscription product.
type Status int

const (
	StatusActive   Status = 1
	StatusInactive Status = 2
	// StatusDeleted marks a soft-deleted subscription. Its state is kept
	// but it never appears in listings.
	StatusDeleted Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// DeletedPrefix is prepended to the name of a soft-deleted subscription.
const DeletedPrefix = "Deleted-"

// Subscription is a sellable subscription product for one vertical and
// category. Budgets seed the quota a buyer receives on payment.
type Subscription struct {
	ID               id.SubscriptionID `json:"id"`
	ProductCode      string            `json:"product_code"`
	SubscriptionName string            `json:"subscription_name"`
	Duration         duration.Type     `json:"duration"`
	Price            types.Money       `json:"price"`
	Currency         string            `json:"currency"`
	CategoryID       int               `json:"category_id"`
	VerticalTypeID   int               `json:"vertical_type_id"`
	StatusID         Status            `json:"status_id"`
	AdsBudget        int               `json:"ads_budget"`
	PromoteBudget    int               `json:"promote_budget"`
	RefreshBudget    int               `json:"refresh_budget"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	CreatedAt        time.Time         `json:"created_at"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// IsDeleted reports whether the subscription is soft-deleted.
func (s *Subscription) IsDeleted() bool { return s.StatusID == StatusDeleted }

// MarkDeleted soft-deletes the subscription. Calling it twice does not
// prefix the name twice.
func (s *Subscription) MarkDeleted(now time.Time) {
	s.StatusID = StatusDeleted
	if !strings.HasPrefix(s.SubscriptionName, DeletedPrefix) {
		s.SubscriptionName = DeletedPrefix + s.SubscriptionName
	}
	s.LastUpdated = now
}

// Matches reports whether the subscription is a live product for the given
// vertical and category.
func (s *Subscription) Matches(verticalTypeID, categoryID int) bool {
	return !s.IsDeleted() && s.VerticalTypeID == verticalTypeID && s.CategoryID == categoryID
}

// Merge folds a full-replace update into the persisted record: the
// creation stamp is kept, and an update without a start date keeps the
// persisted one with the end date re-derived from it.
func Merge(prev, next *Subscription) *Subscription {
	if prev == nil {
		return next
	}
	next.CreatedAt = prev.CreatedAt
	if next.StartDate.IsZero() {
		next.StartDate = prev.StartDate
		if end, err := duration.EndDate(next.StartDate, next.Duration); err == nil {
			next.EndDate = end
		}
	}
	return next
}

// Validate checks the persisted form of a subscription.
func (s *Subscription) Validate() error {
	var errs []error
	if s.ID.IsNil() {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(s.SubscriptionName) == "" {
		errs = append(errs, errors.New("subscription_name is required"))
	}
	if !s.Duration.Valid() {
		errs = append(errs, fmt.Errorf("duration %d is not defined", int(s.Duration)))
	}
	if s.Price.IsNegative() {
		errs = append(errs, errors.New("price must not be negative"))
	}
	if s.AdsBudget < 0 || s.PromoteBudget < 0 || s.RefreshBudget < 0 {
		errs = append(errs, errors.New("budgets must not be negative"))
	}
	if s.Duration.Valid() {
		if want, _ := duration.EndDate(s.StartDate, s.Duration); !want.Equal(s.EndDate) {
			errs = append(errs, fmt.Errorf("end_date %s does not follow from start_date and duration", s.EndDate.Format(time.RFC3339)))
		}
	}
	return errors.Join(errs...)
}

// Response is the listing view of a subscription.
type Response struct {
	ID               id.SubscriptionID `json:"id"`
	ProductCode      string            `json:"product_code"`
	SubscriptionName string            `json:"subscription_name"`
	Duration         duration.Type     `json:"duration"`
	DurationName     string            `json:"duration_name"`
	Price            types.Money       `json:"price"`
	Currency         string            `json:"currency"`
	CategoryID       int               `json:"category_id"`
	VerticalTypeID   int               `json:"vertical_type_id"`
	StatusID         Status            `json:"status_id"`
	AdsBudget        int               `json:"ads_budget"`
	PromoteBudget    int               `json:"promote_budget"`
	RefreshBudget    int               `json:"refresh_budget"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	CreatedAt        time.Time         `json:"created_at"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// ToResponse maps the record to its listing view.
func (s *Subscription) ToResponse() *Response {
	return &Response{
		ID:               s.ID,
		ProductCode:      s.ProductCode,
		SubscriptionName: s.SubscriptionName,
		Duration:         s.Duration,
		DurationName:     s.Duration.String(),
		Price:            s.Price,
		Currency:         s.Currency,
		CategoryID:       s.CategoryID,
		VerticalTypeID:   s.VerticalTypeID,
		StatusID:         s.StatusID,
		AdsBudget:        s.AdsBudget,
		PromoteBudget:    s.PromoteBudget,
		RefreshBudget:    s.RefreshBudget,
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		CreatedAt:        s.CreatedAt,
		LastUpdated:      s.LastUpdated,
	}
}
