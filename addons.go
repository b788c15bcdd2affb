package bazaar

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
)

// AddonService manages the add-on catalog and add-on purchases. The whole
// catalog lives in one AddonActor at addon.DefaultID; every catalog change
// is a read-modify-write inside one turn of that actor.
type AddonService struct {
	e *Engine
}

func (a *AddonService) catalog() *actor.Proxy[addon.Data] {
	return actor.Create(a.e.host, addonKind, addon.DefaultID)
}

func (a *AddonService) paymentActor(apayID string) *actor.Proxy[payment.AddonPayment] {
	return actor.Create(a.e.host, addonPaymentKind, apayID)
}

// ──────────────────────────────────────────────────
// Catalog
// ──────────────────────────────────────────────────

// GetOrCreateAddonData returns the catalog, persisting an empty one on
// first access.
func (a *AddonService) GetOrCreateAddonData(ctx context.Context) (*addon.Data, error) {
	data, err := a.catalog().GetData(ctx)
	if err != nil {
		return nil, err
	}
	if data != nil {
		return data, nil
	}

	data, err = a.catalog().Update(ctx, func(_ context.Context, cur *addon.Data) (*addon.Data, error) {
		if cur != nil {
			// Created by a concurrent caller between the two turns.
			return nil, errSkipWrite
		}
		return addon.NewData(a.e.now()), nil
	})
	if errors.Is(err, errSkipWrite) {
		return a.catalog().GetData(ctx)
	}
	if err != nil {
		a.e.logger.Error("add-on catalog creation failed", "error", err)
		return nil, fmt.Errorf("%w: add-on catalog creation failed: %w", ErrActorWrite, err)
	}
	return data, nil
}

// GetAllQuantities lists the catalog's quantities.
func (a *AddonService) GetAllQuantities(ctx context.Context) ([]addon.QuantityResponse, error) {
	data, err := a.GetOrCreateAddonData(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]addon.QuantityResponse, 0, len(data.Quantities))
	for _, q := range data.Quantities {
		out = append(out, q.ToResponse())
	}
	return out, nil
}

// GetAllCurrencies lists the catalog's currencies.
func (a *AddonService) GetAllCurrencies(ctx context.Context) ([]addon.CurrencyResponse, error) {
	data, err := a.GetOrCreateAddonData(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]addon.CurrencyResponse, 0, len(data.Currencies))
	for _, c := range data.Currencies {
		out = append(out, c.ToResponse())
	}
	return out, nil
}

// mutateCatalog runs fn against the catalog (created empty if absent) in
// one turn. On error nothing is written.
func (a *AddonService) mutateCatalog(ctx context.Context, op string, fn func(*addon.Data) error) error {
	data, err := a.catalog().Update(ctx, func(_ context.Context, cur *addon.Data) (*addon.Data, error) {
		if cur == nil {
			cur = addon.NewData(a.e.now())
		}
		if err := fn(cur); err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		if IsNotFound(err) {
			a.e.logger.Warn(op+" rejected", "error", err)
			return err
		}
		a.e.logger.Error(op+" failed", "error", err)
		return fmt.Errorf("%w: %s failed: %w", ErrActorWrite, op, err)
	}

	a.e.plugins.EmitCatalogChanged(ctx, data)
	return nil
}

// CreateQuantity adds a unit definition to the catalog.
func (a *AddonService) CreateQuantity(ctx context.Context, req *addon.CreateQuantityRequest) (*addon.Quantity, error) {
	if req == nil {
		return nil, ValidationError{Field: "request", Message: "is required"}
	}
	if err := a.e.check(req); err != nil {
		return nil, err
	}

	q := addon.Quantity{
		ID:           id.NewQuantityID(),
		QuantityName: req.QuantityName,
		Value:        req.Value,
		Budget:       req.Budget,
		CreatedAt:    a.e.now(),
	}
	if err := a.mutateCatalog(ctx, "quantity creation", func(d *addon.Data) error {
		d.AddQuantity(q)
		return nil
	}); err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateCurrency adds a currency to the catalog.
func (a *AddonService) CreateCurrency(ctx context.Context, req *addon.CreateCurrencyRequest) (*addon.Currency, error) {
	if req == nil {
		return nil, ValidationError{Field: "request", Message: "is required"}
	}
	if err := a.e.check(req); err != nil {
		return nil, err
	}

	c := addon.Currency{
		ID:           id.NewCurrencyID(),
		CurrencyName: req.CurrencyName,
		CreatedAt:    a.e.now(),
	}
	if err := a.mutateCatalog(ctx, "currency creation", func(d *addon.Data) error {
		d.AddCurrency(c)
		return nil
	}); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateUnitCurrency adds a priced offer. Its quantity and currency must
// already be in the catalog; otherwise ErrQuantityNotFound or
// ErrCurrencyNotFound is returned and the catalog is left unchanged.
func (a *AddonService) CreateUnitCurrency(ctx context.Context, req *addon.CreateUnitCurrencyRequest) (*addon.UnitCurrency, error) {
	if req == nil {
		return nil, ValidationError{Field: "request", Message: "is required"}
	}
	if req.QuantityID.IsNil() {
		return nil, ValidationError{Field: "quantity_id", Message: "is required"}
	}
	if req.CurrencyID.IsNil() {
		return nil, ValidationError{Field: "currency_id", Message: "is required"}
	}
	if err := a.e.check(req); err != nil {
		return nil, err
	}
	if !req.Duration.Valid() {
		return nil, fmt.Errorf("%w: %d", duration.ErrUnknown, int(req.Duration))
	}

	u := addon.UnitCurrency{
		ID:         id.NewUnitCurrencyID(),
		QuantityID: req.QuantityID,
		CurrencyID: req.CurrencyID,
		Duration:   req.Duration,
		Price:      req.Money(),
		CreatedAt:  a.e.now(),
	}
	if err := a.mutateCatalog(ctx, "unit-currency creation", func(d *addon.Data) error {
		return d.AddUnitCurrency(u)
	}); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByQuantityID lists the offers for one quantity with names resolved.
func (a *AddonService) GetByQuantityID(ctx context.Context, quantityID id.QuantityID) ([]addon.UnitCurrencyResponse, error) {
	data, err := a.GetOrCreateAddonData(ctx)
	if err != nil {
		return nil, err
	}
	return data.ByQuantityID(quantityID), nil
}

// ──────────────────────────────────────────────────
// Purchases
// ──────────────────────────────────────────────────

// CreateAddonPayment records the purchase of an offer by userID and credits
// the offer's units to the buyer's quota ledger under the purchase ID.
//
// The purchase is persisted before the quota grant. If the grant fails the
// error is returned together with the ID of the persisted purchase.
func (a *AddonService) CreateAddonPayment(ctx context.Context, req *payment.AddonPaymentRequest, userID uuid.UUID) (id.AddonPaymentID, error) {
	if req == nil {
		return id.Nil, ValidationError{Field: "request", Message: "is required"}
	}
	if req.AddonID.IsNil() {
		return id.Nil, ValidationError{Field: "addon_id", Message: "is required"}
	}
	if err := requireUser(userID); err != nil {
		return id.Nil, err
	}
	if err := a.e.check(req); err != nil {
		return id.Nil, err
	}

	data, err := a.catalog().GetData(ctx)
	if err != nil {
		return id.Nil, err
	}
	if data == nil {
		data = addon.NewData(a.e.now())
	}
	offer, err := data.Offer(req.AddonID)
	if err != nil {
		a.e.logger.Warn("add-on purchase rejected",
			"addon_id", req.AddonID.String(),
			"error", err,
		)
		return id.Nil, err
	}

	now := a.e.now()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	end, err := duration.EndDate(start, offer.Duration)
	if err != nil {
		return id.Nil, err
	}

	apayID := id.NewAddonPaymentID()
	ap := &payment.AddonPayment{
		ID:          apayID,
		AddonID:     offer.ID,
		UserID:      userID,
		VerticalID:  req.VerticalID,
		Card:        req.Card,
		Amount:      offer.Price,
		StartDate:   start,
		EndDate:     end,
		LastUpdated: now,
	}

	if err := a.paymentActor(apayID.String()).FastSetData(ctx, ap); err != nil {
		a.e.logger.Error("add-on payment creation failed",
			"addon_payment_id", apayID.String(),
			"error", err,
		)
		return id.Nil, fmt.Errorf("%w: add-on payment creation failed: %w", ErrActorWrite, err)
	}

	a.e.addonPaymentIDs.TryAdd(apayID.String())
	a.e.plugins.EmitAddonPaymentCreated(ctx, ap)

	grant := quota.NewBudgetGrant(apayID, quota.SourceAddon,
		offer.Quantity.Budget, offer.Quantity.Value, start, end)
	grant.VerticalID = req.VerticalID
	if err := a.e.quotas.UpsertQuota(ctx, userID, grant); err != nil {
		return apayID, err
	}

	a.e.logger.Info("add-on payment created",
		"addon_payment_id", apayID.String(),
		"addon_id", offer.ID.String(),
		"user_id", userID.String(),
		"amount", ap.Amount.String(),
	)
	return apayID, nil
}

// GetAddonPayment returns an add-on purchase, or nil when it does not exist.
func (a *AddonService) GetAddonPayment(ctx context.Context, apayID id.AddonPaymentID) (*payment.AddonPayment, error) {
	return a.paymentActor(apayID.String()).GetData(ctx)
}
