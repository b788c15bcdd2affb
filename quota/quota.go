// Package quota models a user's quota ledger: the usage allowances granted
// by subscription and add-on payments, and the rules for spending them.
//
// Ledger methods are pure. Atomicity comes from the UserQuotaActor that owns
// the ledger, which runs every mutation inside one turn.
package quota

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/id"
)

var (
	ErrQuotaExceeded   = errors.New("bazaar: quota exceeded")
	ErrGrantNotFound   = errors.New("bazaar: quota grant not found")
	ErrRefillExceeds   = errors.New("bazaar: refill exceeds granted amount")
	ErrInvalidAmount   = errors.New("bazaar: amount must be positive")
	ErrUnknownBudget   = errors.New("bazaar: unknown budget")
	ErrNegativeBalance = errors.New("bazaar: negative quota balance")
)

// Budget is a spendable quota category.
type Budget string

const (
	BudgetAds     Budget = "ads"
	BudgetPromote Budget = "promote"
	BudgetRefresh Budget = "refresh"
)

// Budgets lists every budget category.
var Budgets = []Budget{BudgetAds, BudgetPromote, BudgetRefresh}

// Valid reports whether b is a known budget.
func (b Budget) Valid() bool {
	return b == BudgetAds || b == BudgetPromote || b == BudgetRefresh
}

// Source records what kind of purchase produced a grant.
type Source string

const (
	SourceSubscription Source = "subscription"
	SourceAddon        Source = "addon"
)

// Grant is one allowance in a ledger, keyed by the payment that bought it.
type Grant struct {
	TransactionID    id.TransactionID `json:"transaction_id"`
	Source           Source           `json:"source"`
	VerticalID       int              `json:"vertical_id"`
	CategoryID       int              `json:"category_id"`
	AdsGranted       int              `json:"ads_granted"`
	PromoteGranted   int              `json:"promote_granted"`
	RefreshGranted   int              `json:"refresh_granted"`
	AdsRemaining     int              `json:"ads_remaining"`
	PromoteRemaining int              `json:"promote_remaining"`
	RefreshRemaining int              `json:"refresh_remaining"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	IsExpired        bool             `json:"is_expired"`
	IsDeleted        bool             `json:"is_deleted"`
	LastUpdated      time.Time        `json:"last_updated"`
}

// NewGrant returns a grant with every granted amount fully remaining.
func NewGrant(txID id.TransactionID, source Source, ads, promote, refresh int, start, end time.Time) Grant {
	return Grant{
		TransactionID:    txID,
		Source:           source,
		AdsGranted:       ads,
		PromoteGranted:   promote,
		RefreshGranted:   refresh,
		AdsRemaining:     ads,
		PromoteRemaining: promote,
		RefreshRemaining: refresh,
		StartDate:        start,
		EndDate:          end,
	}
}

// NewBudgetGrant returns a grant of n units of a single budget.
func NewBudgetGrant(txID id.TransactionID, source Source, b Budget, n int, start, end time.Time) Grant {
	var ads, promote, refresh int
	switch b {
	case BudgetAds:
		ads = n
	case BudgetPromote:
		promote = n
	case BudgetRefresh:
		refresh = n
	}
	return NewGrant(txID, source, ads, promote, refresh, start, end)
}

// Active reports whether the grant counts towards the user's balance at now.
func (g *Grant) Active(now time.Time) bool {
	if g.IsExpired || g.IsDeleted {
		return false
	}
	if !g.StartDate.IsZero() && now.Before(g.StartDate) {
		return false
	}
	return g.EndDate.IsZero() || now.Before(g.EndDate)
}

// Remaining returns the unspent amount of b.
func (g *Grant) Remaining(b Budget) int {
	switch b {
	case BudgetAds:
		return g.AdsRemaining
	case BudgetPromote:
		return g.PromoteRemaining
	case BudgetRefresh:
		return g.RefreshRemaining
	}
	return 0
}

// Granted returns the amount of b originally granted.
func (g *Grant) Granted(b Budget) int {
	switch b {
	case BudgetAds:
		return g.AdsGranted
	case BudgetPromote:
		return g.PromoteGranted
	case BudgetRefresh:
		return g.RefreshGranted
	}
	return 0
}

func (g *Grant) setRemaining(b Budget, n int) {
	switch b {
	case BudgetAds:
		g.AdsRemaining = n
	case BudgetPromote:
		g.PromoteRemaining = n
	case BudgetRefresh:
		g.RefreshRemaining = n
	}
}

// Validate checks the grant's balances.
func (g *Grant) Validate() error {
	if g.TransactionID.IsNil() {
		return errors.New("transaction_id is required")
	}
	for _, b := range Budgets {
		if g.Granted(b) < 0 || g.Remaining(b) < 0 {
			return fmt.Errorf("%w: %s on %s", ErrNegativeBalance, b, g.TransactionID)
		}
		if g.Remaining(b) > g.Granted(b) {
			return fmt.Errorf("%s remaining %d exceeds granted %d on %s", b, g.Remaining(b), g.Granted(b), g.TransactionID)
		}
	}
	if !g.EndDate.IsZero() && g.EndDate.Before(g.StartDate) {
		return fmt.Errorf("end_date before start_date on %s", g.TransactionID)
	}
	return nil
}

// Draw is the part of a consumption taken from one grant.
type Draw struct {
	TransactionID id.TransactionID `json:"transaction_id"`
	Units         int              `json:"units"`
}

// Summary totals a user's active balances.
type Summary struct {
	UserID       uuid.UUID `json:"user_id"`
	Ads          int       `json:"ads"`
	Promote      int       `json:"promote"`
	Refresh      int       `json:"refresh"`
	ActiveGrants int       `json:"active_grants"`
}

// Get returns the total for b.
func (s Summary) Get(b Budget) int {
	switch b {
	case BudgetAds:
		return s.Ads
	case BudgetPromote:
		return s.Promote
	case BudgetRefresh:
		return s.Refresh
	}
	return 0
}

// Ledger is every grant a user has received. Grants are never removed;
// deletion and expiry are flags.
type Ledger struct {
	UserID      uuid.UUID `json:"user_id"`
	Quotas      []Grant   `json:"quotas"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewLedger returns an empty ledger for userID.
func NewLedger(userID uuid.UUID) *Ledger {
	return &Ledger{UserID: userID, Quotas: []Grant{}}
}

func (l *Ledger) index(txID id.TransactionID) int {
	key := txID.String()
	for i := range l.Quotas {
		if l.Quotas[i].TransactionID.String() == key {
			return i
		}
	}
	return -1
}

// Find returns the grant for txID.
func (l *Ledger) Find(txID id.TransactionID) (Grant, bool) {
	if i := l.index(txID); i >= 0 {
		return l.Quotas[i], true
	}
	return Grant{}, false
}

// Upsert adds g, or replaces the grant with the same transaction ID.
// It reports whether an existing grant was replaced.
func (l *Ledger) Upsert(g Grant, now time.Time) bool {
	g.LastUpdated = now
	l.LastUpdated = now
	if i := l.index(g.TransactionID); i >= 0 {
		l.Quotas[i] = g
		return true
	}
	l.Quotas = append(l.Quotas, g)
	return false
}

// Replace overwrites an existing grant. It reports false when none exists.
func (l *Ledger) Replace(g Grant, now time.Time) bool {
	if l.index(g.TransactionID) < 0 {
		return false
	}
	l.Upsert(g, now)
	return true
}

// MarkDeleted flags the grant for txID as deleted. It reports false when
// no such grant exists.
func (l *Ledger) MarkDeleted(txID id.TransactionID, now time.Time) bool {
	i := l.index(txID)
	if i < 0 {
		return false
	}
	l.Quotas[i].IsDeleted = true
	l.Quotas[i].LastUpdated = now
	l.LastUpdated = now
	return true
}

// Active returns copies of the grants that count at now.
func (l *Ledger) Active(now time.Time) []Grant {
	out := make([]Grant, 0, len(l.Quotas))
	for i := range l.Quotas {
		if l.Quotas[i].Active(now) {
			out = append(out, l.Quotas[i])
		}
	}
	return out
}

// Summary totals the active balances at now.
func (l *Ledger) Summary(now time.Time) Summary {
	s := Summary{UserID: l.UserID}
	for _, g := range l.Active(now) {
		s.Ads += g.AdsRemaining
		s.Promote += g.PromoteRemaining
		s.Refresh += g.RefreshRemaining
		s.ActiveGrants++
	}
	return s
}

// Consume spends n units of b across active grants, earliest end date
// first. If the active balance is short nothing is spent and
// ErrQuotaExceeded is returned.
func (l *Ledger) Consume(b Budget, n int, now time.Time) ([]Draw, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBudget, b)
	}
	if n <= 0 {
		return nil, ErrInvalidAmount
	}

	order := make([]int, 0, len(l.Quotas))
	available := 0
	for i := range l.Quotas {
		g := &l.Quotas[i]
		if g.Active(now) && g.Remaining(b) > 0 {
			order = append(order, i)
			available += g.Remaining(b)
		}
	}
	if available < n {
		return nil, fmt.Errorf("%w: %s needs %d, %d available", ErrQuotaExceeded, b, n, available)
	}

	slices.SortStableFunc(order, func(a, c int) int {
		return compareEnd(l.Quotas[a].EndDate, l.Quotas[c].EndDate)
	})

	draws := make([]Draw, 0, len(order))
	left := n
	for _, i := range order {
		if left == 0 {
			break
		}
		g := &l.Quotas[i]
		take := min(g.Remaining(b), left)
		g.setRemaining(b, g.Remaining(b)-take)
		g.LastUpdated = now
		left -= take
		draws = append(draws, Draw{TransactionID: g.TransactionID, Units: take})
	}
	l.LastUpdated = now
	return draws, nil
}

// compareEnd orders end dates ascending with open-ended grants last.
func compareEnd(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}

// Refill returns n units of b to the grant for txID. A refill that would
// lift the balance above the granted amount is rejected.
func (l *Ledger) Refill(txID id.TransactionID, b Budget, n int, now time.Time) error {
	if !b.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBudget, b)
	}
	if n <= 0 {
		return ErrInvalidAmount
	}
	i := l.index(txID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrGrantNotFound, txID)
	}

	g := &l.Quotas[i]
	if g.Remaining(b)+n > g.Granted(b) {
		return fmt.Errorf("%w: %s %d + %d > %d", ErrRefillExceeds, b, g.Remaining(b), n, g.Granted(b))
	}
	g.setRemaining(b, g.Remaining(b)+n)
	g.LastUpdated = now
	l.LastUpdated = now
	return nil
}

// Expire flags every grant whose end date has passed and returns the
// transaction IDs it flipped.
func (l *Ledger) Expire(now time.Time) []id.TransactionID {
	var flipped []id.TransactionID
	for i := range l.Quotas {
		g := &l.Quotas[i]
		if g.IsExpired || g.EndDate.IsZero() || now.Before(g.EndDate) {
			continue
		}
		g.IsExpired = true
		g.LastUpdated = now
		flipped = append(flipped, g.TransactionID)
	}
	if len(flipped) > 0 {
		l.LastUpdated = now
	}
	return flipped
}

// Validate checks every grant in the ledger.
func (l *Ledger) Validate() error {
	if l.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	var errs []error
	for i := range l.Quotas {
		if err := l.Quotas[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
