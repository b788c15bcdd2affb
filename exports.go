package bazaar

import (
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/types"
)

// Re-export common types so callers rarely need the leaf packages.

// Money is re-exported from types package.
type Money = types.Money

// Duration is re-exported from duration package.
type Duration = duration.Type

// Budget is re-exported from quota package.
type Budget = quota.Budget

// Re-export Money constructors
var (
	QAR  = types.QAR
	USD  = types.USD
	Zero = types.Zero
)

// Re-export duration values
const (
	ThreeMonths = duration.ThreeMonths
	SixMonths   = duration.SixMonths
	OneYear     = duration.OneYear
	TwoMinutes  = duration.TwoMinutes
)

// Re-export budgets
const (
	BudgetAds     = quota.BudgetAds
	BudgetPromote = quota.BudgetPromote
	BudgetRefresh = quota.BudgetRefresh
)
