package audithook

// Action constants for audit events.
const (
	// Subscription actions
	ActionSubscriptionCreated = "subscription.created"
	ActionSubscriptionUpdated = "subscription.updated"
	ActionSubscriptionDeleted = "subscription.deleted"

	// Payment actions
	ActionPaymentCreated      = "payment.created"
	ActionAddonPaymentCreated = "addon_payment.created"

	// Catalog actions
	ActionCatalogChanged = "catalog.changed"

	// Quota actions
	ActionQuotaGranted  = "quota.granted"
	ActionQuotaConsumed = "quota.consumed"
	ActionQuotaExceeded = "quota.exceeded"

	// Expiry actions
	ActionEntityExpired = "entity.expired"
)

// Resource constants for audit events.
const (
	ResourceSubscription = "subscription"
	ResourcePayment      = "payment"
	ResourceAddonPayment = "addon_payment"
	ResourceCatalog      = "addon_catalog"
	ResourceQuota        = "quota"
)

// Category constants for audit events.
const (
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
	CategoryCatalog      = "catalog"
	CategoryUsage        = "usage"
	CategoryAccess       = "access"
	CategoryLifecycle    = "lifecycle"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
