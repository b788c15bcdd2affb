package bazaar

import (
	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/subscription"
)

// Actor type names. They namespace state in the store, so renaming one
// orphans its persisted records.
const (
	SubscriptionActorType       = "SubscriptionActor"
	AddonActorType              = "AddonActor"
	PaymentTransactionActorType = "PaymentTransactionActor"
	AddonPaymentActorType       = "AddonPaymentActor"
	UserQuotaActorType          = "UserQuotaActor"
)

var (
	subscriptionKind = actor.Kind[subscription.Subscription]{
		Name:     SubscriptionActorType,
		Validate: (*subscription.Subscription).Validate,
		Merge:    subscription.Merge,
	}

	addonKind = actor.Kind[addon.Data]{
		Name:     AddonActorType,
		Validate: (*addon.Data).Validate,
	}

	paymentKind = actor.Kind[payment.Transaction]{
		Name:     PaymentTransactionActorType,
		Validate: (*payment.Transaction).Validate,
	}

	addonPaymentKind = actor.Kind[payment.AddonPayment]{
		Name:     AddonPaymentActorType,
		Validate: (*payment.AddonPayment).Validate,
	}

	userQuotaKind = actor.Kind[quota.Ledger]{
		Name:     UserQuotaActorType,
		Validate: (*quota.Ledger).Validate,
	}
)
