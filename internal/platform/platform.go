// Package platform defines the boundary to the hosting marketplace platform.
// Nothing outside internal/safecall may invoke a Service method directly.
package platform

import (
	"context"
	"time"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

// Service is the platform facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Service.
type Service interface {
	OwnershipChecker
	Prompter
	CatalogReader
	Notifier
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// OwnershipChecker answers whether a requester already owns a pass.
type OwnershipChecker interface {
	HasPass(ctx context.Context, requesterID, passID int64) (bool, error)
}

// Prompter issues purchase prompt UI requests. Prompt calls are
// fire-and-forget: the outcome arrives later as a completion notification.
type Prompter interface {
	PromptPurchase(ctx context.Context, kind domain.Kind, requester domain.Requester, id int64) error
	PromptPremium(ctx context.Context, requester domain.Requester, planID int64) error
	CancelSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error
}

// CatalogReader fetches product metadata.
// A missing product is reported as ErrProductNotFound.
type CatalogReader interface {
	ProductInfo(ctx context.Context, id int64, infoType domain.InfoType) (domain.ProductInfo, error)
}

// Completion notification handlers, one signature per native stream.
// The product stream additionally reports the currency amount spent.
type (
	AssetHandler        func(requesterID, assetID int64, purchased bool)
	PassHandler         func(requesterID, passID int64, purchased bool)
	BundleHandler       func(requesterID, bundleID int64, purchased bool)
	ProductHandler      func(requesterID, productID, currencySpent int64, purchased bool)
	SubscriptionHandler func(requesterID, subscriptionID int64, purchased bool)
)

// Notifier exposes the platform's native completion streams. Each stream
// has a single callback slot; the latest registration wins. The event bus
// is the only intended consumer and fans notifications out from there.
type Notifier interface {
	OnAssetPurchased(fn AssetHandler)
	OnPassPurchased(fn PassHandler)
	OnBundlePurchased(fn BundleHandler)
	OnProductPurchased(fn ProductHandler)
	OnSubscriptionPurchased(fn SubscriptionHandler)
}
