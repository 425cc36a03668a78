package cloud

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/platform"
)

// Channel suffixes for the five native completion streams.
const (
	chanAsset        = "purchases.asset"
	chanPass         = "purchases.pass"
	chanBundle       = "purchases.bundle"
	chanProduct      = "purchases.product"
	chanSubscription = "purchases.subscription"
)

// purchaseMessage is the wire shape the gateway publishes for every stream.
// CurrencySpent is only populated on the product stream.
type purchaseMessage struct {
	RequesterID   int64 `json:"requesterId"`
	ItemID        int64 `json:"itemId"`
	Purchased     bool  `json:"purchased"`
	CurrencySpent int64 `json:"currencySpent,omitempty"`
}

// feed holds the per-stream callback slots. One slot per stream, latest
// registration wins; fan-out to multiple listeners happens in the event bus.
type feed struct {
	prefix string
	logger *zap.Logger

	mu           sync.RWMutex
	asset        platform.AssetHandler
	pass         platform.PassHandler
	bundle       platform.BundleHandler
	product      platform.ProductHandler
	subscription platform.SubscriptionHandler
}

func newFeed(prefix string, logger *zap.Logger) *feed {
	return &feed{prefix: prefix, logger: logger}
}

func (f *feed) channels() []string {
	return []string{
		f.prefix + chanAsset,
		f.prefix + chanPass,
		f.prefix + chanBundle,
		f.prefix + chanProduct,
		f.prefix + chanSubscription,
	}
}

func (f *feed) dispatch(channel string, payload string) {
	var msg purchaseMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		f.logger.Warn("Dropping malformed purchase notification",
			zap.String("channel", channel), zap.Error(err))
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	switch channel {
	case f.prefix + chanAsset:
		if f.asset != nil {
			f.asset(msg.RequesterID, msg.ItemID, msg.Purchased)
		}
	case f.prefix + chanPass:
		if f.pass != nil {
			f.pass(msg.RequesterID, msg.ItemID, msg.Purchased)
		}
	case f.prefix + chanBundle:
		if f.bundle != nil {
			f.bundle(msg.RequesterID, msg.ItemID, msg.Purchased)
		}
	case f.prefix + chanProduct:
		if f.product != nil {
			f.product(msg.RequesterID, msg.ItemID, msg.CurrencySpent, msg.Purchased)
		}
	case f.prefix + chanSubscription:
		if f.subscription != nil {
			f.subscription(msg.RequesterID, msg.ItemID, msg.Purchased)
		}
	default:
		f.logger.Warn("Purchase notification on unknown channel", zap.String("channel", channel))
	}
}

// listen consumes the notification channels until ctx is cancelled.
func (d *Driver) listen(ctx context.Context) {
	defer close(d.listenDone)

	cmd := d.redis.B().Subscribe().Channel(d.feed.channels()...).Build()
	err := d.redis.Receive(ctx, cmd, func(msg rueidis.PubSubMessage) {
		d.feed.dispatch(msg.Channel, msg.Message)
	})
	if err != nil && ctx.Err() == nil {
		d.logger.Error("Notification feed terminated", zap.Error(err))
	}
}

// OnAssetPurchased implements platform.Notifier.
func (d *Driver) OnAssetPurchased(fn platform.AssetHandler) {
	d.feed.mu.Lock()
	defer d.feed.mu.Unlock()
	d.feed.asset = fn
}

// OnPassPurchased implements platform.Notifier.
func (d *Driver) OnPassPurchased(fn platform.PassHandler) {
	d.feed.mu.Lock()
	defer d.feed.mu.Unlock()
	d.feed.pass = fn
}

// OnBundlePurchased implements platform.Notifier.
func (d *Driver) OnBundlePurchased(fn platform.BundleHandler) {
	d.feed.mu.Lock()
	defer d.feed.mu.Unlock()
	d.feed.bundle = fn
}

// OnProductPurchased implements platform.Notifier.
func (d *Driver) OnProductPurchased(fn platform.ProductHandler) {
	d.feed.mu.Lock()
	defer d.feed.mu.Unlock()
	d.feed.product = fn
}

// OnSubscriptionPurchased implements platform.Notifier.
func (d *Driver) OnSubscriptionPurchased(fn platform.SubscriptionHandler) {
	d.feed.mu.Lock()
	defer d.feed.mu.Unlock()
	d.feed.subscription = fn
}
