// Package marketgate is a convenience layer over the marketplace platform
// gateway: isolated prompt calls, normalized purchase completion
// notifications, and sequenced bulk purchases.
package marketgate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/domain/batch"
	"github.com/kailas-cloud/marketgate/internal/eventbus"
	"github.com/kailas-cloud/marketgate/internal/platform/cloud"
	"github.com/kailas-cloud/marketgate/internal/repository/infocache"
	bulkuc "github.com/kailas-cloud/marketgate/internal/usecase/bulk"
	productuc "github.com/kailas-cloud/marketgate/internal/usecase/product"
	promptuc "github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultHTTPTimeout      = 15 * time.Second
)

// Внутренние интерфейсы для подмены в тестах.
type promptUseCase interface {
	HasPass(ctx context.Context, requester domain.Requester, passID int64) (bool, error)
	PromptPass(ctx context.Context, requester domain.Requester, passID int64) (promptuc.Result, error)
	PromptProduct(ctx context.Context, requester domain.Requester, productID int64) error
	PromptBundle(ctx context.Context, requester domain.Requester, bundleID int64) error
	PromptAsset(ctx context.Context, requester domain.Requester, assetID int64) error
	PromptSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error
	PromptPremium(ctx context.Context, requester domain.Requester, planID int64) error
	CancelSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error
}

type bulkUseCase interface {
	Run(ctx context.Context, requester domain.Requester, items []domain.PurchaseItem, opts bulkuc.Options) (batch.Result, error)
	OnComplete(fn func(batch.Result)) *bulkuc.CompletionListener
}

type infoUseCase interface {
	GetInfo(ctx context.Context, id int64, infoType domain.InfoType) (*domain.ProductInfo, error)
}

// Client is the marketgate SDK entry point.
type Client struct {
	driver  *cloud.Driver
	bus     *eventbus.Bus
	prompts promptUseCase
	bulk    bulkUseCase
	info    infoUseCase
}

// New creates a Client, connects to the notification feed, and starts
// consuming completion channels. The provided context is used for the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		httpTimeout:      defaultHTTPTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("marketgate: gateway base URL required (use WithGateway)")
	}
	if len(cfg.redisAddrs) == 0 {
		return nil, errors.New("marketgate: notification feed address required (use WithNotificationFeed)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := cloud.New(cloud.Config{
		BaseURL:       cfg.baseURL,
		APIKey:        cfg.apiKey,
		RedisAddrs:    cfg.redisAddrs,
		RedisPassword: cfg.redisPassword,
		ChannelPrefix: cfg.channelPrefix,
		HTTPTimeout:   cfg.httpTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("marketgate: create driver: %w", err)
	}

	if err := driver.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		driver.Close()
		return nil, fmt.Errorf("marketgate: notification feed not ready: %w", err)
	}

	return wireClient(driver, cfg, logger), nil
}

func wireClient(driver *cloud.Driver, cfg *clientConfig, logger *zap.Logger) *Client {
	bus := eventbus.New()
	bus.Attach(driver)

	promptSvc := promptuc.New(driver, driver, logger)
	bulkSvc := bulkuc.New(promptSvc, bus, logger).
		WithDefaultTimeout(cfg.bulkItemTimeout).
		WithMaxBatchSize(cfg.maxBatchSize)

	var info infoUseCase = productuc.New(driver)
	if cfg.infoCacheTTL > 0 {
		info = infocache.New(productuc.New(driver), driver.Redis(), cfg.infoCacheTTL, nil, logger)
	}

	return &Client{
		driver:  driver,
		bus:     bus,
		prompts: promptSvc,
		bulk:    bulkSvc,
		info:    info,
	}
}

// Close stops the notification listener and releases all connections.
func (c *Client) Close() {
	if c.driver != nil {
		c.driver.Close()
	}
}

// HasPass reports whether the requester owns the pass.
func (c *Client) HasPass(ctx context.Context, requester Requester, passID int64) (bool, error) {
	return c.prompts.HasPass(ctx, requester, passID)
}

// PromptPassPurchase opens the pass purchase prompt. Requesters that
// already own the pass are not prompted; the result reports which case
// applied.
func (c *Client) PromptPassPurchase(ctx context.Context, requester Requester, passID int64) (PromptResult, error) {
	return c.prompts.PromptPass(ctx, requester, passID)
}

// PromptProductPurchase opens the developer product purchase prompt.
func (c *Client) PromptProductPurchase(ctx context.Context, requester Requester, productID int64) error {
	return c.prompts.PromptProduct(ctx, requester, productID)
}

// PromptBundlePurchase opens the bundle purchase prompt.
func (c *Client) PromptBundlePurchase(ctx context.Context, requester Requester, bundleID int64) error {
	return c.prompts.PromptBundle(ctx, requester, bundleID)
}

// PromptAssetPurchase opens the asset purchase prompt.
func (c *Client) PromptAssetPurchase(ctx context.Context, requester Requester, assetID int64) error {
	return c.prompts.PromptAsset(ctx, requester, assetID)
}

// PromptSubscriptionPurchase opens the subscription purchase prompt.
func (c *Client) PromptSubscriptionPurchase(ctx context.Context, requester Requester, subscriptionID int64) error {
	return c.prompts.PromptSubscription(ctx, requester, subscriptionID)
}

// PromptPremiumPurchase opens the premium membership purchase prompt.
func (c *Client) PromptPremiumPurchase(ctx context.Context, requester Requester, planID int64) error {
	return c.prompts.PromptPremium(ctx, requester, planID)
}

// CancelSubscription opens the subscription cancellation prompt.
func (c *Client) CancelSubscription(ctx context.Context, requester Requester, subscriptionID int64) error {
	return c.prompts.CancelSubscription(ctx, requester, subscriptionID)
}

// GetProductInfo resolves a catalog snapshot for the product. An absent
// product yields (nil, nil), never an error.
func (c *Client) GetProductInfo(ctx context.Context, id int64, infoType InfoType) (*ProductInfo, error) {
	return c.info.GetInfo(ctx, id, infoType)
}

// BulkPurchase starts a bulk purchase in the background and returns a
// ticket tracking it. Batches for the same requester are serialized.
func (c *Client) BulkPurchase(ctx context.Context, requester Requester, items []PurchaseItem, opts BulkOptions) *BulkTicket {
	runCtx, cancel := context.WithCancel(ctx)
	t := &BulkTicket{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		t.res, t.err = c.bulk.Run(runCtx, requester, items, opts)
	}()

	return t
}

// OnBulkComplete registers a listener invoked exactly once per terminated
// batch, including batches started by other callers of this client.
func (c *Client) OnBulkComplete(fn func(BatchResult)) *CompletionListener {
	return c.bulk.OnComplete(fn)
}

// OnAssetPurchased registers a handler for asset purchase completions.
func (c *Client) OnAssetPurchased(fn func(Event)) *Subscription {
	return c.bus.Subscribe(eventbus.StreamAsset, nil, fn)
}

// OnPassPurchased registers a handler for pass purchase completions.
func (c *Client) OnPassPurchased(fn func(Event)) *Subscription {
	return c.bus.Subscribe(eventbus.StreamPass, nil, fn)
}

// OnProductPurchased registers a handler for developer product purchase
// completions. The event carries the currency spent.
func (c *Client) OnProductPurchased(fn func(Event)) *Subscription {
	return c.bus.Subscribe(eventbus.StreamProduct, nil, fn)
}

// OnBundlePurchased registers a handler for bundle purchase completions.
func (c *Client) OnBundlePurchased(fn func(Event)) *Subscription {
	return c.bus.Subscribe(eventbus.StreamBundle, nil, fn)
}

// OnSubscriptionPurchased registers a handler for subscription purchase
// completions.
func (c *Client) OnSubscriptionPurchased(fn func(Event)) *Subscription {
	return c.bus.Subscribe(eventbus.StreamSubscription, nil, fn)
}

// BulkTicket tracks one background bulk purchase.
type BulkTicket struct {
	cancel context.CancelFunc
	done   chan struct{}

	res batch.Result
	err error

	once sync.Once
}

// Done is closed when the batch has terminated.
func (t *BulkTicket) Done() <-chan struct{} { return t.done }

// Result returns the terminal batch result. It blocks until the batch
// terminates or ctx is cancelled.
func (t *BulkTicket) Result(ctx context.Context) (BatchResult, error) {
	select {
	case <-t.done:
		return t.res, t.err
	case <-ctx.Done():
		return batch.Result{}, ctx.Err()
	}
}

// Cancel aborts the batch. The current item finishes resolving; remaining
// items are never prompted. Cancelling twice is a no-op.
func (t *BulkTicket) Cancel() {
	t.once.Do(t.cancel)
}
