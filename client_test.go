package marketgate

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/domain/batch"
	"github.com/kailas-cloud/marketgate/internal/eventbus"
	bulkuc "github.com/kailas-cloud/marketgate/internal/usecase/bulk"
	promptuc "github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

func TestNew_NoGateway(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no gateway configured")
	}
}

func TestNew_NoNotificationFeed(t *testing.T) {
	_, err := New(context.Background(), WithGateway("https://apis.example.com", "key"))
	if err == nil {
		t.Fatal("expected error when no notification feed configured")
	}
}

func TestOptions(t *testing.T) {
	cfg := &clientConfig{}
	opts := []Option{
		WithGateway("https://apis.example.com", "key"),
		WithNotificationFeed("localhost:6379", "pw"),
		WithChannelPrefix("mk:"),
		WithHTTPTimeout(5 * time.Second),
		WithReadinessTimeout(3 * time.Second),
		WithInfoCacheTTL(time.Minute),
		WithBulkDefaults(30*time.Second, 25),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL != "https://apis.example.com" || cfg.apiKey != "key" {
		t.Errorf("gateway: got %q/%q", cfg.baseURL, cfg.apiKey)
	}
	if len(cfg.redisAddrs) != 1 || cfg.redisAddrs[0] != "localhost:6379" {
		t.Errorf("redis addrs: got %v", cfg.redisAddrs)
	}
	if cfg.channelPrefix != "mk:" {
		t.Errorf("channel prefix: got %q", cfg.channelPrefix)
	}
	if cfg.httpTimeout != 5*time.Second || cfg.readinessTimeout != 3*time.Second {
		t.Errorf("timeouts: got %v/%v", cfg.httpTimeout, cfg.readinessTimeout)
	}
	if cfg.infoCacheTTL != time.Minute {
		t.Errorf("cache ttl: got %v", cfg.infoCacheTTL)
	}
	if cfg.bulkItemTimeout != 30*time.Second || cfg.maxBatchSize != 25 {
		t.Errorf("bulk defaults: got %v/%d", cfg.bulkItemTimeout, cfg.maxBatchSize)
	}
}

// recordingPrompts captures which prompt operation each Client method hits.
type recordingPrompts struct {
	ops []string
}

func (p *recordingPrompts) record(op string) { p.ops = append(p.ops, op) }

func (p *recordingPrompts) HasPass(context.Context, domain.Requester, int64) (bool, error) {
	p.record("has_pass")
	return true, nil
}

func (p *recordingPrompts) PromptPass(context.Context, domain.Requester, int64) (promptuc.Result, error) {
	p.record("pass")
	return promptuc.ResultPrompted, nil
}

func (p *recordingPrompts) PromptProduct(context.Context, domain.Requester, int64) error {
	p.record("product")
	return nil
}

func (p *recordingPrompts) PromptBundle(context.Context, domain.Requester, int64) error {
	p.record("bundle")
	return nil
}

func (p *recordingPrompts) PromptAsset(context.Context, domain.Requester, int64) error {
	p.record("asset")
	return nil
}

func (p *recordingPrompts) PromptSubscription(context.Context, domain.Requester, int64) error {
	p.record("subscription")
	return nil
}

func (p *recordingPrompts) PromptPremium(context.Context, domain.Requester, int64) error {
	p.record("premium")
	return nil
}

func (p *recordingPrompts) CancelSubscription(context.Context, domain.Requester, int64) error {
	p.record("cancel")
	return nil
}

type fakeBulk struct {
	runFn func(ctx context.Context, requester domain.Requester, items []domain.PurchaseItem, opts bulkuc.Options) (batch.Result, error)
}

func (f *fakeBulk) Run(ctx context.Context, requester domain.Requester, items []domain.PurchaseItem, opts bulkuc.Options) (batch.Result, error) {
	return f.runFn(ctx, requester, items, opts)
}

func (f *fakeBulk) OnComplete(func(batch.Result)) *bulkuc.CompletionListener { return nil }

func TestClient_PromptDispatch(t *testing.T) {
	p := &recordingPrompts{}
	c := &Client{prompts: p}
	ctx := context.Background()
	dave := Requester{ID: 4, Name: "dave"}

	if owned, err := c.HasPass(ctx, dave, 1); err != nil || !owned {
		t.Errorf("HasPass() = %v, %v", owned, err)
	}
	if res, err := c.PromptPassPurchase(ctx, dave, 1); err != nil || res != PromptIssued {
		t.Errorf("PromptPassPurchase() = %q, %v", res, err)
	}
	if err := c.PromptProductPurchase(ctx, dave, 2); err != nil {
		t.Errorf("PromptProductPurchase() error = %v", err)
	}
	if err := c.PromptBundlePurchase(ctx, dave, 3); err != nil {
		t.Errorf("PromptBundlePurchase() error = %v", err)
	}
	if err := c.PromptAssetPurchase(ctx, dave, 4); err != nil {
		t.Errorf("PromptAssetPurchase() error = %v", err)
	}
	if err := c.PromptSubscriptionPurchase(ctx, dave, 5); err != nil {
		t.Errorf("PromptSubscriptionPurchase() error = %v", err)
	}
	if err := c.PromptPremiumPurchase(ctx, dave, 6); err != nil {
		t.Errorf("PromptPremiumPurchase() error = %v", err)
	}
	if err := c.CancelSubscription(ctx, dave, 7); err != nil {
		t.Errorf("CancelSubscription() error = %v", err)
	}

	want := []string{"has_pass", "pass", "product", "bundle", "asset", "subscription", "premium", "cancel"}
	if len(p.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", p.ops, want)
	}
	for i := range want {
		if p.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, p.ops[i], want[i])
		}
	}
}

func TestBulkPurchase_TicketResolves(t *testing.T) {
	dave := Requester{ID: 4}
	item := PurchaseItem{Kind: KindPass, ID: 9}
	want := batch.Finalize(dave, []batch.Outcome{
		batch.NewOutcome(item, batch.StatusPurchased, ""),
	})

	c := &Client{bulk: &fakeBulk{
		runFn: func(context.Context, domain.Requester, []domain.PurchaseItem, bulkuc.Options) (batch.Result, error) {
			return want, nil
		},
	}}

	ticket := c.BulkPurchase(context.Background(), dave, []PurchaseItem{item}, BulkOptions{})

	res, err := ticket.Result(context.Background())
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Overall() != AllPurchased {
		t.Errorf("Overall() = %q, want %q", res.Overall(), AllPurchased)
	}

	select {
	case <-ticket.Done():
	default:
		t.Error("Done() not closed after Result() returned")
	}
}

func TestBulkTicket_Cancel(t *testing.T) {
	dave := Requester{ID: 4}
	c := &Client{bulk: &fakeBulk{
		runFn: func(ctx context.Context, requester domain.Requester, _ []domain.PurchaseItem, _ bulkuc.Options) (batch.Result, error) {
			<-ctx.Done()
			return batch.FinalizeAborted(requester, nil), nil
		},
	}}

	ticket := c.BulkPurchase(context.Background(), dave, nil, BulkOptions{})
	ticket.Cancel()
	ticket.Cancel() // idempotent

	res, err := ticket.Result(context.Background())
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if res.Overall() != Aborted {
		t.Errorf("Overall() = %q, want %q", res.Overall(), Aborted)
	}
}

func TestClient_NotificationSubscriptions(t *testing.T) {
	bus := eventbus.New()
	c := &Client{bus: bus}

	got := make(chan Event, 1)
	sub := c.OnProductPurchased(func(e Event) { got <- e })
	defer sub.Close()

	bus.Publish(Event{
		Stream:        eventbus.StreamProduct,
		RequesterID:   4,
		ItemID:        77,
		Purchased:     true,
		CurrencySpent: 250,
	})

	select {
	case e := <-got:
		if e.ItemID != 77 || e.CurrencySpent != 250 {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("product purchase event not delivered")
	}
}
