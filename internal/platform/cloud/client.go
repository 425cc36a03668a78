// Package cloud implements platform.Service against the marketplace
// platform's REST gateway, with completion notifications consumed from
// Redis pub/sub channels the gateway publishes to.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/platform"
)

// Compile-time check: Driver implements platform.Service.
var _ platform.Service = (*Driver)(nil)

const defaultHTTPTimeout = 10 * time.Second

// Config holds connection parameters for the platform gateway.
type Config struct {
	BaseURL       string
	APIKey        string
	RedisAddrs    []string
	RedisPassword string
	ChannelPrefix string // pub/sub channel prefix, default "marketplace:"
	HTTPTimeout   time.Duration
	Logger        *zap.Logger
}

// Driver talks to the platform gateway.
type Driver struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	redis   rueidis.Client
	logger  *zap.Logger

	feed *feed

	cancelListen context.CancelFunc
	listenDone   chan struct{}
}

// New creates a Driver and starts consuming the notification channels.
func New(cfg Config) (*Driver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("cloud: base url is required")
	}
	if len(cfg.RedisAddrs) == 0 {
		return nil, fmt.Errorf("cloud: redis addrs are required")
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rc, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.RedisAddrs,
		Password:     cfg.RedisPassword,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cloud: create redis client: %w", err)
	}

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "marketplace:"
	}

	d := &Driver{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpc:      &http.Client{Timeout: timeout},
		redis:      rc,
		logger:     logger,
		feed:       newFeed(prefix, logger),
		listenDone: make(chan struct{}),
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	d.cancelListen = cancel
	go d.listen(listenCtx)

	return d, nil
}

// WaitForReady blocks until the notification feed connection answers PING.
func (d *Driver) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := d.redis.Do(pingCtx, d.redis.B().Ping().Build()).Error()
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("cloud: feed not ready: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Redis exposes the underlying client for components that share the
// connection, such as the product info cache.
func (d *Driver) Redis() rueidis.Client {
	return d.redis
}

// Close stops the notification listener and releases connections.
func (d *Driver) Close() {
	d.cancelListen()
	<-d.listenDone
	d.redis.Close()
}

// HasPass implements platform.OwnershipChecker.
func (d *Driver) HasPass(ctx context.Context, requesterID, passID int64) (bool, error) {
	var resp struct {
		Owned bool `json:"owned"`
	}
	path := fmt.Sprintf("/v1/ownership/%d/pass/%d", requesterID, passID)
	if err := d.get(ctx, path, &resp); err != nil {
		return false, fmt.Errorf("has pass: %w", err)
	}
	return resp.Owned, nil
}

// PromptPurchase implements platform.Prompter. The call only opens the
// prompt UI; the outcome arrives later on a completion stream.
func (d *Driver) PromptPurchase(
	ctx context.Context, kind domain.Kind, requester domain.Requester, id int64,
) error {
	req := promptRequest{
		Kind:          string(kind),
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		ItemID:        id,
	}
	if err := d.post(ctx, "/v1/prompts", req); err != nil {
		return fmt.Errorf("prompt purchase %s:%d: %w", kind, id, err)
	}
	return nil
}

// PromptPremium implements platform.Prompter.
func (d *Driver) PromptPremium(ctx context.Context, requester domain.Requester, planID int64) error {
	req := promptRequest{
		Kind:          "premium",
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		ItemID:        planID,
	}
	if err := d.post(ctx, "/v1/prompts/premium", req); err != nil {
		return fmt.Errorf("prompt premium: %w", err)
	}
	return nil
}

// CancelSubscription implements platform.Prompter.
func (d *Driver) CancelSubscription(
	ctx context.Context, requester domain.Requester, subscriptionID int64,
) error {
	req := promptRequest{
		Kind:          string(domain.KindSubscription),
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		ItemID:        subscriptionID,
	}
	if err := d.post(ctx, "/v1/prompts/subscription-cancel", req); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return nil
}

// ProductInfo implements platform.CatalogReader.
func (d *Driver) ProductInfo(
	ctx context.Context, id int64, infoType domain.InfoType,
) (domain.ProductInfo, error) {
	var dto productInfoDTO
	path := fmt.Sprintf("/v1/catalog/%d?type=%s", id, infoType)
	if err := d.get(ctx, path, &dto); err != nil {
		return domain.ProductInfo{}, fmt.Errorf("product info %d: %w", id, err)
	}
	return dto.toDomain(), nil
}

func (d *Driver) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", platform.ErrInvalidArgument)
	}
	return d.do(req, out)
}

func (d *Driver) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", platform.ErrInvalidArgument)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", platform.ErrInvalidArgument)
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req, nil)
}

func (d *Driver) do(req *http.Request, out any) error {
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, platform.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", platform.ErrUnavailable)
	}
	return nil
}

// classifyStatus maps gateway HTTP statuses onto platform sentinels:
// 5xx is a communication failure, 404 is a missing product, any other
// non-2xx is a rejected call.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return platform.ErrProductNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("gateway status %d: %w", resp.StatusCode, platform.ErrUnavailable)
	default:
		detail := readErrorDetail(resp.Body)
		if detail != "" {
			return fmt.Errorf("gateway status %d: %s: %w",
				resp.StatusCode, detail, platform.ErrInvalidArgument)
		}
		return fmt.Errorf("gateway status %d: %w", resp.StatusCode, platform.ErrInvalidArgument)
	}
}

// readErrorDetail extracts the "message" field from a JSON error body.
func readErrorDetail(r io.Reader) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if json.NewDecoder(io.LimitReader(r, 4096)).Decode(&parsed) == nil {
		return parsed.Message
	}
	return ""
}
