package marketgate

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL string
	apiKey  string

	redisAddrs    []string
	redisPassword string
	channelPrefix string

	httpTimeout      time.Duration
	readinessTimeout time.Duration

	infoCacheTTL time.Duration

	bulkItemTimeout time.Duration
	maxBatchSize    int

	logger *zap.Logger
}

// WithGateway points the client at the platform gateway REST API.
// Required.
func WithGateway(baseURL, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.apiKey = apiKey
	})
}

// WithNotificationFeed configures the Redis connection carrying the
// purchase completion channels. Required.
func WithNotificationFeed(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithChannelPrefix overrides the pub/sub channel prefix.
// Default: "marketplace:".
func WithChannelPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.channelPrefix = prefix
	})
}

// WithHTTPTimeout bounds individual gateway REST calls. Default: 15s.
func WithHTTPTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpTimeout = d
	})
}

// WithReadinessTimeout bounds the initial feed readiness check.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithInfoCacheTTL enables the Redis read-through cache for product info
// lookups. Zero (the default) disables caching.
func WithInfoCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.infoCacheTTL = ttl
	})
}

// WithBulkDefaults tunes bulk purchases: the default per-item wait for a
// completion notification and the maximum items per batch. Zero values
// keep the built-in defaults (unbounded wait, no size cap).
func WithBulkDefaults(itemTimeout time.Duration, maxBatchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.bulkItemTimeout = itemTimeout
		c.maxBatchSize = maxBatchSize
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
