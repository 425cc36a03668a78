package platform

import "errors"

// Sentinel errors classifying platform failures. Drivers wrap their
// transport-level errors with exactly one of these so safecall can decide
// retriability without knowing the transport.
var (
	// ErrUnavailable marks communication failures: the platform could not
	// be reached or answered with a server-side error. Retriable.
	ErrUnavailable = errors.New("platform: unavailable")
	// ErrInvalidArgument marks calls the platform rejected as malformed.
	// Not retriable.
	ErrInvalidArgument = errors.New("platform: invalid argument")
	// ErrProductNotFound marks a catalog query for a nonexistent product.
	// Not a failure: resolvers translate it into an absent result.
	ErrProductNotFound = errors.New("platform: product not found")
)

// Operation names used for error context and call metrics.
const (
	OpHasPass            = "has_pass"
	OpPromptPurchase     = "prompt_purchase"
	OpPromptPremium      = "prompt_premium"
	OpCancelSubscription = "cancel_subscription"
	OpProductInfo        = "product_info"
)
