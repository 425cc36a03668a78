package marketgate

import (
	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/domain/batch"
	"github.com/kailas-cloud/marketgate/internal/eventbus"
	"github.com/kailas-cloud/marketgate/internal/usecase/bulk"
	"github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

// Requester identifies who a prompt or batch is issued for.
type Requester = domain.Requester

// Kind identifies the purchasable unit type of an item.
type Kind = domain.Kind

// Purchasable kinds.
const (
	KindAsset        = domain.KindAsset
	KindPass         = domain.KindPass
	KindProduct      = domain.KindProduct
	KindBundle       = domain.KindBundle
	KindSubscription = domain.KindSubscription
)

// PurchaseItem names one purchasable unit inside a batch.
type PurchaseItem = domain.PurchaseItem

// InfoType selects the catalog namespace a product id is resolved in.
type InfoType = domain.InfoType

// Catalog namespaces.
const (
	InfoAsset        = domain.InfoAsset
	InfoProduct      = domain.InfoProduct
	InfoPass         = domain.InfoPass
	InfoBundle       = domain.InfoBundle
	InfoSubscription = domain.InfoSubscription
)

// ProductInfo is a catalog snapshot of one product.
type ProductInfo = domain.ProductInfo

// PromptResult reports what a prompt call actually did.
type PromptResult = prompt.Result

// Prompt outcomes.
const (
	PromptIssued       = prompt.ResultPrompted
	PromptAlreadyOwned = prompt.ResultAlreadyOwned
)

// Event is one normalized purchase completion notification.
type Event = eventbus.Event

// Subscription is a disposable handle for one notification registration.
type Subscription = eventbus.Subscription

// BulkOptions tunes one bulk purchase invocation.
type BulkOptions = bulk.Options

// CompletionListener is a disposable handle for one OnBulkComplete
// registration.
type CompletionListener = bulk.CompletionListener

// BatchResult is the terminal outcome of one bulk purchase.
type BatchResult = batch.Result

// BatchOutcome is the resolution of one item inside a batch.
type BatchOutcome = batch.Outcome

// ItemStatus is the terminal status of one batch item.
type ItemStatus = batch.ItemStatus

// Per-item statuses.
const (
	StatusPurchased = batch.StatusPurchased
	StatusDeclined  = batch.StatusDeclined
	StatusTimedOut  = batch.StatusTimedOut
	StatusErrored   = batch.StatusErrored
)

// Overall is the terminal status of a whole batch.
type Overall = batch.Overall

// Batch terminal statuses.
const (
	AllPurchased = batch.AllPurchased
	Partial      = batch.Partial
	AllFailed    = batch.AllFailed
	Aborted      = batch.Aborted
)
