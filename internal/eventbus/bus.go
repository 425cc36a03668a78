// Package eventbus normalizes the platform's native purchase-completion
// streams into one subscribe/unsubscribe contract.
//
// The platform broadcasts every completion to all listeners of a stream;
// it has no notion of "the purchase this caller is waiting on". The bus
// therefore keys its registration table by subscription handle and lets
// every entry carry its own predicate, so a one-shot waiter only fires
// for the exact (requester, item) pair it awaits.
package eventbus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kailas-cloud/marketgate/internal/platform"
)

// Stream identifies one normalized completion stream.
type Stream string

// Normalized completion streams.
const (
	StreamAsset        Stream = "asset"
	StreamPass         Stream = "pass"
	StreamBundle       Stream = "bundle"
	StreamProduct      Stream = "product"
	StreamSubscription Stream = "subscription"
)

// Event is the uniform shape of a completion notification.
// CurrencySpent is populated on the product stream only.
type Event struct {
	Stream        Stream
	RequesterID   int64
	ItemID        int64
	Purchased     bool
	CurrencySpent int64
}

// Handler consumes a matching event.
type Handler func(Event)

// Predicate filters events before delivery. A nil predicate matches all.
type Predicate func(Event) bool

// ForPurchase is the predicate a one-shot waiter uses: it matches only
// the completion of one specific item for one specific requester.
func ForPurchase(requesterID, itemID int64) Predicate {
	return func(e Event) bool {
		return e.RequesterID == requesterID && e.ItemID == itemID
	}
}

type entry struct {
	pred    Predicate
	handler Handler
	once    bool

	// mu orders deliveries against Close: a delivery holds it for the
	// duration of the handler call, Close sets closed under it.
	mu     sync.Mutex
	closed bool
}

// deliver invokes the handler unless the entry was closed first. Delivery
// and Close are mutually exclusive per entry, so once Close has returned
// the handler can never fire again.
func (e *entry) deliver(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.handler(ev)
}

// Bus is an explicitly owned event bus instance. Its lifecycle is tied to
// the client that created it; there is no package-level registry.
type Bus struct {
	mu   sync.RWMutex
	subs map[Stream]map[uuid.UUID]*entry
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Stream]map[uuid.UUID]*entry)}
}

// Attach registers the bus as the consumer of the platform's native
// callback slots, fanning each stream out to all matching subscriptions.
func (b *Bus) Attach(n platform.Notifier) {
	n.OnAssetPurchased(func(requesterID, assetID int64, purchased bool) {
		b.Publish(Event{Stream: StreamAsset, RequesterID: requesterID, ItemID: assetID, Purchased: purchased})
	})
	n.OnPassPurchased(func(requesterID, passID int64, purchased bool) {
		b.Publish(Event{Stream: StreamPass, RequesterID: requesterID, ItemID: passID, Purchased: purchased})
	})
	n.OnBundlePurchased(func(requesterID, bundleID int64, purchased bool) {
		b.Publish(Event{Stream: StreamBundle, RequesterID: requesterID, ItemID: bundleID, Purchased: purchased})
	})
	n.OnProductPurchased(func(requesterID, productID, currencySpent int64, purchased bool) {
		b.Publish(Event{
			Stream: StreamProduct, RequesterID: requesterID, ItemID: productID,
			Purchased: purchased, CurrencySpent: currencySpent,
		})
	})
	n.OnSubscriptionPurchased(func(requesterID, subscriptionID int64, purchased bool) {
		b.Publish(Event{
			Stream: StreamSubscription, RequesterID: requesterID,
			ItemID: subscriptionID, Purchased: purchased,
		})
	})
}

// Subscribe registers a handler for a stream. The returned handle owns the
// registration; closing it is the only way to release it.
func (b *Bus) Subscribe(stream Stream, pred Predicate, handler Handler) *Subscription {
	return b.add(stream, pred, handler, false)
}

// SubscribeOnce registers a handler removed automatically after its first
// matching delivery.
func (b *Bus) SubscribeOnce(stream Stream, pred Predicate, handler Handler) *Subscription {
	return b.add(stream, pred, handler, true)
}

func (b *Bus) add(stream Stream, pred Predicate, handler Handler, once bool) *Subscription {
	id := uuid.New()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[stream] == nil {
		b.subs[stream] = make(map[uuid.UUID]*entry)
	}
	b.subs[stream][id] = &entry{pred: pred, handler: handler, once: once}

	return &Subscription{bus: b, stream: stream, id: id}
}

// Publish delivers an event to every matching subscription independently.
// One-shot entries are removed before their handler runs, so a second
// publish of the same event can never reach them.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	entries := b.subs[e.Stream]
	matched := make([]*entry, 0, len(entries))
	for id, ent := range entries {
		if ent.pred != nil && !ent.pred(e) {
			continue
		}
		matched = append(matched, ent)
		if ent.once {
			delete(entries, id)
		}
	}
	b.mu.Unlock()

	for _, ent := range matched {
		ent.deliver(e)
	}
}

func (b *Bus) remove(stream Stream, id uuid.UUID) {
	b.mu.Lock()
	ent := b.subs[stream][id]
	delete(b.subs[stream], id)
	b.mu.Unlock()

	if ent != nil {
		ent.mu.Lock()
		ent.closed = true
		ent.mu.Unlock()
	}
}

// Len reports the number of live registrations for a stream.
func (b *Bus) Len(stream Stream) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[stream])
}

// Subscription is a disposable handle owning exactly one registration.
type Subscription struct {
	bus    *Bus
	stream Stream
	id     uuid.UUID
}

// Close releases the registration. Once Close returns, the handler is
// guaranteed not to fire; a delivery already in flight is waited out.
// Closing an already-closed handle is a no-op. Do not call Close from
// inside the subscription's own handler.
func (s *Subscription) Close() {
	s.bus.remove(s.stream, s.id)
}
