package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/marketgate/internal/platform"
)

func TestSubscribeDelivers(t *testing.T) {
	b := New()

	var got []Event
	sub := b.Subscribe(StreamPass, nil, func(e Event) { got = append(got, e) })
	defer sub.Close()

	b.Publish(Event{Stream: StreamPass, RequesterID: 1, ItemID: 111, Purchased: true})
	b.Publish(Event{Stream: StreamProduct, RequesterID: 1, ItemID: 222, Purchased: true})

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	if got[0].ItemID != 111 || !got[0].Purchased {
		t.Errorf("delivered %+v, want pass 111 purchased", got[0])
	}
}

func TestPredicateFiltersForeignPurchases(t *testing.T) {
	b := New()

	var got []Event
	sub := b.Subscribe(StreamPass, ForPurchase(1, 111), func(e Event) { got = append(got, e) })
	defer sub.Close()

	b.Publish(Event{Stream: StreamPass, RequesterID: 2, ItemID: 111, Purchased: true})
	b.Publish(Event{Stream: StreamPass, RequesterID: 1, ItemID: 999, Purchased: true})
	b.Publish(Event{Stream: StreamPass, RequesterID: 1, ItemID: 111, Purchased: false})

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	if got[0].Purchased {
		t.Error("delivered the wrong notification")
	}
}

func TestSubscribeOnceAutoRemoves(t *testing.T) {
	b := New()

	calls := 0
	b.SubscribeOnce(StreamProduct, ForPurchase(1, 222), func(Event) { calls++ })

	e := Event{Stream: StreamProduct, RequesterID: 1, ItemID: 222, Purchased: true}
	b.Publish(e)
	b.Publish(e)

	if calls != 1 {
		t.Fatalf("one-shot handler fired %d times, want 1", calls)
	}
	if n := b.Len(StreamProduct); n != 0 {
		t.Fatalf("Len() = %d after one-shot delivery, want 0", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New()

	calls := 0
	sub := b.Subscribe(StreamBundle, nil, func(Event) { calls++ })
	other := b.Subscribe(StreamBundle, nil, func(Event) {})
	defer other.Close()

	sub.Close()
	sub.Close() // second close must be a no-op

	if n := b.Len(StreamBundle); n != 1 {
		t.Fatalf("Len() = %d, want 1 (unrelated subscription must survive)", n)
	}

	b.Publish(Event{Stream: StreamBundle, RequesterID: 1, ItemID: 5, Purchased: true})
	if calls != 0 {
		t.Error("closed subscription still received an event")
	}
}

func TestConcurrentSubscriptionsAreIndependent(t *testing.T) {
	b := New()

	const n = 16
	var mu sync.Mutex
	counts := make([]int, n)

	subs := make([]*Subscription, n)
	for i := 0; i < n; i++ {
		i := i
		subs[i] = b.Subscribe(StreamAsset, nil, func(Event) {
			mu.Lock()
			counts[i]++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(Event{Stream: StreamAsset, RequesterID: 1, ItemID: 1, Purchased: true})
		}()
	}
	wg.Wait()

	for i, c := range counts {
		if c != 4 {
			t.Errorf("subscription %d received %d events, want 4", i, c)
		}
	}
	for _, s := range subs {
		s.Close()
	}
}

// fakeNotifier records the callbacks Attach registers and lets the test
// drive the raw platform streams.
type fakeNotifier struct {
	asset        platform.AssetHandler
	pass         platform.PassHandler
	bundle       platform.BundleHandler
	product      platform.ProductHandler
	subscription platform.SubscriptionHandler
}

func (f *fakeNotifier) OnAssetPurchased(fn platform.AssetHandler)        { f.asset = fn }
func (f *fakeNotifier) OnPassPurchased(fn platform.PassHandler)         { f.pass = fn }
func (f *fakeNotifier) OnBundlePurchased(fn platform.BundleHandler)     { f.bundle = fn }
func (f *fakeNotifier) OnProductPurchased(fn platform.ProductHandler)   { f.product = fn }
func (f *fakeNotifier) OnSubscriptionPurchased(fn platform.SubscriptionHandler) {
	f.subscription = fn
}

func TestAttachNormalizesStreams(t *testing.T) {
	b := New()
	n := &fakeNotifier{}
	b.Attach(n)

	var got []Event
	for _, s := range []Stream{StreamAsset, StreamPass, StreamBundle, StreamProduct, StreamSubscription} {
		sub := b.Subscribe(s, nil, func(e Event) { got = append(got, e) })
		defer sub.Close()
	}

	n.asset(1, 10, true)
	n.pass(1, 20, false)
	n.bundle(1, 30, true)
	n.product(1, 40, 99, true)
	n.subscription(1, 50, true)

	if len(got) != 5 {
		t.Fatalf("delivered %d events, want 5", len(got))
	}
	if got[3].CurrencySpent != 99 {
		t.Errorf("product event CurrencySpent = %d, want 99", got[3].CurrencySpent)
	}
	if got[1].Purchased {
		t.Error("pass decline lost its purchased=false flag")
	}
}

func TestCloseWaitsForInFlightDelivery(t *testing.T) {
	b := New()

	started := make(chan struct{})
	release := make(chan struct{})
	sub := b.Subscribe(StreamAsset, nil, func(Event) {
		close(started)
		<-release
	})

	go b.Publish(Event{Stream: StreamAsset})
	<-started

	closed := make(chan struct{})
	go func() {
		sub.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a delivery was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the delivery finished")
	}
}

func TestNoDeliveryAfterClose(t *testing.T) {
	b := New()

	var mu sync.Mutex
	delivered := 0
	sub := b.Subscribe(StreamPass, nil, func(Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	sub.Close()
	b.Publish(Event{Stream: StreamPass})

	mu.Lock()
	defer mu.Unlock()
	if delivered != 0 {
		t.Fatalf("delivered %d events after Close, want 0", delivered)
	}
}
