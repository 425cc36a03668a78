// Package bulk sequences a set of heterogeneous purchase items for one
// requester, awaits each item's completion notification, and aggregates
// the per-item outcomes into one terminal batch result.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/domain/batch"
	"github.com/kailas-cloud/marketgate/internal/eventbus"
	"github.com/kailas-cloud/marketgate/internal/metrics"
	"github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

// Validation errors: these reject the invocation before any prompt is
// issued; no batch result is produced for them.
var (
	// ErrInvalidRequester signals a requester without a usable id.
	ErrInvalidRequester = errors.New("bulk: requester id required")
	// ErrDuplicateItem signals the same item listed twice in one batch.
	ErrDuplicateItem = errors.New("bulk: duplicate item in batch")
	// ErrBatchTooLarge signals a batch exceeding the configured size cap.
	ErrBatchTooLarge = errors.New("bulk: batch exceeds max size")
)

// Options tunes one batch invocation.
type Options struct {
	// StopOnFailure aborts the remaining items on the first outcome that
	// is not a purchase.
	StopOnFailure bool
	// ItemTimeout bounds the wait for each item's completion
	// notification. Zero falls back to the service default; if that is
	// also zero the wait is unbounded (until ctx is cancelled).
	ItemTimeout time.Duration
}

// Service is the bulk purchase orchestrator.
type Service struct {
	prompter ItemPrompter
	bus      *eventbus.Bus
	logger   *zap.Logger
	locks    *keyedMutex
	complete *listeners

	defaultTimeout time.Duration
	maxBatchSize   int
}

// New creates a bulk service.
func New(prompter ItemPrompter, bus *eventbus.Bus, logger *zap.Logger) *Service {
	return &Service{
		prompter: prompter,
		bus:      bus,
		logger:   logger,
		locks:    newKeyedMutex(),
		complete: newListeners(),
	}
}

// WithDefaultTimeout sets the per-item wait applied when an invocation
// does not specify its own. Zero keeps the indefinite wait.
func (s *Service) WithDefaultTimeout(d time.Duration) *Service {
	s.defaultTimeout = d
	return s
}

// WithMaxBatchSize caps the number of items accepted per invocation.
// Zero disables the cap.
func (s *Service) WithMaxBatchSize(n int) *Service {
	s.maxBatchSize = n
	return s
}

// OnComplete registers a listener invoked exactly once per terminated
// batch. The returned handle releases the registration.
func (s *Service) OnComplete(fn func(batch.Result)) *CompletionListener {
	return s.complete.add(fn)
}

// Run processes the items sequentially, one prompt at a time: the platform
// supports a single active prompt per requester session, so items are
// never prompted concurrently. Batches for the same requester are
// serialized against each other; batches for different requesters run
// independently.
//
// Run returns a terminal batch result for every accepted invocation; only
// malformed input is rejected with an error. Cancelling ctx aborts the
// batch after disposing the outstanding subscription.
func (s *Service) Run(
	ctx context.Context,
	requester domain.Requester,
	items []domain.PurchaseItem,
	opts Options,
) (batch.Result, error) {
	if err := s.validate(requester, items); err != nil {
		return batch.Result{}, err
	}
	if opts.ItemTimeout == 0 {
		opts.ItemTimeout = s.defaultTimeout
	}

	// Empty batch: vacuously successful, nothing to prompt.
	if len(items) == 0 {
		res := batch.Finalize(requester, nil)
		s.finish(res)
		return res, nil
	}

	unlock := s.locks.lock(requester.ID)
	defer unlock()

	outcomes := make([]batch.Outcome, 0, len(items))
	aborted := false

	for _, item := range items {
		outcome, cancelled := s.runItem(ctx, requester, item, opts)
		if cancelled {
			aborted = true
			break
		}

		outcomes = append(outcomes, outcome)
		metrics.PurchaseOutcomesTotal.
			WithLabelValues(string(item.Kind), string(outcome.Status())).Inc()

		if opts.StopOnFailure && outcome.Status() != batch.StatusPurchased {
			s.logger.Info("Aborting batch on first failure",
				zap.Int64("requester_id", requester.ID),
				zap.String("item", item.String()),
				zap.String("status", string(outcome.Status())),
			)
			aborted = true
			break
		}
	}

	var res batch.Result
	if aborted {
		res = batch.FinalizeAborted(requester, outcomes)
	} else {
		res = batch.Finalize(requester, outcomes)
	}
	s.finish(res)
	return res, nil
}

// runItem prompts one item and suspends until its completion notification,
// its timeout, or ctx cancellation. The second return value is true only
// for ctx cancellation, which aborts the whole batch without an outcome
// for the current item.
func (s *Service) runItem(
	ctx context.Context,
	requester domain.Requester,
	item domain.PurchaseItem,
	opts Options,
) (batch.Outcome, bool) {
	// Subscribe before prompting: the notification may race the prompt
	// call's return. The channel is buffered and the subscription is
	// one-shot, so a late delivery can never block or double-fire.
	ch := make(chan eventbus.Event, 1)
	sub := s.bus.SubscribeOnce(
		streamFor(item.Kind),
		eventbus.ForPurchase(requester.ID, item.ID),
		func(e eventbus.Event) { ch <- e },
	)

	promptRes, err := s.prompter.Prompt(ctx, requester, item)
	if err != nil {
		// The prompt never reached the platform UI; no notification will
		// arrive, so resolve immediately instead of waiting for one.
		sub.Close()
		return batch.NewOutcome(item, batch.StatusErrored, err.Error()), false
	}
	if promptRes == prompt.ResultAlreadyOwned {
		sub.Close()
		return batch.NewOutcome(item, batch.StatusPurchased, "already owned"), false
	}

	var timeout <-chan time.Time
	if opts.ItemTimeout > 0 {
		timer := time.NewTimer(opts.ItemTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e := <-ch:
		if e.Purchased {
			return batch.NewOutcome(item, batch.StatusPurchased, ""), false
		}
		return batch.NewOutcome(item, batch.StatusDeclined, ""), false
	case <-timeout:
		// Dispose immediately so a stale handler cannot fire later.
		sub.Close()
		return batch.NewOutcome(item, batch.StatusTimedOut, ""), false
	case <-ctx.Done():
		sub.Close()
		return batch.Outcome{}, true
	}
}

// finish emits the terminal result exactly once per batch.
func (s *Service) finish(res batch.Result) {
	metrics.BatchesTotal.WithLabelValues(string(res.Overall())).Inc()
	s.complete.emit(res)
}

func (s *Service) validate(requester domain.Requester, items []domain.PurchaseItem) error {
	if requester.ID <= 0 {
		return ErrInvalidRequester
	}
	if s.maxBatchSize > 0 && len(items) > s.maxBatchSize {
		return fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, len(items), s.maxBatchSize)
	}

	seen := make(map[domain.PurchaseItem]struct{}, len(items))
	for _, item := range items {
		if _, err := domain.ParseKind(string(item.Kind)); err != nil {
			return err
		}
		if _, dup := seen[item]; dup {
			return fmt.Errorf("%s: %w", item, ErrDuplicateItem)
		}
		seen[item] = struct{}{}
	}
	return nil
}

func streamFor(kind domain.Kind) eventbus.Stream {
	switch kind {
	case domain.KindAsset:
		return eventbus.StreamAsset
	case domain.KindPass:
		return eventbus.StreamPass
	case domain.KindBundle:
		return eventbus.StreamBundle
	case domain.KindProduct:
		return eventbus.StreamProduct
	case domain.KindSubscription:
		return eventbus.StreamSubscription
	default:
		// validate rejects unknown kinds before runItem sees them.
		return eventbus.StreamAsset
	}
}

// CompletionListener is a disposable handle for one OnComplete registration.
type CompletionListener struct {
	owner *listeners
	id    uuid.UUID
}

// Close releases the registration; closing twice is a no-op.
func (l *CompletionListener) Close() {
	l.owner.remove(l.id)
}
