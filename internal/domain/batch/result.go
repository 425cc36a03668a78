// Package batch holds the value types describing a bulk purchase outcome.
package batch

import "github.com/kailas-cloud/marketgate/internal/domain"

// ItemStatus is the resolution of a single batch item.
type ItemStatus string

// Item status values.
const (
	StatusPurchased ItemStatus = "purchased"
	StatusDeclined  ItemStatus = "declined"
	StatusTimedOut  ItemStatus = "timed_out"
	StatusErrored   ItemStatus = "errored"
)

// Overall is the terminal status of a whole batch.
type Overall string

// Batch terminal status values.
const (
	AllPurchased Overall = "all_purchased"
	Partial      Overall = "partial"
	AllFailed    Overall = "all_failed"
	Aborted      Overall = "aborted"
)

// Outcome is the resolution of one item in a batch. Append-only: once
// recorded it is never mutated.
type Outcome struct {
	item   domain.PurchaseItem
	status ItemStatus
	detail string
}

// NewOutcome creates an item outcome.
func NewOutcome(item domain.PurchaseItem, status ItemStatus, detail string) Outcome {
	return Outcome{item: item, status: status, detail: detail}
}

// Item returns the purchase item this outcome resolves.
func (o Outcome) Item() domain.PurchaseItem { return o.item }

// Status returns the item resolution.
func (o Outcome) Status() ItemStatus { return o.status }

// Detail returns the optional human-readable detail (error text, decline
// reason), empty when there is nothing to add.
func (o Outcome) Detail() string { return o.detail }

// Result is the terminal report of one bulk purchase invocation.
// Computed once at batch termination, immutable thereafter.
type Result struct {
	requester domain.Requester
	outcomes  []Outcome
	overall   Overall
}

// Finalize computes the terminal result for a completed batch.
// An empty batch is vacuously AllPurchased: no item failed.
func Finalize(requester domain.Requester, outcomes []Outcome) Result {
	purchased := 0
	for _, o := range outcomes {
		if o.status == StatusPurchased {
			purchased++
		}
	}

	overall := Partial
	switch {
	case purchased == len(outcomes):
		overall = AllPurchased
	case purchased == 0:
		overall = AllFailed
	}

	return Result{requester: requester, outcomes: outcomes, overall: overall}
}

// FinalizeAborted computes the terminal result for an aborted batch. The
// outcomes cover only the prefix processed before the abort.
func FinalizeAborted(requester domain.Requester, outcomes []Outcome) Result {
	return Result{requester: requester, outcomes: outcomes, overall: Aborted}
}

// Requester returns the identity the batch was run for.
func (r Result) Requester() domain.Requester { return r.requester }

// Outcomes returns the per-item resolutions in submission order.
func (r Result) Outcomes() []Outcome { return r.outcomes }

// Overall returns the terminal batch status.
func (r Result) Overall() Overall { return r.overall }
