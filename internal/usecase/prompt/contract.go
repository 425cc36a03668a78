package prompt

import (
	"context"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

// OwnershipChecker answers pass ownership queries.
type OwnershipChecker interface {
	HasPass(ctx context.Context, requesterID, passID int64) (bool, error)
}

// Prompter opens platform purchase prompt UIs.
type Prompter interface {
	PromptPurchase(ctx context.Context, kind domain.Kind, requester domain.Requester, id int64) error
	PromptPremium(ctx context.Context, requester domain.Requester, planID int64) error
	CancelSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error
}
