// Package prompt issues individual purchase prompts through safecall,
// pre-checking ownership where the platform allows it.
package prompt

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/metrics"
	"github.com/kailas-cloud/marketgate/internal/platform"
	"github.com/kailas-cloud/marketgate/internal/safecall"
)

// Result reports what a prompt call actually did.
type Result string

const (
	// ResultPrompted means the platform prompt UI was opened; a completion
	// notification will follow.
	ResultPrompted Result = "prompted"
	// ResultAlreadyOwned means the requester already owns the pass and no
	// prompt was issued. No notification will follow.
	ResultAlreadyOwned Result = "already_owned"
)

// Service issues purchase prompts.
type Service struct {
	owns    OwnershipChecker
	prompts Prompter
	logger  *zap.Logger
}

// New creates a prompt service.
func New(owns OwnershipChecker, prompts Prompter, logger *zap.Logger) *Service {
	return &Service{owns: owns, prompts: prompts, logger: logger}
}

// HasPass reports whether the requester owns the pass.
func (s *Service) HasPass(ctx context.Context, requester domain.Requester, passID int64) (bool, error) {
	return safecall.Do(ctx, platform.OpHasPass, func(ctx context.Context) (bool, error) {
		return s.owns.HasPass(ctx, requester.ID, passID)
	})
}

// PromptPass prompts a pass purchase. If the requester already owns the
// pass no prompt is issued and ResultAlreadyOwned is returned. A failed
// ownership check degrades to "assume not owned": a transient check
// failure must never block a legitimate purchase path, so the prompt is
// issued anyway and the failure is logged.
func (s *Service) PromptPass(ctx context.Context, requester domain.Requester, passID int64) (Result, error) {
	owned, err := s.HasPass(ctx, requester, passID)
	switch {
	case err != nil:
		s.logger.Warn("Ownership check failed, assuming not owned",
			zap.Int64("requester_id", requester.ID),
			zap.Int64("pass_id", passID),
			zap.Error(err),
		)
	case owned:
		return ResultAlreadyOwned, nil
	}

	if err := s.issue(ctx, domain.KindPass, requester, passID); err != nil {
		return "", err
	}
	return ResultPrompted, nil
}

// PromptProduct prompts a developer product purchase.
func (s *Service) PromptProduct(ctx context.Context, requester domain.Requester, productID int64) error {
	return s.issue(ctx, domain.KindProduct, requester, productID)
}

// PromptBundle prompts a bundle purchase.
func (s *Service) PromptBundle(ctx context.Context, requester domain.Requester, bundleID int64) error {
	return s.issue(ctx, domain.KindBundle, requester, bundleID)
}

// PromptAsset prompts a plain asset purchase.
func (s *Service) PromptAsset(ctx context.Context, requester domain.Requester, assetID int64) error {
	return s.issue(ctx, domain.KindAsset, requester, assetID)
}

// PromptSubscription prompts a subscription purchase.
func (s *Service) PromptSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error {
	return s.issue(ctx, domain.KindSubscription, requester, subscriptionID)
}

// PromptPremium prompts a premium membership purchase for the given plan.
func (s *Service) PromptPremium(ctx context.Context, requester domain.Requester, planID int64) error {
	err := safecall.DoVoid(ctx, platform.OpPromptPremium, func(ctx context.Context) error {
		return s.prompts.PromptPremium(ctx, requester, planID)
	})
	if err != nil {
		return err
	}
	metrics.PromptsIssuedTotal.WithLabelValues("premium").Inc()
	return nil
}

// CancelSubscription prompts a subscription cancellation.
func (s *Service) CancelSubscription(ctx context.Context, requester domain.Requester, subscriptionID int64) error {
	return safecall.DoVoid(ctx, platform.OpCancelSubscription, func(ctx context.Context) error {
		return s.prompts.CancelSubscription(ctx, requester, subscriptionID)
	})
}

// Prompt dispatches one batch item to the matching prompt operation.
// Pass items go through the ownership pre-check.
func (s *Service) Prompt(ctx context.Context, requester domain.Requester, item domain.PurchaseItem) (Result, error) {
	switch item.Kind {
	case domain.KindPass:
		return s.PromptPass(ctx, requester, item.ID)
	case domain.KindAsset, domain.KindProduct, domain.KindBundle, domain.KindSubscription:
		if err := s.issue(ctx, item.Kind, requester, item.ID); err != nil {
			return "", err
		}
		return ResultPrompted, nil
	default:
		return "", domain.ErrUnknownKind
	}
}

func (s *Service) issue(ctx context.Context, kind domain.Kind, requester domain.Requester, id int64) error {
	err := safecall.DoVoid(ctx, platform.OpPromptPurchase, func(ctx context.Context) error {
		return s.prompts.PromptPurchase(ctx, kind, requester, id)
	})
	if err != nil {
		return err
	}
	metrics.PromptsIssuedTotal.WithLabelValues(string(kind)).Inc()
	return nil
}
