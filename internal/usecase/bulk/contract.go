package bulk

import (
	"context"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

// ItemPrompter issues the prompt for one batch item and reports whether a
// prompt was opened or the item turned out to be already owned.
type ItemPrompter interface {
	Prompt(ctx context.Context, requester domain.Requester, item domain.PurchaseItem) (prompt.Result, error)
}
