package product

import (
	"context"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

// CatalogReader fetches product metadata from the platform.
type CatalogReader interface {
	ProductInfo(ctx context.Context, id int64, infoType domain.InfoType) (domain.ProductInfo, error)
}
