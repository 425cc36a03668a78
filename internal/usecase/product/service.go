// Package product resolves catalog metadata through safecall.
package product

import (
	"context"
	"errors"

	"github.com/kailas-cloud/marketgate/internal/domain"
	"github.com/kailas-cloud/marketgate/internal/platform"
	"github.com/kailas-cloud/marketgate/internal/safecall"
)

// Service fetches and shapes product metadata. Pure reads, no caching:
// every call re-queries the platform. Callers needing caching layer it
// externally (see repository/infocache).
type Service struct {
	catalog CatalogReader
}

// New creates a product info service.
func New(catalog CatalogReader) *Service {
	return &Service{catalog: catalog}
}

// GetInfo fetches the metadata snapshot for one catalog item.
// A nonexistent product yields (nil, nil): absence is a valid result,
// distinct from a platform call failure.
func (s *Service) GetInfo(ctx context.Context, id int64, infoType domain.InfoType) (*domain.ProductInfo, error) {
	info, err := safecall.Do(ctx, platform.OpProductInfo, func(ctx context.Context) (domain.ProductInfo, error) {
		return s.catalog.ProductInfo(ctx, id, infoType)
	})
	if err != nil {
		if errors.Is(err, platform.ErrProductNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}
