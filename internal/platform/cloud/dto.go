package cloud

import (
	"time"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

// promptRequest is the wire shape for all prompt endpoints.
type promptRequest struct {
	Kind          string `json:"kind"`
	RequesterID   int64  `json:"requesterId"`
	RequesterName string `json:"requesterName,omitempty"`
	ItemID        int64  `json:"itemId"`
}

// productInfoDTO is the catalog record as the gateway serves it.
type productInfoDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ItemType     string    `json:"itemType"`
	Price        int64     `json:"price"`
	IsForSale    bool      `json:"isForSale"`
	IsPublicSale bool      `json:"isPublicSale"`
	Creator      struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"creator"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

func (d productInfoDTO) toDomain() domain.ProductInfo {
	return domain.ProductInfo{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		ItemType:     domain.InfoType(d.ItemType),
		Price:        d.Price,
		IsForSale:    d.IsForSale,
		IsPublicSale: d.IsPublicSale,
		Creator: domain.Creator{
			ID:   d.Creator.ID,
			Name: d.Creator.Name,
			Type: d.Creator.Type,
		},
		Created: d.Created,
		Updated: d.Updated,
	}
}
