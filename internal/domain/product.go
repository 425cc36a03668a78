package domain

import (
	"fmt"
	"time"
)

// InfoType selects which catalog namespace a product id is resolved in.
type InfoType string

// Info types accepted by the platform's product catalog.
const (
	InfoAsset        InfoType = "asset"
	InfoProduct      InfoType = "product"
	InfoPass         InfoType = "pass"
	InfoBundle       InfoType = "bundle"
	InfoSubscription InfoType = "subscription"
)

// ParseInfoType converts a wire-level info type string into an InfoType.
func ParseInfoType(s string) (InfoType, error) {
	switch InfoType(s) {
	case InfoAsset, InfoProduct, InfoPass, InfoBundle, InfoSubscription:
		return InfoType(s), nil
	default:
		return "", fmt.Errorf("info type %q: %w", s, ErrUnknownInfoType)
	}
}

// Creator describes who published a catalog item.
type Creator struct {
	ID   int64
	Name string
	Type string
}

// ProductInfo is a read-only metadata snapshot for one catalog item.
// It carries no identity beyond the queried id and no lifecycle beyond
// the call that produced it.
type ProductInfo struct {
	ID           int64
	Name         string
	Description  string
	ItemType     InfoType
	Price        int64
	IsForSale    bool
	IsPublicSale bool
	Creator      Creator
	Created      time.Time
	Updated      time.Time
}
