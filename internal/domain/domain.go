// Package domain holds the core marketgate types shared across layers.
package domain

import "fmt"

// Requester is the identity on whose behalf purchases are prompted.
// It is supplied by the hosting platform and only borrowed here; the ID
// correlates ownership checks with completion notifications.
type Requester struct {
	ID   int64
	Name string
}

// Kind identifies the purchasable unit type of an item.
type Kind string

// Purchase item kinds.
const (
	KindAsset        Kind = "asset"
	KindPass         Kind = "pass"
	KindProduct      Kind = "product"
	KindBundle       Kind = "bundle"
	KindSubscription Kind = "subscription"
)

// ParseKind converts a wire-level kind string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAsset, KindPass, KindProduct, KindBundle, KindSubscription:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("kind %q: %w", s, ErrUnknownKind)
	}
}

// PurchaseItem is one purchasable unit within a batch.
// Immutable once submitted.
type PurchaseItem struct {
	Kind Kind
	ID   int64
}

func (i PurchaseItem) String() string {
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}
