package infocache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
)

type mockResolver struct {
	info      *domain.ProductInfo
	err       error
	callCount int
}

func (m *mockResolver) GetInfo(_ context.Context, _ int64, _ domain.InfoType) (*domain.ProductInfo, error) {
	m.callCount++
	return m.info, m.err
}

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, errMiss
	}
	return data, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func newCached(inner Resolver, s store) *CachedResolver {
	return newWithStore(inner, s, time.Minute, nil, zap.NewNop())
}

func TestHitSkipsInnerResolver(t *testing.T) {
	inner := &mockResolver{info: &domain.ProductInfo{ID: 5, Name: "Cape"}}
	c := newCached(inner, newMemStore())
	ctx := context.Background()

	first, err := c.GetInfo(ctx, 5, domain.InfoAsset)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	second, err := c.GetInfo(ctx, 5, domain.InfoAsset)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}

	if inner.callCount != 1 {
		t.Errorf("inner resolver called %d times, want 1", inner.callCount)
	}
	if first.Name != second.Name || second.Name != "Cape" {
		t.Errorf("cached snapshot mismatch: %+v vs %+v", first, second)
	}
}

func TestKeysAreTypeScoped(t *testing.T) {
	inner := &mockResolver{info: &domain.ProductInfo{ID: 5}}
	c := newCached(inner, newMemStore())
	ctx := context.Background()

	if _, err := c.GetInfo(ctx, 5, domain.InfoAsset); err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if _, err := c.GetInfo(ctx, 5, domain.InfoBundle); err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}

	if inner.callCount != 2 {
		t.Errorf("inner resolver called %d times, want 2 (distinct info types)", inner.callCount)
	}
}

func TestAbsentProductIsNotCached(t *testing.T) {
	inner := &mockResolver{info: nil}
	c := newCached(inner, newMemStore())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		info, err := c.GetInfo(ctx, 999, domain.InfoAsset)
		if err != nil {
			t.Fatalf("GetInfo() error = %v", err)
		}
		if info != nil {
			t.Fatalf("GetInfo() = %+v, want nil", info)
		}
	}
	if inner.callCount != 2 {
		t.Errorf("inner resolver called %d times, want 2 (absence never cached)", inner.callCount)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func (brokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return context.DeadlineExceeded
}

func TestStoreFailureFallsThrough(t *testing.T) {
	inner := &mockResolver{info: &domain.ProductInfo{ID: 5}}
	c := newCached(inner, brokenStore{})

	info, err := c.GetInfo(context.Background(), 5, domain.InfoAsset)
	if err != nil {
		t.Fatalf("GetInfo() error = %v, a broken cache must not fail the read", err)
	}
	if info == nil || info.ID != 5 {
		t.Fatalf("GetInfo() = %+v, want inner result", info)
	}
}
