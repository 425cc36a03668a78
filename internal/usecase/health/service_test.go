package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPlatform struct {
	err error
}

func (m *mockPlatform) WaitForReady(_ context.Context, _ time.Duration) error { return m.err }

func TestCheckHealthy(t *testing.T) {
	svc := New(&mockPlatform{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	if r.Checks["platform"] != CheckOK {
		t.Errorf("platform check = %q, want %q", r.Checks["platform"], CheckOK)
	}
}

func TestCheckPlatformDown(t *testing.T) {
	svc := New(&mockPlatform{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("Status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["platform"] != CheckError {
		t.Errorf("platform check = %q, want %q", r.Checks["platform"], CheckError)
	}
}
