package health

import (
	"context"
	"time"
)

// PlatformChecker checks that the platform gateway and its notification
// feed are reachable.
type PlatformChecker interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
