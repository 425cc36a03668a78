// Package safecall is the single gate through which platform calls are
// made. It turns driver panics and transport failures into typed
// CallErrors so one bad call can never take a batch down with it.
package safecall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/marketgate/internal/metrics"
	"github.com/kailas-cloud/marketgate/internal/platform"
)

// CallError is the typed failure of a single platform call.
// Retriable reports whether the caller may reasonably try again:
// communication failures are retriable, rejected arguments are not.
type CallError struct {
	Op        string
	Message   string
	Retriable bool
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("platform call %s: %s", e.Op, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

// AsCallError extracts a *CallError from an error chain.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	ok := errors.As(err, &ce)
	return ce, ok
}

// Do executes exactly one platform call. A panic inside the driver is
// recovered and reported as a non-retriable CallError; an error return is
// classified by the platform sentinels it wraps. platform.ErrProductNotFound
// passes through untouched: it is an absent result, not a failure.
// There is no retry loop here; callers decide whether to retry.
func Do[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (result T, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &CallError{
				Op:        op,
				Message:   fmt.Sprintf("panic: %v", r),
				Retriable: false,
			}
		}
		observe(op, start, err)
	}()

	result, err = fn(ctx)
	if err != nil {
		if errors.Is(err, platform.ErrProductNotFound) {
			return result, err
		}
		err = classify(op, err)
	}
	return result, err
}

// DoVoid executes a platform call that yields no result.
func DoVoid(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func classify(op string, err error) *CallError {
	retriable := false
	switch {
	case errors.Is(err, platform.ErrUnavailable):
		retriable = true
	case errors.Is(err, context.DeadlineExceeded):
		retriable = true
	case errors.Is(err, platform.ErrInvalidArgument):
		retriable = false
	}
	return &CallError{
		Op:        op,
		Message:   err.Error(),
		Retriable: retriable,
		Err:       err,
	}
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, platform.ErrProductNotFound) {
		status = "error"
	}
	metrics.PlatformCallsTotal.WithLabelValues(op, status).Inc()
	metrics.PlatformCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
