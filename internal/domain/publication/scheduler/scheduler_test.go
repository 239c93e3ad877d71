package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RefreshesUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	s := New(RefresherFunc(func(ctx context.Context) error {
		if calls.Add(1)%2 == 0 {
			return errors.New("backend down")
		}
		return nil
	}), 5*time.Millisecond, discardLogger())

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestScheduler_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(RefresherFunc(func(context.Context) error { return nil }), time.Hour, discardLogger())
	s.Start(ctx)
	cancel()
	s.Stop()
}

func TestScheduler_RestartsAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	s := New(RefresherFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), 5*time.Millisecond, discardLogger())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	stopped := calls.Load()
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= stopped+2 }, time.Second, time.Millisecond)
	s.Stop()
}
