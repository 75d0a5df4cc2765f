package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestDispatcherRunsTask(t *testing.T) {
	d := NewDispatcher(context.Background())

	var calls int32
	d.Enqueue("test-task", fastPolicy(3), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, d.FailedTasks())
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(context.Background())

	var calls int32
	d.Enqueue("flaky-task", fastPolicy(3), func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Empty(t, d.FailedTasks())
}

func TestDispatcherAbandonsAfterMaxAttempts(t *testing.T) {
	d := NewDispatcher(context.Background())

	var calls int32
	d.Enqueue("doomed-task", fastPolicy(3), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("still broken")
	})
	d.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	failed := d.FailedTasks()
	require.Len(t, failed, 1)
	assert.Equal(t, "doomed-task", failed[0].Name)
	assert.Equal(t, 3, failed[0].Attempts)
	assert.Equal(t, "still broken", failed[0].LastError)
}

func TestDispatcherPermanentErrorShortCircuits(t *testing.T) {
	d := NewDispatcher(context.Background())

	var calls int32
	d.Enqueue("permanent-task", fastPolicy(3), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("no such room"))
	})
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "permanent failures must not be retried")

	failed := d.FailedTasks()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Attempts)
}

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("boom")

	assert.Nil(t, Permanent(nil))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.False(t, IsPermanent(base))
	assert.ErrorIs(t, Permanent(base), base)
}

func TestRetryDelaySchedule(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}

	assert.Equal(t, 500*time.Millisecond, retryDelay(policy, 1))
	assert.Equal(t, 1*time.Second, retryDelay(policy, 2))
	assert.Equal(t, 2*time.Second, retryDelay(policy, 3))
	// Backoff clamps at MaxDelay.
	assert.Equal(t, 10*time.Second, retryDelay(policy, 10))
}

func TestDispatcherZeroPolicyFallsBackToDefault(t *testing.T) {
	d := NewDispatcher(context.Background())

	done := make(chan struct{})
	d.Enqueue("default-policy", RetryPolicy{}, func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran under the default policy")
	}
	d.Wait()
}

func TestDispatcherStopsRetryingWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(ctx)

	var calls int32
	d.Enqueue("cancelled-task", RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
	}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("transient")
	})

	// Give the first attempt a moment to fail, then cancel during backoff.
	time.Sleep(50 * time.Millisecond)
	cancel()
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, d.FailedTasks(), 1)
}
