// Package tasks runs fire-and-forget background work with bounded retries.
// It backs the read-state tracker and notification bookkeeping: side-channel
// work that must never block a request and whose failures stay internal.
package tasks

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"
)

// RetryPolicy controls how a failed task is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries transient failures up to 3 attempts with
// exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// TaskFunc is one unit of background work.
type TaskFunc func(ctx context.Context) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable: malformed input, vanished
// entities, anything another attempt cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// FailedTask records a task that exhausted its retries or failed
// permanently, for operational visibility only. No user-facing error is
// ever produced from this path.
type FailedTask struct {
	Name      string    `json:"name"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

const maxFailedRecords = 100

// Dispatcher schedules background tasks on their own goroutines.
type Dispatcher struct {
	baseCtx context.Context
	wg      sync.WaitGroup

	mu     sync.Mutex
	failed []FailedTask
}

func NewDispatcher(ctx context.Context) *Dispatcher {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Dispatcher{baseCtx: ctx}
}

// Enqueue schedules fn to run in the background under the given policy and
// returns immediately.
func (d *Dispatcher) Enqueue(name string, policy RetryPolicy, fn TaskFunc) {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(name, policy, fn)
	}()
}

func (d *Dispatcher) run(name string, policy RetryPolicy, fn TaskFunc) {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := fn(d.baseCtx)
		if err == nil {
			return
		}
		lastErr = err

		if IsPermanent(err) {
			log.Printf("[tasks] %s failed permanently: %v", name, err)
			d.recordFailure(name, attempt, err)
			return
		}

		if attempt < policy.MaxAttempts {
			delay := retryDelay(policy, attempt)
			log.Printf("[tasks] %s failed (attempt %d/%d), retrying in %v: %v",
				name, attempt, policy.MaxAttempts, delay, err)

			select {
			case <-d.baseCtx.Done():
				d.recordFailure(name, attempt, d.baseCtx.Err())
				return
			case <-time.After(delay):
			}
		}
	}

	log.Printf("[tasks] %s abandoned after %d attempts: %v", name, policy.MaxAttempts, lastErr)
	d.recordFailure(name, policy.MaxAttempts, lastErr)
}

func (d *Dispatcher) recordFailure(name string, attempts int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failed = append(d.failed, FailedTask{
		Name:      name,
		Attempts:  attempts,
		LastError: err.Error(),
		FailedAt:  time.Now().UTC(),
	})
	if len(d.failed) > maxFailedRecords {
		d.failed = d.failed[len(d.failed)-maxFailedRecords:]
	}
}

// FailedTasks returns a snapshot of recent abandoned tasks.
func (d *Dispatcher) FailedTasks() []FailedTask {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]FailedTask, len(d.failed))
	copy(out, d.failed)
	return out
}

// Wait blocks until all enqueued tasks have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// retryDelay computes the exponential backoff delay for the given attempt.
func retryDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	if time.Duration(delay) > policy.MaxDelay {
		return policy.MaxDelay
	}
	return time.Duration(delay)
}

var (
	defaultDispatcher *Dispatcher = NewDispatcher(context.Background())
	defaultMu         sync.Mutex
)

// Init replaces the process-wide dispatcher, typically with one bound to
// the server's base context.
func Init(ctx context.Context) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDispatcher = NewDispatcher(ctx)
}

// Default returns the process-wide dispatcher.
func Default() *Dispatcher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultDispatcher
}

// Enqueue schedules a task on the process-wide dispatcher.
func Enqueue(name string, policy RetryPolicy, fn TaskFunc) {
	Default().Enqueue(name, policy, fn)
}
