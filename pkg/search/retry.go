package search

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
)

// RetryPolicy configures the health-gated write loop. The zero value is not
// usable; start from DefaultRetryPolicy.
type RetryPolicy struct {
	// MaxAttempts is the number of times a write is attempted before its
	// last error is surfaced. Must be at least 1.
	MaxAttempts int

	// Delay is the fixed pause between attempts.
	Delay time.Duration

	// HealthMaxChecks bounds the health probes issued before each write.
	HealthMaxChecks int

	// HealthDelay is the pause between health probes.
	HealthDelay time.Duration
}

// DefaultRetryPolicy mirrors the store defaults: ten attempts ten seconds
// apart, gated by up to ten health probes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     10,
		Delay:           10 * time.Second,
		HealthMaxChecks: 10,
		HealthDelay:     10 * time.Second,
	}
}

// Validate rejects unusable policies. A MaxAttempts below 1 is a configuration
// error, never a silent zero-retry write.
func (p RetryPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&p.HealthMaxChecks, validation.Min(0)),
	)
}

// Writer wraps a Store's mutating operations in the resilient-write protocol:
// wait (best effort) for the store to report at least yellow health, then
// attempt the write up to MaxAttempts times with a fixed delay between
// failures. Reads are not wrapped; they go to the Store directly.
type Writer struct {
	store  Store
	policy RetryPolicy
	logger hclog.Logger
}

// NewWriter validates the policy and builds a Writer.
func NewWriter(store Store, policy RetryPolicy, logger hclog.Logger) (*Writer, error) {
	if err := policy.Validate(); err != nil {
		return nil, &Error{Op: "NewWriter", Err: err, Msg: "invalid retry policy"}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Writer{store: store, policy: policy, logger: logger.Named("writer")}, nil
}

// Index stores a document, retrying per the policy.
func (w *Writer) Index(ctx context.Context, index string, doc Document) (string, error) {
	var docID string
	err := w.do(ctx, "Index", func() error {
		var err error
		docID, err = w.store.Index(ctx, index, doc)
		return err
	})
	return docID, err
}

// Update patches a document, retrying per the policy.
func (w *Writer) Update(ctx context.Context, index, docID string, partial Document) error {
	return w.do(ctx, "Update", func() error {
		return w.store.Update(ctx, index, docID, partial)
	})
}

// Delete removes a document, retrying per the policy.
func (w *Writer) Delete(ctx context.Context, index, docID string) error {
	return w.do(ctx, "Delete", func() error {
		return w.store.Delete(ctx, index, docID)
	})
}

// DeleteByQuery removes matching documents, retrying per the policy.
func (w *Writer) DeleteByQuery(ctx context.Context, index string, query Query) (int64, error) {
	var count int64
	err := w.do(ctx, "DeleteByQuery", func() error {
		var err error
		count, err = w.store.DeleteByQuery(ctx, index, query)
		return err
	})
	return count, err
}

func (w *Writer) do(ctx context.Context, op string, attempt func() error) error {
	w.awaitHealthy(ctx)

	tries := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(w.policy.Delay),
			uint64(w.policy.MaxAttempts-1),
		),
		ctx,
	)
	err := backoff.Retry(func() error {
		tries++
		if err := attempt(); err != nil {
			w.logger.Warn("write attempt failed",
				"op", op, "attempt", tries, "error", err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrWriteFailed, err)}
	}
	return nil
}

// awaitHealthy blocks until the store reports yellow or green status, the
// probe budget runs out, or the context ends. Probe failures count as "not yet
// healthy" and are never propagated: this gate is best effort, the write
// itself decides success.
func (w *Writer) awaitHealthy(ctx context.Context) {
	for i := 0; i < w.policy.HealthMaxChecks; i++ {
		health, err := w.store.Health(ctx)
		if err != nil {
			w.logger.Warn("health check failed", "error", err)
		} else if health.Status == StatusYellow || health.Status == StatusGreen {
			return
		} else {
			w.logger.Info("store not yet healthy, waiting", "status", health.Status)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.policy.HealthDelay):
		}
	}
}
