package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/internal/domain"
)

// RetryingStore wraps a RecordStore with bounded linear-backoff retries for
// transient failures. CompareAndSetStatus is never retried: a timed-out CAS
// may have applied, and blindly re-running a non-idempotent write could mask
// the true outcome.
type RetryingStore struct {
	inner    RecordStore
	attempts int
	backoff  time.Duration
	log      *logrus.Logger
}

func NewRetryingStore(inner RecordStore, attempts int, backoff time.Duration, log *logrus.Logger) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{inner: inner, attempts: attempts, backoff: backoff, log: log}
}

func (s *RetryingStore) Append(ctx context.Context, b *domain.Booking) error {
	return s.retry(ctx, "append", func() error {
		return s.inner.Append(ctx, b)
	})
}

func (s *RetryingStore) ReadAll(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	err := s.retry(ctx, "read all", func() error {
		var err error
		out, err = s.inner.ReadAll(ctx)
		return err
	})
	return out, err
}

func (s *RetryingStore) ReadByKey(ctx context.Context, transactionID string) (*domain.Booking, error) {
	var out *domain.Booking
	err := s.retry(ctx, "read by key", func() error {
		var err error
		out, err = s.inner.ReadByKey(ctx, transactionID)
		return err
	})
	return out, err
}

func (s *RetryingStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	var out *domain.Booking
	err := s.retry(ctx, "find by idempotency key", func() error {
		var err error
		out, err = s.inner.FindByIdempotencyKey(ctx, key)
		return err
	})
	return out, err
}

func (s *RetryingStore) CompareAndSetStatus(ctx context.Context, transactionID string, expected, next domain.BookingStatus) (bool, error) {
	return s.inner.CompareAndSetStatus(ctx, transactionID, expected, next)
}

func (s *RetryingStore) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for i := 0; i < s.attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		// A missing row is an answer, not a transient fault.
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}
		lastErr = err
		if i < s.attempts-1 {
			s.log.WithError(err).WithField("op", op).Warnf("store attempt %d failed, retrying", i+1)
			select {
			case <-time.After(time.Duration(i+1) * s.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("store %s failed after %d attempts: %w", op, s.attempts, lastErr)
}

var _ RecordStore = (*RetryingStore)(nil)
