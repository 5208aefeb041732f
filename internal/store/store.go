package store

import (
	"context"

	"github.com/zvrva/transferbooking/internal/domain"
)

// RecordStore abstracts the system of record for booking rows. Implementations
// must provide an atomic CompareAndSetStatus; the status transition invariant
// (PENDING_REVIEW moves exactly once to ACCEPTED or DENIED) depends on it.
type RecordStore interface {
	Append(ctx context.Context, booking *domain.Booking) error
	ReadAll(ctx context.Context) ([]domain.Booking, error)
	// ReadByKey returns domain.ErrTransactionNotFound when no row matches.
	ReadByKey(ctx context.Context, transactionID string) (*domain.Booking, error)
	// FindByIdempotencyKey returns (nil, nil) when no row matches.
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	// CompareAndSetStatus atomically writes next iff the row currently has
	// expected. Returns false without error when the precondition failed.
	CompareAndSetStatus(ctx context.Context, transactionID string, expected, next domain.BookingStatus) (bool, error)
}
