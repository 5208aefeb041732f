package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zvrva/transferbooking/internal/domain"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Append(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRecordStore) ReadAll(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockRecordStore) ReadByKey(ctx context.Context, transactionID string) (*domain.Booking, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockRecordStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockRecordStore) CompareAndSetStatus(ctx context.Context, transactionID string, expected, next domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, transactionID, expected, next)
	return args.Bool(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRetryingStore_Append_RecoversFromTransientError(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 3, time.Millisecond, testLogger())

	ctx := context.Background()
	booking := &domain.Booking{TransactionID: "txn-1"}
	inner.On("Append", ctx, booking).Return(assert.AnError).Twice()
	inner.On("Append", ctx, booking).Return(nil).Once()

	err := retrying.Append(ctx, booking)

	assert.NoError(t, err)
	inner.AssertNumberOfCalls(t, "Append", 3)
}

func TestRetryingStore_Append_ExhaustsAttempts(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 3, time.Millisecond, testLogger())

	ctx := context.Background()
	booking := &domain.Booking{TransactionID: "txn-1"}
	inner.On("Append", ctx, booking).Return(assert.AnError).Times(3)

	err := retrying.Append(ctx, booking)

	assert.ErrorIs(t, err, assert.AnError)
	inner.AssertNumberOfCalls(t, "Append", 3)
}

func TestRetryingStore_ReadByKey_MissingRowIsNotRetried(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 3, time.Millisecond, testLogger())

	ctx := context.Background()
	inner.On("ReadByKey", ctx, "txn-gone").Return(nil, domain.ErrTransactionNotFound).Once()

	booking, err := retrying.ReadByKey(ctx, "txn-gone")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	inner.AssertNumberOfCalls(t, "ReadByKey", 1)
}

func TestRetryingStore_FindByIdempotencyKey_Retries(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 2, time.Millisecond, testLogger())

	ctx := context.Background()
	existing := &domain.Booking{TransactionID: "txn-1", IdempotencyKey: "client-key"}
	inner.On("FindByIdempotencyKey", ctx, "client-key").Return(nil, assert.AnError).Once()
	inner.On("FindByIdempotencyKey", ctx, "client-key").Return(existing, nil).Once()

	booking, err := retrying.FindByIdempotencyKey(ctx, "client-key")

	assert.NoError(t, err)
	assert.Equal(t, "txn-1", booking.TransactionID)
}

func TestRetryingStore_CompareAndSetStatus_PassesThrough(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 3, time.Millisecond, testLogger())

	ctx := context.Background()
	inner.On("CompareAndSetStatus", ctx, "txn-1", domain.BookingStatusPendingReview, domain.BookingStatusAccepted).
		Return(false, assert.AnError).Once()

	updated, err := retrying.CompareAndSetStatus(ctx, "txn-1", domain.BookingStatusPendingReview, domain.BookingStatusAccepted)

	assert.False(t, updated)
	assert.ErrorIs(t, err, assert.AnError)
	inner.AssertNumberOfCalls(t, "CompareAndSetStatus", 1)
}

func TestRetryingStore_CancelledContextStopsRetrying(t *testing.T) {
	inner := &MockRecordStore{}
	retrying := NewRetryingStore(inner, 5, 50*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	booking := &domain.Booking{TransactionID: "txn-1"}
	inner.On("Append", ctx, booking).Return(assert.AnError).Run(func(mock.Arguments) {
		cancel()
	})

	err := retrying.Append(ctx, booking)

	assert.ErrorIs(t, err, context.Canceled)
	inner.AssertNumberOfCalls(t, "Append", 1)
}
