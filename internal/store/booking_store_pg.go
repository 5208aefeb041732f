package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zvrva/transferbooking/internal/domain"
)

const bookingColumns = `transaction_id, idempotency_key, customer_name, customer_email, customer_phone,
	pickup_location, dropoff_location, pickup_time, passengers, notes, status, raw_payload, submitted_at, updated_at`

type PGBookingStore struct {
	db *pgxpool.Pool
}

func NewPGBookingStore(db *pgxpool.Pool) *PGBookingStore {
	return &PGBookingStore{db: db}
}

func (s *PGBookingStore) Append(ctx context.Context, b *domain.Booking) error {
	return s.db.QueryRow(ctx, `INSERT INTO bookings
		(transaction_id, idempotency_key, customer_name, customer_email, customer_phone,
		 pickup_location, dropoff_location, pickup_time, passengers, notes, status, raw_payload, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING submitted_at, updated_at`,
		b.TransactionID, b.IdempotencyKey, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.PickupLocation, b.DropoffLocation, b.PickupTime, b.Passengers, b.Notes, b.Status, b.RawPayload, b.SubmittedAt).
		Scan(&b.SubmittedAt, &b.UpdatedAt)
}

func (s *PGBookingStore) ReadAll(ctx context.Context) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY submitted_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *PGBookingStore) ReadByKey(ctx context.Context, transactionID string) (*domain.Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE transaction_id=$1`, transactionID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *PGBookingStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key=$1 ORDER BY submitted_at LIMIT 1`, key)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (s *PGBookingStore) CompareAndSetStatus(ctx context.Context, transactionID string, expected, next domain.BookingStatus) (bool, error) {
	cmd, err := s.db.Exec(ctx,
		`UPDATE bookings SET status=$1, updated_at=now() WHERE transaction_id=$2 AND status=$3`,
		next, transactionID, expected)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.TransactionID, &b.IdempotencyKey, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.PickupLocation, &b.DropoffLocation, &b.PickupTime, &b.Passengers, &b.Notes, &b.Status, &b.RawPayload,
		&b.SubmittedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ RecordStore = (*PGBookingStore)(nil)
