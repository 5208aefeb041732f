package domain

import "time"

type BookingStatus string

const (
	BookingStatusPendingReview BookingStatus = "PENDING_REVIEW"
	BookingStatusAccepted      BookingStatus = "ACCEPTED"
	BookingStatusDenied        BookingStatus = "DENIED"
)

// Terminal reports whether the status permits no further transition.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusAccepted || s == BookingStatusDenied
}

type Booking struct {
	TransactionID   string
	IdempotencyKey  string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	Passengers      int
	Notes           string
	Status          BookingStatus
	RawPayload      []byte
	SubmittedAt     time.Time
	UpdatedAt       time.Time
}
