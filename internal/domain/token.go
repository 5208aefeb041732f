package domain

import "time"

type DecisionKind string

const (
	DecisionAccept DecisionKind = "accept"
	DecisionDeny   DecisionKind = "deny"
)

// Status maps a decision kind to the booking status it applies.
func (k DecisionKind) Status() BookingStatus {
	if k == DecisionAccept {
		return BookingStatusAccepted
	}
	return BookingStatusDenied
}

// DecisionToken is a one-time credential embedded in an owner-facing email
// link. It has no elapsed-time expiry; validity is governed by the booking's
// current status.
type DecisionToken struct {
	Value         string       `json:"-"`
	Kind          DecisionKind `json:"kind"`
	TransactionID string       `json:"transaction_id"`
	CustomerEmail string       `json:"customer_email"`
	IssuedAt      time.Time    `json:"issued_at"`
	ConsumedAt    *time.Time   `json:"consumed_at,omitempty"`
}
