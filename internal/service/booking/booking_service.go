package booking

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/internal/domain"
	"github.com/zvrva/transferbooking/internal/idempotency"
	"github.com/zvrva/transferbooking/internal/kafka"
	"github.com/zvrva/transferbooking/internal/store"
	"github.com/zvrva/transferbooking/internal/token"
	"github.com/zvrva/transferbooking/internal/txid"
)

type BookingUseCase interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	Decide(ctx context.Context, tokenValue string, kind domain.DecisionKind) (*DecisionResult, error)
}

// Locker serializes decision transitions per transaction id.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

type Tokens interface {
	Issue(ctx context.Context, transactionID, customerEmail string) (*token.Pair, error)
	ValidateAndConsume(ctx context.Context, value string, kind domain.DecisionKind) (*domain.DecisionToken, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              store.RecordStore
	backup             store.RecordStore
	locker             Locker
	tokens             Tokens
	producer           Producer
	ids                *txid.Computer
	notificationsTopic string
	auditTopic         string
	lockTTL            time.Duration
	now                func() time.Time
	log                *logrus.Logger
}

type BookingServiceOption func(*BookingService)

// WithBackupStore enables best-effort mirroring of decision writes.
func WithBackupStore(backup store.RecordStore) BookingServiceOption {
	return func(s *BookingService) {
		s.backup = backup
	}
}

func WithAuditTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.auditTopic = topic
	}
}

func NewBookingService(
	recordStore store.RecordStore,
	locker Locker,
	tokens Tokens,
	producer Producer,
	ids *txid.Computer,
	notificationsTopic string,
	lockTTL time.Duration,
	log *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:              recordStore,
		locker:             locker,
		tokens:             tokens,
		producer:           producer,
		ids:                ids,
		notificationsTopic: notificationsTopic,
		lockTTL:            lockTTL,
		now:                time.Now,
		log:                log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type SubmitInput struct {
	IdempotencyKey  string    `json:"idempotency_key"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	PickupLocation  string    `json:"pickup_location"`
	DropoffLocation string    `json:"dropoff_location"`
	PickupTime      time.Time `json:"pickup_time"`
	Passengers      int       `json:"passengers"`
	Notes           string    `json:"notes"`
	RawPayload      []byte    `json:"-"`
}

type SubmitResult struct {
	Booking   *domain.Booking
	Tokens    *token.Pair
	Duplicate bool
}

type TransitionResult struct {
	CurrentStatus domain.BookingStatus
	Updated       bool
}

type DecisionResult struct {
	TransactionID string
	Reference     string
	Status        domain.BookingStatus
}

// Submit validates a submission, derives its identifiers, appends the booking
// as PENDING_REVIEW and issues the owner's decision token pair. A repeated
// caller-supplied idempotency key returns the already-persisted booking
// instead of creating a second row.
func (s *BookingService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	now := s.now()
	key := idempotency.Derive(input.IdempotencyKey, idempotency.Fields{
		CustomerEmail:   input.CustomerEmail,
		PickupLocation:  input.PickupLocation,
		DropoffLocation: input.DropoffLocation,
		PickupTime:      input.PickupTime,
		Passengers:      input.Passengers,
	}, now)

	if input.IdempotencyKey != "" {
		existing, err := s.store.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.log.WithFields(logrus.Fields{
				"transaction_id":  existing.TransactionID,
				"idempotency_key": key,
			}).Info("duplicate submission, returning existing booking")
			return &SubmitResult{Booking: existing, Duplicate: true}, nil
		}
	}

	booking := &domain.Booking{
		TransactionID: s.ids.Compute(txid.Fields{
			CustomerName:    input.CustomerName,
			CustomerEmail:   input.CustomerEmail,
			PickupLocation:  input.PickupLocation,
			DropoffLocation: input.DropoffLocation,
			PickupTime:      input.PickupTime,
			SubmittedAt:     now,
		}),
		IdempotencyKey:  key,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		PickupLocation:  input.PickupLocation,
		DropoffLocation: input.DropoffLocation,
		PickupTime:      input.PickupTime,
		Passengers:      input.Passengers,
		Notes:           input.Notes,
		Status:          domain.BookingStatusPendingReview,
		RawPayload:      input.RawPayload,
		SubmittedAt:     now,
	}

	if err := s.store.Append(ctx, booking); err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, booking.TransactionID, booking.CustomerEmail)
	if err != nil {
		return nil, err
	}

	event := s.event(kafka.EventBookingSubmitted, booking)
	event.AcceptToken = pair.Accept.Value
	event.DenyToken = pair.Deny.Value
	if err := s.publish(ctx, s.notificationsTopic, booking.TransactionID, event); err != nil {
		s.log.WithError(err).WithField("transaction_id", booking.TransactionID).
			Warn("failed to publish booking_submitted event")
	}

	return &SubmitResult{Booking: booking, Tokens: pair}, nil
}

// Decide redeems a decision token and applies the corresponding transition.
func (s *BookingService) Decide(ctx context.Context, tokenValue string, kind domain.DecisionKind) (*DecisionResult, error) {
	record, err := s.tokens.ValidateAndConsume(ctx, tokenValue, kind)
	if err != nil {
		return nil, err
	}

	result, err := s.Transition(ctx, record.TransactionID, kind.Status())
	if err != nil {
		return nil, err
	}
	if !result.Updated {
		// Another decision landed between the token consume and the
		// transition. Report the real outcome, same as a reused link.
		return nil, &domain.AlreadyDecidedError{Status: result.CurrentStatus}
	}

	booking, err := s.store.ReadByKey(ctx, record.TransactionID)
	if err != nil {
		// The transition applied; an unreadable row only degrades the
		// customer notification.
		s.log.WithError(err).WithField("transaction_id", record.TransactionID).
			Warn("decided booking could not be re-read for notification")
	} else {
		if err := s.publish(ctx, s.notificationsTopic, booking.TransactionID, s.event(kafka.EventBookingDecided, booking)); err != nil {
			s.log.WithError(err).WithField("transaction_id", booking.TransactionID).
				Warn("failed to publish booking_decided event")
		}
	}

	return &DecisionResult{
		TransactionID: record.TransactionID,
		Reference:     txid.Reference(record.TransactionID),
		Status:        kind.Status(),
	}, nil
}

// Transition applies the one-time PENDING_REVIEW -> terminal status change.
// A short-lived per-transaction lock serializes racing decision requests and
// the store-level compare-and-set is the authoritative guard, so a double
// apply cannot occur even if the lock expires mid-flight. Mirror and audit
// writes are fire-and-forget.
func (s *BookingService) Transition(ctx context.Context, transactionID string, newStatus domain.BookingStatus) (*TransitionResult, error) {
	lockKey := "txnlock:" + transactionID
	acquired, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrLockHeld
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, lockKey); err != nil {
			s.log.WithError(err).WithField("transaction_id", transactionID).
				Warn("failed to release transaction lock")
		}
	}()

	updated, err := s.store.CompareAndSetStatus(ctx, transactionID, domain.BookingStatusPendingReview, newStatus)
	if err != nil {
		return nil, err
	}
	if !updated {
		current, err := s.store.ReadByKey(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{CurrentStatus: current.Status, Updated: false}, nil
	}

	if s.backup != nil {
		if _, err := s.backup.CompareAndSetStatus(ctx, transactionID, domain.BookingStatusPendingReview, newStatus); err != nil {
			s.log.WithError(err).WithField("transaction_id", transactionID).
				Warn("backup store mirror write failed")
		}
	}
	if s.auditTopic != "" {
		audit := kafka.BookingEvent{
			Type:          kafka.EventBookingDecided,
			TransactionID: transactionID,
			Reference:     txid.Reference(transactionID),
			Status:        string(newStatus),
			OccurredAt:    s.now(),
		}
		if err := s.publish(ctx, s.auditTopic, transactionID, audit); err != nil {
			s.log.WithError(err).WithField("transaction_id", transactionID).
				Warn("audit event publish failed")
		}
	}

	return &TransitionResult{CurrentStatus: newStatus, Updated: true}, nil
}

func (s *BookingService) event(eventType string, b *domain.Booking) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:            eventType,
		TransactionID:   b.TransactionID,
		Reference:       txid.Reference(b.TransactionID),
		Status:          string(b.Status),
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		PickupTime:      b.PickupTime,
		Passengers:      b.Passengers,
		OccurredAt:      s.now(),
	}
}

func (s *BookingService) publish(ctx context.Context, topic, key string, event kafka.BookingEvent) error {
	if s.producer == nil || topic == "" {
		return nil
	}
	return s.producer.Publish(ctx, topic, key, event)
}

func validateSubmission(input SubmitInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		fields["customer_name"] = "customer name is required"
	}
	email := strings.TrimSpace(input.CustomerEmail)
	if email == "" {
		fields["customer_email"] = "customer email is required"
	} else if !strings.Contains(email, "@") {
		fields["customer_email"] = "customer email is invalid"
	}
	if strings.TrimSpace(input.PickupLocation) == "" {
		fields["pickup_location"] = "pickup location is required"
	}
	if strings.TrimSpace(input.DropoffLocation) == "" {
		fields["dropoff_location"] = "dropoff location is required"
	}
	if input.PickupTime.IsZero() {
		fields["pickup_time"] = "pickup time is required"
	}
	if input.Passengers < 1 {
		fields["passengers"] = "passenger count must be positive"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
