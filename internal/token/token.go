package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/internal/domain"
	"github.com/zvrva/transferbooking/internal/store"
)

// KV is the slice of the key-value store the service needs.
type KV interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type Pair struct {
	Accept domain.DecisionToken
	Deny   domain.DecisionToken
}

// Service issues and redeems the one-time accept/deny tokens mailed to the
// owner. Tokens carry no elapsed-time expiry: a link stays live until a
// decision exists, which is the product requirement. Consumed tokens are
// retained for a short audit window, then evicted by redis TTL.
type Service struct {
	kv       KV
	bookings store.RecordStore
	auditTTL time.Duration
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(kv KV, bookings store.RecordStore, auditTTL time.Duration, log *logrus.Logger) *Service {
	return &Service{kv: kv, bookings: bookings, auditTTL: auditTTL, log: log, now: time.Now}
}

// Issue generates the accept/deny token pair for a booking and persists both
// records without expiry.
func (s *Service) Issue(ctx context.Context, transactionID, customerEmail string) (*Pair, error) {
	issuedAt := s.now()

	accept, err := s.mint(domain.DecisionAccept, transactionID, customerEmail, issuedAt)
	if err != nil {
		return nil, err
	}
	deny, err := s.mint(domain.DecisionDeny, transactionID, customerEmail, issuedAt)
	if err != nil {
		return nil, err
	}

	if err := s.kv.SetJSON(ctx, recordKey(accept.Kind, accept.Value), accept, 0); err != nil {
		return nil, fmt.Errorf("persist accept token: %w", err)
	}
	if err := s.kv.SetJSON(ctx, recordKey(deny.Kind, deny.Value), deny, 0); err != nil {
		return nil, fmt.Errorf("persist deny token: %w", err)
	}

	return &Pair{Accept: *accept, Deny: *deny}, nil
}

// ValidateAndConsume redeems a token. The booking's current status is checked
// BEFORE the token is marked consumed, so a link reused after the decision
// reports the real status instead of a token error.
func (s *Service) ValidateAndConsume(ctx context.Context, value string, kind domain.DecisionKind) (*domain.DecisionToken, error) {
	var record domain.DecisionToken
	found, err := s.kv.GetJSON(ctx, recordKey(kind, value), &record)
	if err != nil {
		return nil, fmt.Errorf("read token record: %w", err)
	}
	if !found {
		return nil, domain.ErrTokenNotFound
	}
	record.Value = value
	if record.ConsumedAt != nil {
		return nil, domain.ErrTokenConsumed
	}

	booking, err := s.bookings.ReadByKey(ctx, record.TransactionID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPendingReview {
		return nil, &domain.AlreadyDecidedError{Status: booking.Status}
	}

	consumedAt := s.now()
	record.ConsumedAt = &consumedAt
	if err := s.kv.SetJSON(ctx, recordKey(kind, value), record, s.auditTTL); err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}

	return &record, nil
}

// SweepDecided deletes unconsumed tokens whose booking reached a terminal
// status. Consumed tokens expire on their own audit TTL; this bounds growth
// of the other half of each pair, since exactly one token of a decided
// booking was ever redeemed.
func (s *Service) SweepDecided(ctx context.Context) (int, error) {
	keys, err := s.kv.ScanKeys(ctx, "token:*")
	if err != nil {
		return 0, fmt.Errorf("scan token keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		var record domain.DecisionToken
		found, err := s.kv.GetJSON(ctx, key, &record)
		if err != nil || !found || record.ConsumedAt != nil {
			continue
		}

		booking, err := s.bookings.ReadByKey(ctx, record.TransactionID)
		if err != nil {
			// A vanished booking leaves its tokens unusable anyway.
			continue
		}
		if !booking.Status.Terminal() {
			continue
		}

		if err := s.kv.Delete(ctx, key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("token sweep delete failed")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) mint(kind domain.DecisionKind, transactionID, customerEmail string, issuedAt time.Time) (*domain.DecisionToken, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("token entropy: %w", err)
	}

	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%d:%x", kind, transactionID, issuedAt.UnixNano(), nonce))

	return &domain.DecisionToken{
		Value:         hex.EncodeToString(sum[:]),
		Kind:          kind,
		TransactionID: transactionID,
		CustomerEmail: customerEmail,
		IssuedAt:      issuedAt,
	}, nil
}

func recordKey(kind domain.DecisionKind, value string) string {
	return strings.Join([]string{"token", string(kind), value}, ":")
}
