package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestNewConsumer(t *testing.T) {
	consumer := NewConsumer([]string{"localhost:9092"}, "transferbooking", "notifications", testLogger())
	assert.NotNil(t, consumer)
	assert.NoError(t, consumer.Close())
}

func TestDecodeEvent(t *testing.T) {
	original := BookingEvent{
		Type:          EventBookingSubmitted,
		TransactionID: "txn-1",
		Reference:     "A1B2C3D4",
		Status:        "PENDING_REVIEW",
		CustomerEmail: "ada@example.com",
		PickupTime:    time.Date(2026, 9, 12, 14, 30, 0, 0, time.UTC),
		Passengers:    2,
		AcceptToken:   "accept-token",
		DenyToken:     "deny-token",
	}
	raw, err := json.Marshal(original)
	assert.NoError(t, err)

	event, err := decodeEvent(raw)
	assert.NoError(t, err)
	assert.Equal(t, original, event)
}

func TestDecodeEvent_InvalidJSON(t *testing.T) {
	_, err := decodeEvent([]byte("{not json"))
	assert.Error(t, err)
}
