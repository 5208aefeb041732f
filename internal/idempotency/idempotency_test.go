package idempotency

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleFields() Fields {
	return Fields{
		CustomerEmail:   "rider@example.com",
		PickupLocation:  "Airport Terminal 2",
		DropoffLocation: "Hotel Plaza",
		PickupTime:      time.Date(2026, 9, 12, 14, 30, 0, 0, time.UTC),
		Passengers:      3,
	}
}

func TestDerive_CallerKeyVerbatim(t *testing.T) {
	key := Derive("client-key-123", sampleFields(), time.Now())
	assert.Equal(t, "client-key-123", key)
}

func TestDerive_StableForSameInputs(t *testing.T) {
	receivedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	a := Derive("", sampleFields(), receivedAt)
	b := Derive("", sampleFields(), receivedAt)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "auto-"))
}

func TestDerive_TimestampVariesKey(t *testing.T) {
	receivedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	a := Derive("", sampleFields(), receivedAt)
	b := Derive("", sampleFields(), receivedAt.Add(time.Millisecond))
	// Same submission, different receipt instant: the derived key changes.
	// This is the documented weakness of derived keys.
	assert.NotEqual(t, a, b)
}

func TestDerive_EmailNormalized(t *testing.T) {
	receivedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	upper := sampleFields()
	upper.CustomerEmail = "  RIDER@Example.COM "
	a := Derive("", upper, receivedAt)
	b := Derive("", sampleFields(), receivedAt)
	assert.Equal(t, a, b)
}

func TestDerive_FieldChangesKey(t *testing.T) {
	receivedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	base := Derive("", sampleFields(), receivedAt)

	changed := sampleFields()
	changed.Passengers = 4
	assert.NotEqual(t, base, Derive("", changed, receivedAt))

	changed = sampleFields()
	changed.DropoffLocation = "Hotel Grand"
	assert.NotEqual(t, base, Derive("", changed, receivedAt))
}
