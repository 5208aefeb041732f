package txid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StrategyUUID          = "uuid"
	StrategyDeterministic = "deterministic"

	deterministicLen = 32
	referenceLen     = 8
)

// Fields feed the deterministic strategy.
type Fields struct {
	CustomerName    string
	CustomerEmail   string
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	SubmittedAt     time.Time
}

// Computer derives the durable transaction identifier for a booking.
//
// The uuid strategy gives a random v4 id: simple, but resubmission of the
// same form yields a new booking. The deterministic strategy hashes the
// canonical fields plus the submission timestamp, so the same logical
// submission received at the same instant collides deliberately; any change
// to the receipt timestamp still produces a fresh id. Neither strategy gives
// at-most-once semantics on its own.
type Computer struct {
	strategy string
}

func NewComputer(strategy string) *Computer {
	if strategy != StrategyDeterministic {
		strategy = StrategyUUID
	}
	return &Computer{strategy: strategy}
}

func (c *Computer) Compute(f Fields) string {
	if c.strategy == StrategyDeterministic {
		sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%d|%d|%s",
			f.CustomerName,
			f.PickupLocation,
			f.DropoffLocation,
			f.PickupTime.UnixMilli(),
			f.SubmittedAt.UnixMilli(),
			f.CustomerEmail,
		))
		return hex.EncodeToString(sum[:])[:deterministicLen]
	}
	return uuid.NewString()
}

// Reference is the short uppercase form embedded in human-facing booking
// references and email subjects.
func Reference(transactionID string) string {
	ref := strings.ReplaceAll(transactionID, "-", "")
	if len(ref) > referenceLen {
		ref = ref[:referenceLen]
	}
	return strings.ToUpper(ref)
}
