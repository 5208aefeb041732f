package idempotency

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

// Fields are the canonical submission attributes the derived key is
// computed from, in this order.
type Fields struct {
	CustomerEmail   string
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	Passengers      int
}

// Derive returns the deduplication key for a submission. A caller-supplied
// key is used verbatim. Otherwise the key is an FNV-32 hash of the canonical
// fields plus the receipt timestamp, formatted auto-{hash36}-{ts36}.
//
// Because the timestamp varies per call, a derived key is NOT stable across
// retries of the same submission; only caller-supplied keys give real
// deduplication.
func Derive(callerKey string, f Fields, receivedAt time.Time) string {
	if callerKey != "" {
		return callerKey
	}

	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d",
		normalizeEmail(f.CustomerEmail),
		strings.TrimSpace(f.PickupLocation),
		strings.TrimSpace(f.DropoffLocation),
		f.PickupTime.UnixMilli(),
		f.Passengers,
	)

	return "auto-" +
		strconv.FormatUint(uint64(h.Sum32()), 36) + "-" +
		strconv.FormatInt(receivedAt.UnixMilli(), 36)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
