package store

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewPGBookingStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	s := NewPGBookingStore(pool)
	assert.NotNil(t, s)
}
