package kv

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zvrva/transferbooking/config"
)

// Store wraps the redis client used for all shared ephemeral state: rate-limit
// windows, decision token records and per-transaction locks.
type Store struct {
	client *redis.Client
}

func NewStore(cfg config.RedisConfig) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

// GetJSON unmarshals the value at key into dest. The second return is false
// when the key does not exist.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value at key. A zero ttl means no expiry.
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// AcquireLock takes a short-lived exclusive lock via SetNX.
func (s *Store) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "locked", ttl).Result()
}

func (s *Store) ReleaseLock(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// ScanKeys walks the keyspace for keys matching pattern. Used by the token
// sweep; not on any request path.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *Store) Close() error {
	return s.client.Close()
}
