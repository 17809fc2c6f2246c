package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/PratikDhanave/doorbell-event-service/internal/models"
)

// RedisStore keeps each doorbell event as a hash under "<table>:<EventID>"
// and indexes it in the sorted set "<table>:house:<HouseID>".
type RedisStore struct {
	client *redis.Client
	table  string
}

// NewRedisStore connects to the redis server at addr; events go under the table prefix.
func NewRedisStore(addr, password, table string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return NewRedisStoreFromClient(client, table)
}

// NewRedisStoreFromClient wraps an existing client; the store takes ownership of it.
func NewRedisStoreFromClient(client *redis.Client, table string) *RedisStore {
	return &RedisStore{client: client, table: table}
}

// putEventScript writes the hash and its house index in one atomic step.
// KEYS: event hash, house index. ARGV: EventID, Timestamp, HouseID, source.
// Returns 0 without touching anything when the event already exists.
var putEventScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'EventID', ARGV[1], 'Timestamp', ARGV[2], 'HouseID', ARGV[3], 'source', ARGV[4])
redis.call('ZADD', KEYS[2], 0, ARGV[2] .. '|' .. ARGV[1])
return 1
`)

// PutEvent stores the record atomically; a failed call leaves nothing behind.
func (s *RedisStore) PutEvent(ctx context.Context, ev models.DoorbellEvent) error {
	const op = "store.redis.PutEvent"

	created, err := putEventScript.Run(ctx, s.client,
		[]string{s.eventKey(ev.EventID), s.houseKey(ev.HouseID)},
		ev.EventID, ev.Timestamp, ev.HouseID, ev.Source,
	).Int()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if created == 0 {
		return fmt.Errorf("%s: event %s already exists", op, ev.EventID)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("store.redis.Close: %w", err)
	}
	return nil
}

func (s *RedisStore) eventKey(eventID string) string {
	return fmt.Sprintf("%s:%s", s.table, eventID)
}

func (s *RedisStore) houseKey(houseID string) string {
	return fmt.Sprintf("%s:house:%s", s.table, houseID)
}
