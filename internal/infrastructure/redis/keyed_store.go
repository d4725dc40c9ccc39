package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
)

// KeyedStore implements ports.KeyedStore on a Redis hash per key. The prefix is
// concatenated verbatim so the persisted layout stays byte-compatible with other
// processes sharing the keyspace.
type KeyedStore struct {
	r      redis.Cmdable
	prefix string
}

// NewKeyedStore creates a new Redis-backed keyed store.
func NewKeyedStore(r redis.Cmdable, prefix string) *KeyedStore {
	return &KeyedStore{r: r, prefix: prefix}
}

var _ ports.KeyedStore = (*KeyedStore)(nil)

func (s *KeyedStore) namespaced(key string) string {
	return s.prefix + key
}

// GetHashFields implements KeyedStore.GetHashFields. An absent key reads as an
// empty map, never an error.
func (s *KeyedStore) GetHashFields(ctx context.Context, key string) (map[string]string, error) {
	return s.r.HGetAll(ctx, s.namespaced(key)).Result()
}

// SetHashField sets a single field and refreshes the key's expiration in one
// round trip. The expire rides the same pipeline so a successful set never
// leaves the key unbounded.
func (s *KeyedStore) SetHashField(ctx context.Context, key, field, value string, ttl time.Duration) error {
	ns := s.namespaced(key)
	pipe := s.r.TxPipeline()
	pipe.HSet(ctx, ns, field, value)
	pipe.Expire(ctx, ns, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetHashField implements KeyedStore.GetHashField.
func (s *KeyedStore) GetHashField(ctx context.Context, key, field string) (string, bool, error) {
	val, err := s.r.HGet(ctx, s.namespaced(key), field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteHashField implements KeyedStore.DeleteHashField.
func (s *KeyedStore) DeleteHashField(ctx context.Context, key, field string) (bool, error) {
	n, err := s.r.HDel(ctx, s.namespaced(key), field).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteKey implements KeyedStore.DeleteKey.
func (s *KeyedStore) DeleteKey(ctx context.Context, key string) error {
	return s.r.Del(ctx, s.namespaced(key)).Err()
}

// KeyExists implements KeyedStore.KeyExists.
func (s *KeyedStore) KeyExists(ctx context.Context, key string) (bool, error) {
	n, err := s.r.Exists(ctx, s.namespaced(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RefreshTtl implements KeyedStore.RefreshTtl. Refreshing an absent key is a
// no-op.
func (s *KeyedStore) RefreshTtl(ctx context.Context, key string, ttl time.Duration) error {
	return s.r.Expire(ctx, s.namespaced(key), ttl).Err()
}
