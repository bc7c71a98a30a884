package credential

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/aquataze/tool-gateway/internal/api"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the latest record in a Redis hash, one field per attribute.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store using the hash at TokenRecordName.
func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb, key: TokenRecordName}
}

func (s *RedisStore) Get(ctx context.Context) (*Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis HGETALL %s: %w", api.ErrPersistence, s.key, err)
	}
	if len(fields) == 0 || fields["token"] == "" {
		return nil, nil
	}

	// A hash with unparsable times is treated like a missing one so the
	// manager refreshes and overwrites it.
	issuedAt, err := strconv.ParseInt(fields["issuedAt"], 10, 64)
	if err != nil {
		log.Printf("WARNING: ignoring redis token hash %q with bad issuedAt: %v", s.key, err)
		return nil, nil
	}
	expiresAt, err := strconv.ParseInt(fields["expiresAt"], 10, 64)
	if err != nil {
		log.Printf("WARNING: ignoring redis token hash %q with bad expiresAt: %v", s.key, err)
		return nil, nil
	}
	return &Record{Token: fields["token"], IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key, "token", rec.Token)
	pipe.HSet(ctx, s.key, "issuedAt", rec.IssuedAt)
	pipe.HSet(ctx, s.key, "expiresAt", rec.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis HSET %s: %w", api.ErrPersistence, s.key, err)
	}
	return nil
}
