package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

const redisIndexKey = "itineraries:index"

// RedisRepository stores each record as one JSON value plus a set of ids for
// listing. Updates run under WATCH so the revision precondition holds across
// concurrent writers.
type RedisRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRepository(rdb *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) recordKey(id string) string {
	return fmt.Sprintf("itinerary:%s", id)
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*Record, error) {
	raw, err := r.rdb.Get(ctx, r.recordKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("id", id).Msg("failed to load itinerary record from redis")
		}
		return nil, errx.WrapRedis(err)
	}
	return decodeRecord([]byte(raw))
}

func (r *RedisRepository) List(ctx context.Context) ([]*Record, error) {
	ids, err := r.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to list itinerary ids from redis")
		return nil, errx.WrapRedis(err)
	}

	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Find(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// expired record, drop the dangling index entry
				r.rdb.SRem(ctx, redisIndexKey, id)
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepository) Create(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal itinerary record: %w", err)
	}

	key := r.recordKey(rec.ID)
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, r.ttl)
	pipe.SAdd(ctx, redisIndexKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to create itinerary record in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) Update(ctx context.Context, rec *Record) error {
	key := r.recordKey(rec.ID)

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				return notFoundErr()
			}
			return errx.WrapRedis(err)
		}
		stored, err := decodeRecord([]byte(raw))
		if err != nil {
			return err
		}
		if stored.Revision != rec.Revision {
			return conflictErr()
		}

		rec.Revision++
		next, err := json.Marshal(rec)
		if err != nil {
			rec.Revision--
			return fmt.Errorf("marshal itinerary record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			return nil
		})
		if err != nil {
			rec.Revision--
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// key changed between read and write
		return conflictErr()
	}
	if err != nil && !IsNotFound(err) && !errors.Is(err, ErrRevisionConflict) {
		logx.Error().Err(err).Str("key", key).Msg("failed to update itinerary record in redis")
	}
	return err
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	key := r.recordKey(id)

	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete itinerary record from redis")
		return errx.WrapRedis(err)
	}
	r.rdb.SRem(ctx, redisIndexKey, id)
	if n == 0 {
		return notFoundErr()
	}
	return nil
}

var _ Repository = (*RedisRepository)(nil)
