// Package jsonval reads and writes JSON-encoded values against Redis without
// making callers (de)serialize by hand. It turns
//
//	raw, err := conn.Get(ctx, key).Result()
//	var value Type
//	err = json.Unmarshal([]byte(raw), &value)
//
// into
//
//	value, err := jsonval.Get[Type](ctx, conn, key)
//
// Reads go through a connection and happen immediately. Writes go through a
// pipeline and are only queued; no I/O happens until the pipeline is
// executed. Both sides report decode/encode failures as
// *txn.SerializationError and Redis failures as *txn.DBError, so they can be
// returned from a transaction body as-is.
package jsonval

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	perrors "github.com/pingcap/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kvutil/redisutil/txn"
)

// Getter is the read side of a Redis connection. txn.Conn satisfies it.
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Queuer is the write side of a pipeline. txn.Pipeliner satisfies it.
type Queuer interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Get fetches key and decodes its value into T. A missing key is a
// *txn.DBError wrapping redis.Nil, distinct from a value that is present but
// does not decode, which is a *txn.SerializationError.
func Get[T any](ctx context.Context, g Getter, key string) (T, error) {
	var value T
	raw, err := g.Get(ctx, key).Result()
	if err != nil {
		return value, &txn.DBError{Err: err}
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, &txn.SerializationError{Err: err}
	}
	return value, nil
}

// MaybeGet is Get for keys that may legitimately be absent: a missing key
// returns (zero, false, nil) instead of an error.
func MaybeGet[T any](ctx context.Context, g Getter, key string) (T, bool, error) {
	value, err := Get[T](ctx, g, key)
	if err != nil {
		var zero T
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return value, true, nil
}

// MGet fetches keys in one round trip and decodes each value into T. Every
// key must be present; a missing one is a *txn.DBError wrapping redis.Nil.
func MGet[T any](ctx context.Context, g Getter, keys ...string) ([]T, error) {
	raw, err := g.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, &txn.DBError{Err: err}
	}
	values := make([]T, len(raw))
	for i, item := range raw {
		if item == nil {
			return nil, &txn.DBError{Err: redis.Nil}
		}
		s, ok := item.(string)
		if !ok {
			return nil, &txn.SerializationError{Err: perrors.Errorf("MGET %q returned a %T, want a string", keys[i], item)}
		}
		if err := json.Unmarshal([]byte(s), &values[i]); err != nil {
			return nil, &txn.SerializationError{Err: err}
		}
	}
	return values, nil
}

// Set encodes value and queues a SET with no expiration onto q. An encode
// failure surfaces here, before anything is queued; queuing itself cannot
// fail and performs no I/O.
func Set[T any](ctx context.Context, q Queuer, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &txn.SerializationError{Err: err}
	}
	q.Set(ctx, key, data, 0)
	return nil
}
