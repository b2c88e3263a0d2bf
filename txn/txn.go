// Package txn runs optimistic WATCH/MULTI/EXEC transactions against Redis.
//
// A transaction watches a set of keys, runs a body which reads current values
// and queues writes onto a transactional pipeline, then attempts EXEC. If
// another client changed any watched key in the meantime the EXEC is rejected
// by the server, and the whole attempt is discarded and re-run against the
// fresh values. The loop is unbounded; callers who need bounded latency under
// contention should cancel the context.
//
//	conn := client.Conn()
//	defer conn.Close()
//	pipe := conn.TxPipeline()
//
//	got, err := txn.Run(ctx, conn, pipe, []string{"counter"}, func(ctx context.Context) (int, error) {
//		n, err := jsonval.Get[int](ctx, conn, "counter")
//		if err != nil {
//			return 0, err
//		}
//		n++
//		if err := jsonval.Set(ctx, pipe, "counter", n); err != nil {
//			return 0, err
//		}
//		return n, nil
//	})
//
// The body can abort the transaction with a typed payload instead of
// committing:
//
//	if n == 69 {
//		return 0, txn.Abort(BadNumberFound{n})
//	}
//
// Watches are released on every return path: commit (EXEC clears them on the
// server), abort, store failure, serialization failure, and panic.
package txn

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kvutil/redisutil/log"
)

// Conn is the subset of a stateful Redis connection the transaction runner
// needs. It must be a dedicated connection (e.g. redis.Client.Conn()), not a
// pooled client: WATCH is per-connection state, and a pooled client may run
// each command on a different connection.
type Conn interface {
	Process(ctx context.Context, cmd redis.Cmder) error
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Pipeliner is the subset of a transactional (MULTI/EXEC) pipeline the runner
// needs. It must be bound to the same connection as the Conn passed to Run
// (e.g. conn.TxPipeline()). redis.Pipeliner satisfies it.
type Pipeliner interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exec(ctx context.Context) ([]redis.Cmder, error)
	Discard()
}

// Body is one attempt of a transaction. It reads watched keys through the
// connection, queues writes onto the pipeline, and returns the value the
// committed transaction should yield. It must be safe to run more than once:
// on a conflict all queued writes are discarded and the body is re-run from
// scratch, so it should have no side effects outside the pipeline.
//
// The connection and pipeline are reached through the closure rather than
// passed as arguments, matching how they are shared with helper calls like
// jsonval.Get.
type Body[R any] func(ctx context.Context) (R, error)

// Run executes body as an optimistic transaction over keys and returns the
// value the committing attempt produced.
//
// Exactly one of four outcomes is returned:
//
//   - (r, nil): the pipeline was committed atomically and r is the body's
//     return value. The per-command replies from the server are discarded.
//   - (_, *AbortError[E]): the body aborted; nothing was written.
//   - (_, *DBError): a Redis call failed during WATCH, the body, or EXEC.
//   - (_, *SerializationError): a JSON value failed to encode or decode.
//
// Conflicts are not an outcome: they restart the attempt, without bound. The
// same key set is re-watched on every attempt. An empty key set is allowed
// and makes the transaction unconditional (it can never conflict).
//
// conn and pipe are owned by Run until it returns and must not be used by a
// concurrently running transaction. The pipeline is left empty on return.
func Run[R any](ctx context.Context, conn Conn, pipe Pipeliner, keys []string, body Body[R]) (R, error) {
	var zero R
	for {
		r, committed, err := attempt(ctx, conn, pipe, keys, body)
		if err != nil {
			return zero, err
		}
		if committed {
			return r, nil
		}
		log.Debugf("watched key changed, retrying transaction on %v", keys)
	}
}

// attempt runs one watch/body/exec cycle. committed is false with a nil error
// when EXEC was rejected because a watched key changed.
func attempt[R any](ctx context.Context, conn Conn, pipe Pipeliner, keys []string, body Body[R]) (r R, committed bool, err error) {
	pipe.Discard()

	// Redis rejects WATCH with no keys, so skip the command. The attempt is
	// then unconditional: EXEC cannot be rejected.
	watched := false
	if len(keys) > 0 {
		if werr := watch(ctx, conn, keys); werr != nil {
			// The watch never took effect, nothing to release.
			return r, false, &DBError{Err: werr}
		}
		watched = true
	}

	// From here on the watch is released on every path out of the attempt,
	// including panics. A successful or conflicting EXEC clears watches on
	// the server, so those paths reset the flag instead.
	defer func() {
		if !watched {
			return
		}
		if uerr := unwatch(ctx, conn); uerr != nil {
			err = &DBError{Err: uerr}
		}
	}()

	r, err = body(ctx)
	if err != nil {
		return r, false, classify(err)
	}

	_, execErr := pipe.Exec(ctx)
	switch {
	case execErr == nil:
		watched = false
		return r, true, nil
	case errors.Is(execErr, redis.TxFailedErr):
		// A watched key changed; nothing was executed.
		watched = false
		return r, false, nil
	default:
		return r, false, &DBError{Err: execErr}
	}
}

func watch(ctx context.Context, conn Conn, keys []string) error {
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, "watch")
	for _, key := range keys {
		args = append(args, key)
	}
	cmd := redis.NewCmd(ctx, args...)
	return conn.Process(ctx, cmd)
}

func unwatch(ctx context.Context, conn Conn) error {
	cmd := redis.NewCmd(ctx, "unwatch")
	return conn.Process(ctx, cmd)
}
