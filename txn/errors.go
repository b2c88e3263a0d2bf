package txn

import (
	"errors"
	"fmt"
)

// The three ways a transaction can return early. The body can Abort it with a
// typed payload, a JSON value can fail to encode or decode
// (SerializationError), or the underlying Redis call can fail (DBError).

// AbortError carries the payload the body supplied when it aborted the
// transaction. Aborting is expected control flow, not a fault: no writes are
// committed and the payload travels back to the caller unchanged.
type AbortError[E any] struct {
	Payload E
}

func (e *AbortError[E]) Error() string {
	return fmt.Sprintf("transaction aborted: %v", e.Payload)
}

func (e *AbortError[E]) abort() {}

// Abort returns an error which stops the transaction without committing and
// hands Payload back to the caller. Recover the payload with AsAbort.
func Abort[E any](payload E) error {
	return &AbortError[E]{Payload: payload}
}

// abortion is implemented by AbortError of every payload type, so the runner
// can recognize an abort without knowing the payload type.
type abortion interface {
	abort()
}

// IsAbort reports whether err is an abort of any payload type.
func IsAbort(err error) bool {
	var a abortion
	return errors.As(err, &a)
}

// AsAbort recovers the payload of an abort with payload type E. It returns
// false if err is not an abort or the payload has a different type.
func AsAbort[E any](err error) (E, bool) {
	var a *AbortError[E]
	if errors.As(err, &a) {
		return a.Payload, true
	}
	var zero E
	return zero, false
}

// DBError wraps an error returned by Redis itself: a failed WATCH, a failed
// command inside the body, or a failed EXEC. It unwraps to the underlying
// go-redis error, so checks such as errors.Is(err, redis.Nil) still work.
type DBError struct {
	Err error
}

func (e *DBError) Error() string {
	return "transaction: " + e.Err.Error()
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// SerializationError wraps a JSON encode or decode failure.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "transaction: serialization: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// classify maps an error returned by the body onto the transaction error
// taxonomy. Aborts and already-classified errors pass through unchanged;
// anything else came from a store call and becomes a DBError.
func classify(err error) error {
	var (
		a  abortion
		se *SerializationError
		de *DBError
	)
	if errors.As(err, &a) || errors.As(err, &se) || errors.As(err, &de) {
		return err
	}
	return &DBError{Err: err}
}
