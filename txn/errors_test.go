package txn

import (
	"errors"
	"fmt"
	"testing"

	perrors "github.com/pingcap/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestClassifyWrapsUnknownErrors(t *testing.T) {
	err := classify(fmt.Errorf("dial tcp: connection refused"))
	var dbErr *DBError
	assert.True(t, errors.As(err, &dbErr))
}

func TestClassifyKeepsTaxonomy(t *testing.T) {
	abort := Abort(42)
	assert.Same(t, abort, classify(abort))

	ser := &SerializationError{Err: fmt.Errorf("bad json")}
	assert.Equal(t, error(ser), classify(ser))

	db := &DBError{Err: fmt.Errorf("down")}
	assert.Equal(t, error(db), classify(db))

	// Wrapped errors are classified by their chain, not their surface.
	wrapped := perrors.Annotate(Abort("inner"), "outer")
	assert.Same(t, wrapped, classify(wrapped))
	assert.True(t, IsAbort(wrapped))
}

func TestDBErrorUnwraps(t *testing.T) {
	err := &DBError{Err: redis.Nil}
	assert.True(t, errors.Is(err, redis.Nil))
	assert.Contains(t, err.Error(), redis.Nil.Error())
}

func TestAbortErrorMessage(t *testing.T) {
	err := Abort("insufficient funds")
	assert.Contains(t, err.Error(), "insufficient funds")
}
