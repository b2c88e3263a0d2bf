package jsonval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvutil/redisutil/txn"
)

type account struct {
	Owner   string `json:"owner"`
	Balance int    `json:"balance"`
}

// fakeGetter serves canned raw values; absent keys behave like redis.Nil.
type fakeGetter struct {
	values map[string]string
}

func (f fakeGetter) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f fakeGetter) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	values := make([]interface{}, len(keys))
	for i, key := range keys {
		if value, ok := f.values[key]; ok {
			values[i] = value
		}
	}
	return redis.NewSliceResult(values, nil)
}

// fakeQueuer records queued SETs.
type fakeQueuer struct {
	keys   []string
	values []string
}

func (f *fakeQueuer) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.keys = append(f.keys, key)
	f.values = append(f.values, string(value.([]byte)))
	return redis.NewStatusResult("QUEUED", nil)
}

func TestGetDecodes(t *testing.T) {
	g := fakeGetter{values: map[string]string{
		"acct:1": `{"owner":"ana","balance":12}`,
	}}

	got, err := Get[account](context.Background(), g, "acct:1")
	require.NoError(t, err)
	assert.Equal(t, account{Owner: "ana", Balance: 12}, got)
}

func TestGetMissingKeyIsDBError(t *testing.T) {
	g := fakeGetter{}

	_, err := Get[account](context.Background(), g, "acct:404")
	var dbErr *txn.DBError
	require.ErrorAs(t, err, &dbErr)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestGetMalformedValueIsSerializationError(t *testing.T) {
	g := fakeGetter{values: map[string]string{"acct:1": `{"owner":`}}

	_, err := Get[account](context.Background(), g, "acct:1")
	var serErr *txn.SerializationError
	require.ErrorAs(t, err, &serErr)
	// A present-but-broken value must not look like a missing key.
	assert.False(t, errors.Is(err, redis.Nil))
}

func TestMaybeGet(t *testing.T) {
	g := fakeGetter{values: map[string]string{"acct:1": `{"owner":"ana","balance":12}`}}

	got, ok, err := MaybeGet[account](context.Background(), g, "acct:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ana", got.Owner)

	_, ok, err = MaybeGet[account](context.Background(), g, "acct:404")
	require.NoError(t, err)
	assert.False(t, ok)

	// Decode failures still surface.
	g.values["acct:2"] = `not json`
	_, _, err = MaybeGet[account](context.Background(), g, "acct:2")
	var serErr *txn.SerializationError
	assert.ErrorAs(t, err, &serErr)
}

func TestMGetDecodesAll(t *testing.T) {
	g := fakeGetter{values: map[string]string{
		"a": `1`,
		"b": `2`,
		"c": `3`,
	}}

	got, err := MGet[int](context.Background(), g, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMGetMissingElementIsDBError(t *testing.T) {
	g := fakeGetter{values: map[string]string{"a": `1`}}

	_, err := MGet[int](context.Background(), g, "a", "missing")
	var dbErr *txn.DBError
	require.ErrorAs(t, err, &dbErr)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestSetQueuesEncodedValue(t *testing.T) {
	q := &fakeQueuer{}

	err := Set(context.Background(), q, "acct:1", account{Owner: "ana", Balance: 12})
	require.NoError(t, err)
	require.Len(t, q.keys, 1)
	assert.Equal(t, "acct:1", q.keys[0])
	assert.JSONEq(t, `{"owner":"ana","balance":12}`, q.values[0])
}

func TestSetUnencodableValueFailsBeforeQueueing(t *testing.T) {
	q := &fakeQueuer{}

	err := Set(context.Background(), q, "bad", make(chan int))
	var serErr *txn.SerializationError
	require.ErrorAs(t, err, &serErr)
	assert.Empty(t, q.keys)
}
