package dynamodb

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "mgmtapi/pkg/errors"
)

func TestEpochMillisSentinel(t *testing.T) {
	assert.Equal(t, int64(0), epochMillis(nil))

	ts := time.UnixMilli(1700000000000)
	assert.Equal(t, int64(1700000000000), epochMillis(&ts))

	assert.Nil(t, timeFromMillis(0))
	back := timeFromMillis(1700000000000)
	require.NotNil(t, back)
	assert.Equal(t, ts.UnixMilli(), back.UnixMilli())
}

func TestEpochExactlyZeroDegradesToUnset(t *testing.T) {
	// A timestamp of exactly the epoch is indistinguishable from unset.
	epoch := time.UnixMilli(0)
	assert.Nil(t, timeFromMillis(epochMillis(&epoch)))
}

func TestIsConditionalCheckFailed(t *testing.T) {
	assert.True(t, isConditionalCheckFailed(&types.ConditionalCheckFailedException{}))
	assert.False(t, isConditionalCheckFailed(errors.New("throttled")))
	assert.False(t, isConditionalCheckFailed(nil))
}

func TestStoreErrorWrapsAsDatabase(t *testing.T) {
	err := storeError("get api key", errors.New("connection reset"))
	assert.True(t, pkgerrors.IsDatabase(err))
}
