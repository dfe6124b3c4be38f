package dynamodb

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	pkgerrors "mgmtapi/pkg/errors"
)

// batchGetLimit is the DynamoDB ceiling on keys per BatchGetItem request.
const batchGetLimit = 100

// isConditionalCheckFailed reports whether the store rejected a write
// because its condition expression did not hold.
func isConditionalCheckFailed(err error) bool {
	var conditionFailed *types.ConditionalCheckFailedException
	return errors.As(err, &conditionFailed)
}

// storeError wraps any non-conditional store failure once at the
// repository boundary. Callers see a single DATABASE error type no
// matter whether the SDK failed on throttling, networking or a
// malformed expression.
func storeError(operation string, err error) error {
	return pkgerrors.NewDatabaseError(operation, err)
}

// epochMillis encodes a nullable timestamp using 0 as the "unset"
// sentinel. A legitimate timestamp of exactly the epoch cannot be
// represented; it degrades to unset on the way back.
func epochMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

// timeFromMillis decodes the sentinel convention: 0 means unset.
func timeFromMillis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
