package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordOperationSuccess(t *testing.T) {
	client := &fakeCloudWatch{}
	metrics := NewMetrics("MgmtApi/test", client, zap.NewNop())

	metrics.RecordOperation(context.Background(), "api-key", "create", true)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "MgmtApi/test", aws.ToString(input.Namespace))
	require.Len(t, input.MetricData, 1)
	assert.Equal(t, "OperationCount", aws.ToString(input.MetricData[0].MetricName))
}

func TestRecordOperationFailureAddsFailureDatum(t *testing.T) {
	client := &fakeCloudWatch{}
	metrics := NewMetrics("MgmtApi/test", client, zap.NewNop())

	metrics.RecordOperation(context.Background(), "group", "update", false)

	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].MetricData, 2)
	assert.Equal(t, "OperationFailure", aws.ToString(client.inputs[0].MetricData[1].MetricName))
}

func TestRecordOperationSwallowsPublishErrors(t *testing.T) {
	client := &fakeCloudWatch{err: errors.New("throttled")}
	metrics := NewMetrics("MgmtApi/test", client, zap.NewNop())

	// Must not panic or surface the error.
	metrics.RecordOperation(context.Background(), "membership", "delete", true)
}
