package observability

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchClient is the subset of the CloudWatch API the metrics use.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes repository operation counters to CloudWatch.
// Publishing is best-effort: a metrics failure is logged and swallowed,
// it never fails the operation being counted.
type Metrics struct {
	namespace string
	client    CloudWatchClient
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchClient, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordOperation records one store operation outcome
func (m *Metrics) RecordOperation(ctx context.Context, entity, operation string, success bool) {
	dimensions := []types.Dimension{
		{Name: aws.String("Entity"), Value: aws.String(entity)},
		{Name: aws.String("Operation"), Value: aws.String(operation)},
	}

	data := []types.MetricDatum{
		{
			MetricName: aws.String("OperationCount"),
			Dimensions: dimensions,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
		},
	}
	if !success {
		data = append(data, types.MetricDatum{
			MetricName: aws.String("OperationFailure"),
			Dimensions: dimensions,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Debug("failed to publish operation metrics",
			zap.String("entity", entity),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// NopMetrics discards every recorded operation.
type NopMetrics struct{}

// RecordOperation implements the recorder interface and does nothing
func (NopMetrics) RecordOperation(ctx context.Context, entity, operation string, success bool) {}
