package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/application/services"
	"mgmtapi/infrastructure/config"
	"mgmtapi/infrastructure/messaging/eventbridge"
	"mgmtapi/infrastructure/persistence/dynamodb"
	"mgmtapi/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, honoring the
// endpoint override for local development
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideApiKeyRepository creates an api key repository
func ProvideApiKeyRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ApiKeyRepository {
	return dynamodb.NewApiKeyRepository(
		client,
		cfg.ApiKeysTable,
		cfg.SubscriptionIndex,
		cfg.PlanIndex,
		logger,
	)
}

// ProvideGroupRepository creates a group repository
func ProvideGroupRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GroupRepository {
	return dynamodb.NewGroupRepository(client, cfg.GroupsTable, logger)
}

// ProvideMembershipRepository creates a membership repository
func ProvideMembershipRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MembershipRepository {
	return dynamodb.NewMembershipRepository(
		client,
		cfg.MembershipsTable,
		cfg.ReferenceIndex,
		cfg.UserIndex,
		logger,
	)
}

// ProvideEventPublisher creates a lifecycle event publisher; events are
// discarded when no bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the operation metrics recorder
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsRecorder {
	if !cfg.EnableMetrics {
		return observability.NopMetrics{}
	}
	return observability.NewMetrics(cfg.MetricsNamespace+"/"+cfg.Environment, client, logger)
}

// ProvideApiKeyService creates the api key service
func ProvideApiKeyService(repo ports.ApiKeyRepository, publisher ports.EventPublisher, metrics ports.MetricsRecorder, logger *zap.Logger) *services.ApiKeyService {
	return services.NewApiKeyService(repo, publisher, metrics, logger)
}

// ProvideGroupService creates the group service
func ProvideGroupService(repo ports.GroupRepository, publisher ports.EventPublisher, metrics ports.MetricsRecorder, logger *zap.Logger) *services.GroupService {
	return services.NewGroupService(repo, publisher, metrics, logger)
}

// ProvideMembershipService creates the membership service
func ProvideMembershipService(repo ports.MembershipRepository, publisher ports.EventPublisher, metrics ports.MetricsRecorder, logger *zap.Logger) *services.MembershipService {
	return services.NewMembershipService(repo, publisher, metrics, logger)
}
