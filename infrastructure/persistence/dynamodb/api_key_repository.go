package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/domain/management"
	pkgerrors "mgmtapi/pkg/errors"
)

// ApiKeyRepository implements the ApiKeyRepository port using DynamoDB
type ApiKeyRepository struct {
	client            Client
	tableName         string
	subscriptionIndex string
	planIndex         string
	logger            *zap.Logger
}

// NewApiKeyRepository creates a new ApiKeyRepository
func NewApiKeyRepository(client Client, tableName, subscriptionIndex, planIndex string, logger *zap.Logger) ports.ApiKeyRepository {
	return &ApiKeyRepository{
		client:            client,
		tableName:         tableName,
		subscriptionIndex: subscriptionIndex,
		planIndex:         planIndex,
		logger:            logger,
	}
}

// apiKeyRecord represents the DynamoDB item structure for an api key.
// Timestamps use epoch milliseconds with 0 as the unset sentinel.
type apiKeyRecord struct {
	Key          string `dynamodbav:"key"`
	Application  string `dynamodbav:"application,omitempty"`
	Subscription string `dynamodbav:"subscription,omitempty"`
	Plan         string `dynamodbav:"plan,omitempty"`
	CreatedAt    int64  `dynamodbav:"createdAt"`
	UpdatedAt    int64  `dynamodbav:"updatedAt"`
	ExpireAt     int64  `dynamodbav:"expireAt"`
	RevokeAt     int64  `dynamodbav:"revokeAt"`
	Revoked      bool   `dynamodbav:"revoked"`
}

func apiKeyToRecord(apiKey *management.ApiKey) *apiKeyRecord {
	if apiKey == nil {
		return nil
	}
	return &apiKeyRecord{
		Key:          apiKey.Key,
		Application:  apiKey.Application,
		Subscription: apiKey.Subscription,
		Plan:         apiKey.Plan,
		CreatedAt:    epochMillis(apiKey.CreatedAt),
		UpdatedAt:    epochMillis(apiKey.UpdatedAt),
		ExpireAt:     epochMillis(apiKey.ExpireAt),
		RevokeAt:     epochMillis(apiKey.RevokedAt),
		Revoked:      apiKey.Revoked,
	}
}

func apiKeyToDomain(record *apiKeyRecord) *management.ApiKey {
	if record == nil {
		return nil
	}
	return &management.ApiKey{
		Key:          record.Key,
		Application:  record.Application,
		Subscription: record.Subscription,
		Plan:         record.Plan,
		CreatedAt:    timeFromMillis(record.CreatedAt),
		UpdatedAt:    timeFromMillis(record.UpdatedAt),
		ExpireAt:     timeFromMillis(record.ExpireAt),
		RevokedAt:    timeFromMillis(record.RevokeAt),
		Revoked:      record.Revoked,
	}
}

// FindByID retrieves an api key by its key value
func (r *ApiKeyRepository) FindByID(ctx context.Context, key string) (*management.ApiKey, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, storeError("get api key", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var record apiKeyRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, storeError("unmarshal api key", err)
	}
	return apiKeyToDomain(&record), nil
}

// Create persists a new api key. The store-evaluated condition rejects
// the write when the key already exists; there is no local read first.
func (r *ApiKeyRepository) Create(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	if apiKey == nil {
		return nil, pkgerrors.NewValidationError("trying to create nil api key")
	}
	if apiKey.Key == "" {
		return nil, pkgerrors.NewValidationError("api key to create must have a key")
	}

	if err := r.put(ctx, apiKey, expression.AttributeNotExists(expression.Name("key"))); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("api key '%s' already exists", apiKey.Key))
		}
		return nil, storeError("create api key", err)
	}

	r.logger.Debug("api key created", zap.String("key", apiKey.Key))
	return apiKey, nil
}

// Update rewrites an existing api key. The pre-flight read produces a
// precise not-found error; the conditioned write still guards against
// the key disappearing between the two steps.
func (r *ApiKeyRepository) Update(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	if apiKey == nil || apiKey.Key == "" {
		return nil, pkgerrors.NewValidationError("api key to update must have a key")
	}

	existing, err := r.FindByID(ctx, apiKey.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("api key '%s'", apiKey.Key))
	}

	cond := expression.Name("key").Equal(expression.Value(apiKey.Key))
	if err := r.put(ctx, apiKey, cond); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("api key '%s'", apiKey.Key))
		}
		return nil, storeError("update api key", err)
	}

	r.logger.Debug("api key updated", zap.String("key", apiKey.Key))
	return apiKey, nil
}

// put writes the api key with the given server-evaluated condition.
// Conditional-check failures are returned raw for the caller to map.
func (r *ApiKeyRepository) put(ctx context.Context, apiKey *management.ApiKey, cond expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(apiKeyToRecord(apiKey))
	if err != nil {
		return fmt.Errorf("failed to marshal api key: %w", err)
	}

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

// FindBySubscription retrieves all keys attached to a subscription
func (r *ApiKeyRepository) FindBySubscription(ctx context.Context, subscription string) ([]*management.ApiKey, error) {
	return r.queryIndex(ctx, r.subscriptionIndex, "subscription", subscription)
}

// FindByPlan retrieves all keys attached to a plan
func (r *ApiKeyRepository) FindByPlan(ctx context.Context, plan string) ([]*management.ApiKey, error) {
	return r.queryIndex(ctx, r.planIndex, "plan", plan)
}

// queryIndex runs a hash-key equality query against a secondary index.
// Reads are eventually consistent, as secondary indexes require.
func (r *ApiKeyRepository) queryIndex(ctx context.Context, indexName, attribute, value string) ([]*management.ApiKey, error) {
	keyCond := expression.Key(attribute).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, storeError("build api key query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(false),
	}

	apiKeys := []*management.ApiKey{}
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, storeError("query api keys", err)
		}

		for _, item := range result.Items {
			var record apiKeyRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, storeError("unmarshal api key", err)
			}
			apiKeys = append(apiKeys, apiKeyToDomain(&record))
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return apiKeys, nil
}

// FindByCriteria searches keys by plan list, update-time window and
// revocation flag. The plan list is mandatory: with no plans the search
// returns empty without issuing any store operation. The translation is
// a full table scan with a filter expression, so cost is linear in
// collection size regardless of how selective the criteria are.
func (r *ApiKeyRepository) FindByCriteria(ctx context.Context, criteria management.ApiKeyCriteria) ([]*management.ApiKey, error) {
	if len(criteria.Plans) == 0 {
		return []*management.ApiKey{}, nil
	}

	plans := make([]expression.OperandBuilder, len(criteria.Plans))
	for i, plan := range criteria.Plans {
		plans[i] = expression.Value(plan)
	}
	filter := expression.Name("plan").In(plans[0], plans[1:]...)

	// The time window only applies when both bounds are set.
	if criteria.From != 0 && criteria.To != 0 {
		filter = filter.And(expression.Name("updatedAt").Between(
			expression.Value(criteria.From),
			expression.Value(criteria.To),
		))
	}

	if !criteria.IncludeRevoked {
		filter = filter.And(expression.Name("revoked").Equal(expression.Value(false)))
	}

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, storeError("build api key criteria", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(false),
	}

	apiKeys := []*management.ApiKey{}
	for {
		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, storeError("scan api keys", err)
		}

		for _, item := range result.Items {
			var record apiKeyRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, storeError("unmarshal api key", err)
			}
			apiKeys = append(apiKeys, apiKeyToDomain(&record))
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return apiKeys, nil
}
