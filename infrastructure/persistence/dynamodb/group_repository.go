package dynamodb

import (
	"context"
	"fmt"
	"time"

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

// GroupRepository implements the GroupRepository port using DynamoDB
type GroupRepository struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(client Client, tableName string, logger *zap.Logger) ports.GroupRepository {
	return &GroupRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// groupRecord represents the DynamoDB item structure for a group.
// Empty lists are omitted on write and normalized back on read.
type groupRecord struct {
	ID             string   `dynamodbav:"id"`
	Name           string   `dynamodbav:"name,omitempty"`
	CreatedAt      int64    `dynamodbav:"createdAt"`
	UpdatedAt      int64    `dynamodbav:"updatedAt"`
	EventRules     []string `dynamodbav:"eventRules,omitempty"`
	Administrators []string `dynamodbav:"administrators,omitempty"`
}

func groupToRecord(group *management.Group) *groupRecord {
	if group == nil {
		return nil
	}
	record := &groupRecord{
		ID:        group.ID,
		Name:      group.Name,
		CreatedAt: groupMillis(group.CreatedAt),
		UpdatedAt: groupMillis(group.UpdatedAt),
	}
	for _, rule := range group.EventRules {
		record.EventRules = append(record.EventRules, string(rule.Event))
	}
	if len(group.Administrators) > 0 {
		record.Administrators = group.Administrators
	}
	return record
}

// groupToDomain decodes a stored group, failing fast on event rule
// tokens it does not recognize instead of dropping them.
func groupToDomain(record *groupRecord) (*management.Group, error) {
	if record == nil {
		return nil, nil
	}
	group := &management.Group{
		ID:        record.ID,
		Name:      record.Name,
		CreatedAt: groupTime(record.CreatedAt),
		UpdatedAt: groupTime(record.UpdatedAt),
	}
	for _, token := range record.EventRules {
		event, err := management.ParseGroupEvent(token)
		if err != nil {
			return nil, err
		}
		group.EventRules = append(group.EventRules, management.GroupEventRule{Event: event})
	}
	group.Administrators = record.Administrators
	if group.Administrators == nil {
		group.Administrators = []string{}
	}
	return group, nil
}

func groupMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func groupTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FindAll retrieves every group with a paginated full scan
func (r *GroupRepository) FindAll(ctx context.Context) ([]*management.Group, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	}

	groups := []*management.Group{}
	for {
		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, storeError("scan groups", err)
		}

		for _, item := range result.Items {
			group, err := unmarshalGroup(item)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return groups, nil
}

// FindByID retrieves a group by id
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*management.Group, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, storeError("get group", err)
	}
	if result.Item == nil {
		return nil, nil
	}
	return unmarshalGroup(result.Item)
}

// FindByIDs retrieves the groups whose ids exist. Missing ids are
// simply absent from the result, not an error.
func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]*management.Group, error) {
	groups := []*management.Group{}

	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			})
		}

		result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, storeError("batch get groups", err)
		}

		for _, item := range result.Responses[r.tableName] {
			group, err := unmarshalGroup(item)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// Create persists a new group. A nil administrators list normalizes to
// empty on the returned group; the stored record omits it entirely.
func (r *GroupRepository) Create(ctx context.Context, group *management.Group) (*management.Group, error) {
	if group == nil {
		return nil, pkgerrors.NewValidationError("trying to create nil group")
	}
	if group.ID == "" {
		return nil, pkgerrors.NewValidationError("group to create must have an id")
	}
	if group.Administrators == nil {
		group.Administrators = []string{}
	}

	if err := r.put(ctx, group, expression.AttributeNotExists(expression.Name("id"))); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("group '%s' already exists", group.ID))
		}
		return nil, storeError("create group", err)
	}

	r.logger.Debug("group created", zap.String("id", group.ID))
	return group, nil
}

// Update rewrites an existing group
func (r *GroupRepository) Update(ctx context.Context, group *management.Group) (*management.Group, error) {
	if group == nil || group.ID == "" {
		return nil, pkgerrors.NewValidationError("group to update must have an id")
	}

	existing, err := r.FindByID(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("group '%s'", group.ID))
	}

	cond := expression.Name("id").Equal(expression.Value(group.ID))
	if err := r.put(ctx, group, cond); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("group '%s'", group.ID))
		}
		return nil, storeError("update group", err)
	}

	r.logger.Debug("group updated", zap.String("id", group.ID))
	return group, nil
}

// Delete removes a group by id, unconditionally
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.NewValidationError("trying to delete group without id")
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return storeError("delete group", err)
	}

	r.logger.Debug("group deleted", zap.String("id", id))
	return nil
}

func (r *GroupRepository) put(ctx context.Context, group *management.Group, cond expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(groupToRecord(group))
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
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

func unmarshalGroup(item map[string]types.AttributeValue) (*management.Group, error) {
	var record groupRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, storeError("unmarshal group", err)
	}
	return groupToDomain(&record)
}
