package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

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

// MembershipRepository implements the MembershipRepository port using DynamoDB
type MembershipRepository struct {
	client         Client
	tableName      string
	referenceIndex string
	userIndex      string
	logger         *zap.Logger
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(client Client, tableName, referenceIndex, userIndex string, logger *zap.Logger) ports.MembershipRepository {
	return &MembershipRepository{
		client:         client,
		tableName:      tableName,
		referenceIndex: referenceIndex,
		userIndex:      userIndex,
		logger:         logger,
	}
}

// membershipRecord represents the DynamoDB item structure for a membership.
// The id is synthesized from the user/reference triple; roles are stored
// as a string set of scope:name tokens.
type membershipRecord struct {
	ID            string   `dynamodbav:"id"`
	UserID        string   `dynamodbav:"userId"`
	ReferenceID   string   `dynamodbav:"referenceId"`
	ReferenceType string   `dynamodbav:"referenceType"`
	Roles         []string `dynamodbav:"roles,stringset,omitempty"`
	CreatedAt     int64    `dynamodbav:"createdAt"`
	UpdatedAt     int64    `dynamodbav:"updatedAt"`
}

// membershipKey derives the composite primary key. Every read and write
// path must build the key through this function: any divergence in
// order or separator turns into silent not-found results, never errors.
// Components containing ':' are not escaped and can collide.
func membershipKey(userID string, referenceType management.MembershipReferenceType, referenceID string) string {
	return userID + ":" + string(referenceType) + ":" + referenceID
}

// encodeRole builds the scope:name token used both when storing roles
// and when filtering queries by role. The encoding is lossy when the
// role name itself contains ':'.
func encodeRole(scope int, name string) string {
	return strconv.Itoa(scope) + ":" + name
}

// decodeRole reverses encodeRole, rejecting malformed tokens.
func decodeRole(token string) (int, string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return 0, "", pkgerrors.NewValidationError(fmt.Sprintf("malformed role token '%s'", token))
	}
	scope, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", pkgerrors.NewValidationError(fmt.Sprintf("malformed role scope in token '%s'", token))
	}
	return scope, parts[1], nil
}

func membershipToRecord(membership *management.Membership) *membershipRecord {
	if membership == nil {
		return nil
	}
	record := &membershipRecord{
		ID:            membershipKey(membership.UserID, membership.ReferenceType, membership.ReferenceID),
		UserID:        membership.UserID,
		ReferenceID:   membership.ReferenceID,
		ReferenceType: string(membership.ReferenceType),
		CreatedAt:     epochMillis(membership.CreatedAt),
		UpdatedAt:     epochMillis(membership.UpdatedAt),
	}
	for scope, name := range membership.Roles {
		record.Roles = append(record.Roles, encodeRole(scope, name))
	}
	return record
}

func membershipToDomain(record *membershipRecord) (*management.Membership, error) {
	if record == nil {
		return nil, nil
	}
	referenceType, err := management.ParseMembershipReferenceType(record.ReferenceType)
	if err != nil {
		return nil, err
	}
	membership := &management.Membership{
		UserID:        record.UserID,
		ReferenceID:   record.ReferenceID,
		ReferenceType: referenceType,
		CreatedAt:     timeFromMillis(record.CreatedAt),
		UpdatedAt:     timeFromMillis(record.UpdatedAt),
	}
	if len(record.Roles) > 0 {
		membership.Roles = make(map[int]string, len(record.Roles))
		for _, token := range record.Roles {
			scope, name, err := decodeRole(token)
			if err != nil {
				return nil, err
			}
			membership.Roles[scope] = name
		}
	}
	return membership, nil
}

// Create persists a new membership behind an existence condition
func (r *MembershipRepository) Create(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	if membership == nil {
		return nil, pkgerrors.NewValidationError("trying to create nil membership")
	}
	if membership.ReferenceType == "" {
		return nil, pkgerrors.NewValidationError("membership to create must have a reference type")
	}

	if err := r.put(ctx, membership, expression.AttributeNotExists(expression.Name("id"))); err != nil {
		if isConditionalCheckFailed(err) {
			id := membershipKey(membership.UserID, membership.ReferenceType, membership.ReferenceID)
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("membership '%s' already exists", id))
		}
		return nil, storeError("create membership", err)
	}

	r.logger.Debug("membership created",
		zap.String("userId", membership.UserID),
		zap.String("referenceId", membership.ReferenceID),
		zap.String("referenceType", string(membership.ReferenceType)),
	)
	return membership, nil
}

// Update rewrites an existing membership
func (r *MembershipRepository) Update(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	if membership == nil {
		return nil, pkgerrors.NewValidationError("trying to update nil membership")
	}
	if membership.ReferenceType == "" {
		return nil, pkgerrors.NewValidationError("membership to update must have a reference type")
	}

	id := membershipKey(membership.UserID, membership.ReferenceType, membership.ReferenceID)
	existing, err := r.FindByID(ctx, membership.UserID, membership.ReferenceType, membership.ReferenceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("membership '%s'", id))
	}

	cond := expression.Name("id").Equal(expression.Value(id))
	if err := r.put(ctx, membership, cond); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("membership '%s'", id))
		}
		return nil, storeError("update membership", err)
	}

	r.logger.Debug("membership updated", zap.String("id", id))
	return membership, nil
}

// Delete removes a membership, unconditionally
func (r *MembershipRepository) Delete(ctx context.Context, membership *management.Membership) error {
	if membership == nil {
		return pkgerrors.NewValidationError("trying to delete nil membership")
	}

	id := membershipKey(membership.UserID, membership.ReferenceType, membership.ReferenceID)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return storeError("delete membership", err)
	}

	r.logger.Debug("membership deleted", zap.String("id", id))
	return nil
}

// FindByID retrieves the membership for a user/reference pair
func (r *MembershipRepository) FindByID(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceID string) (*management.Membership, error) {
	if referenceType == "" {
		return nil, pkgerrors.NewValidationError("reference type is required")
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: membershipKey(userID, referenceType, referenceID)},
		},
	})
	if err != nil {
		return nil, storeError("get membership", err)
	}
	if result.Item == nil {
		return nil, nil
	}
	return unmarshalMembership(result.Item)
}

// FindByIDs retrieves memberships for a user over several references in
// one batch request per 100 keys. References with no membership are
// omitted from the result.
func (r *MembershipRepository) FindByIDs(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceIDs []string) ([]*management.Membership, error) {
	if referenceType == "" {
		return nil, pkgerrors.NewValidationError("reference type is required")
	}

	memberships := []*management.Membership{}

	for start := 0; start < len(referenceIDs); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(referenceIDs) {
			end = len(referenceIDs)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, referenceID := range referenceIDs[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: membershipKey(userID, referenceType, referenceID)},
			})
		}

		result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, storeError("batch get memberships", err)
		}

		for _, item := range result.Responses[r.tableName] {
			membership, err := unmarshalMembership(item)
			if err != nil {
				return nil, err
			}
			memberships = append(memberships, membership)
		}
	}

	return memberships, nil
}

// FindByReferenceAndRole retrieves memberships on a reference. When a
// role name is given the result is filtered in memory on the encoded
// role token; the store cannot express set membership in a key
// condition, and reference cardinality is expected to stay low.
func (r *MembershipRepository) FindByReferenceAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceID string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	return r.queryByRole(ctx, r.referenceIndex, "referenceId", referenceID, referenceType, roleScope, roleName, false)
}

// FindByReferencesAndRole is FindByReferenceAndRole over several
// references, one query per reference.
func (r *MembershipRepository) FindByReferencesAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceIDs []string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	memberships := []*management.Membership{}
	for _, referenceID := range referenceIDs {
		found, err := r.FindByReferenceAndRole(ctx, referenceType, referenceID, roleScope, roleName)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, found...)
	}
	return memberships, nil
}

// FindByUserAndReferenceType retrieves all memberships a user holds on
// references of the given type.
func (r *MembershipRepository) FindByUserAndReferenceType(ctx context.Context, userID string, referenceType management.MembershipReferenceType) ([]*management.Membership, error) {
	return r.queryByRole(ctx, r.userIndex, "userId", userID, referenceType, 0, "", false)
}

// FindByUserAndReferenceTypeAndRole restricts FindByUserAndReferenceType
// to memberships actually carrying the role token.
func (r *MembershipRepository) FindByUserAndReferenceTypeAndRole(ctx context.Context, userID string, referenceType management.MembershipReferenceType, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	return r.queryByRole(ctx, r.userIndex, "userId", userID, referenceType, roleScope, roleName, true)
}

// queryByRole runs a hash + referenceType range equality query against a
// secondary index, then applies the role filter client-side. With
// requireRole false an empty role name disables filtering entirely.
func (r *MembershipRepository) queryByRole(ctx context.Context, indexName, hashAttribute, hashValue string, referenceType management.MembershipReferenceType, roleScope management.RoleScope, roleName string, requireRole bool) ([]*management.Membership, error) {
	if referenceType == "" {
		return nil, pkgerrors.NewValidationError("reference type is required")
	}

	keyCond := expression.Key(hashAttribute).Equal(expression.Value(hashValue)).
		And(expression.Key("referenceType").Equal(expression.Value(string(referenceType))))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, storeError("build membership query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(false),
	}

	var roleToken string
	if roleName != "" || requireRole {
		roleToken = encodeRole(int(roleScope), roleName)
	}

	memberships := []*management.Membership{}
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, storeError("query memberships", err)
		}

		for _, item := range result.Items {
			var record membershipRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, storeError("unmarshal membership", err)
			}
			if roleToken != "" && !containsRole(record.Roles, roleToken) {
				continue
			}
			membership, err := membershipToDomain(&record)
			if err != nil {
				return nil, err
			}
			memberships = append(memberships, membership)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return memberships, nil
}

func containsRole(roles []string, token string) bool {
	for _, role := range roles {
		if role == token {
			return true
		}
	}
	return false
}

func (r *MembershipRepository) put(ctx context.Context, membership *management.Membership, cond expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(membershipToRecord(membership))
	if err != nil {
		return fmt.Errorf("failed to marshal membership: %w", err)
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

func unmarshalMembership(item map[string]types.AttributeValue) (*management.Membership, error) {
	var record membershipRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, storeError("unmarshal membership", err)
	}
	return membershipToDomain(&record)
}
