package ports

import (
	"context"

	"mgmtapi/domain/management"
)

// ApiKeyRepository defines the interface for api key persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ApiKeyRepository interface {
	// FindByID retrieves an api key by its key value; nil when absent
	FindByID(ctx context.Context, key string) (*management.ApiKey, error)

	// Create persists a new api key, failing with a conflict when the key already exists
	Create(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error)

	// Update rewrites an existing api key, failing when it does not exist
	Update(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error)

	// FindBySubscription retrieves all keys attached to a subscription
	FindBySubscription(ctx context.Context, subscription string) ([]*management.ApiKey, error)

	// FindByPlan retrieves all keys attached to a plan
	FindByPlan(ctx context.Context, plan string) ([]*management.ApiKey, error)

	// FindByCriteria searches keys by plan list, update-time window and revocation flag
	FindByCriteria(ctx context.Context, criteria management.ApiKeyCriteria) ([]*management.ApiKey, error)
}

// GroupRepository defines the interface for group persistence
type GroupRepository interface {
	// FindAll retrieves every group
	FindAll(ctx context.Context) ([]*management.Group, error)

	// FindByID retrieves a group by id; nil when absent
	FindByID(ctx context.Context, id string) (*management.Group, error)

	// FindByIDs retrieves the groups whose ids are present, omitting missing ones
	FindByIDs(ctx context.Context, ids []string) ([]*management.Group, error)

	// Create persists a new group, failing with a conflict when the id already exists
	Create(ctx context.Context, group *management.Group) (*management.Group, error)

	// Update rewrites an existing group, failing when it does not exist
	Update(ctx context.Context, group *management.Group) (*management.Group, error)

	// Delete removes a group by id
	Delete(ctx context.Context, id string) error
}

// MembershipRepository defines the interface for membership persistence
type MembershipRepository interface {
	// Create persists a new membership, failing with a conflict when one
	// already exists for the same user/reference pair
	Create(ctx context.Context, membership *management.Membership) (*management.Membership, error)

	// Update rewrites an existing membership, failing when it does not exist
	Update(ctx context.Context, membership *management.Membership) (*management.Membership, error)

	// Delete removes a membership
	Delete(ctx context.Context, membership *management.Membership) error

	// FindByID retrieves the membership for a user/reference pair; nil when absent
	FindByID(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceID string) (*management.Membership, error)

	// FindByIDs retrieves memberships for a user over several references,
	// omitting the ones that do not exist
	FindByIDs(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceIDs []string) ([]*management.Membership, error)

	// FindByReferenceAndRole retrieves memberships on a reference, optionally
	// restricted to holders of the given role
	FindByReferenceAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceID string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error)

	// FindByReferencesAndRole is FindByReferenceAndRole over several references
	FindByReferencesAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceIDs []string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error)

	// FindByUserAndReferenceType retrieves all memberships a user holds on
	// references of the given type
	FindByUserAndReferenceType(ctx context.Context, userID string, referenceType management.MembershipReferenceType) ([]*management.Membership, error)

	// FindByUserAndReferenceTypeAndRole restricts FindByUserAndReferenceType
	// to holders of the given role
	FindByUserAndReferenceTypeAndRole(ctx context.Context, userID string, referenceType management.MembershipReferenceType, roleScope management.RoleScope, roleName string) ([]*management.Membership, error)
}

// EventPublisher defines the interface for publishing entity lifecycle events
type EventPublisher interface {
	// Publish sends a single lifecycle event
	Publish(ctx context.Context, event LifecycleEvent) error
}

// LifecycleEvent describes a create/update/delete on a managed entity
type LifecycleEvent struct {
	EntityType string // api-key, group, membership
	EntityID   string
	Action     string // created, updated, deleted
}

// MetricsRecorder counts repository operations and failures
type MetricsRecorder interface {
	// RecordOperation records one store operation outcome
	RecordOperation(ctx context.Context, entity, operation string, success bool)
}
