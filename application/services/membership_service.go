package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/domain/management"
)

// MembershipService orchestrates membership persistence and lifecycle events.
type MembershipService struct {
	repo      ports.MembershipRepository
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	repo ports.MembershipRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create persists a new membership and emits a lifecycle event
func (s *MembershipService) Create(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	now := time.Now()
	if membership != nil {
		if membership.CreatedAt == nil {
			membership.CreatedAt = &now
		}
		if membership.UpdatedAt == nil {
			membership.UpdatedAt = &now
		}
	}

	created, err := s.repo.Create(ctx, membership)
	s.metrics.RecordOperation(ctx, "membership", "create", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created, "created")
	return created, nil
}

// Update rewrites an existing membership and emits a lifecycle event
func (s *MembershipService) Update(ctx context.Context, membership *management.Membership) (*management.Membership, error) {
	now := time.Now()
	if membership != nil {
		membership.UpdatedAt = &now
	}

	updated, err := s.repo.Update(ctx, membership)
	s.metrics.RecordOperation(ctx, "membership", "update", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated, "updated")
	return updated, nil
}

// Delete removes a membership and emits a lifecycle event
func (s *MembershipService) Delete(ctx context.Context, membership *management.Membership) error {
	err := s.repo.Delete(ctx, membership)
	s.metrics.RecordOperation(ctx, "membership", "delete", err == nil)
	if err != nil {
		return err
	}

	s.publish(ctx, membership, "deleted")
	return nil
}

// FindByID retrieves the membership for a user/reference pair
func (s *MembershipService) FindByID(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceID string) (*management.Membership, error) {
	membership, err := s.repo.FindByID(ctx, userID, referenceType, referenceID)
	s.metrics.RecordOperation(ctx, "membership", "find", err == nil)
	return membership, err
}

// FindByIDs retrieves memberships for a user over several references
func (s *MembershipService) FindByIDs(ctx context.Context, userID string, referenceType management.MembershipReferenceType, referenceIDs []string) ([]*management.Membership, error) {
	memberships, err := s.repo.FindByIDs(ctx, userID, referenceType, referenceIDs)
	s.metrics.RecordOperation(ctx, "membership", "batch-get", err == nil)
	return memberships, err
}

// FindByReferenceAndRole retrieves memberships on a reference
func (s *MembershipService) FindByReferenceAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceID string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	memberships, err := s.repo.FindByReferenceAndRole(ctx, referenceType, referenceID, roleScope, roleName)
	s.metrics.RecordOperation(ctx, "membership", "query", err == nil)
	return memberships, err
}

// FindByReferencesAndRole retrieves memberships over several references
func (s *MembershipService) FindByReferencesAndRole(ctx context.Context, referenceType management.MembershipReferenceType, referenceIDs []string, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	memberships, err := s.repo.FindByReferencesAndRole(ctx, referenceType, referenceIDs, roleScope, roleName)
	s.metrics.RecordOperation(ctx, "membership", "query", err == nil)
	return memberships, err
}

// FindByUserAndReferenceType retrieves all memberships a user holds on
// references of the given type
func (s *MembershipService) FindByUserAndReferenceType(ctx context.Context, userID string, referenceType management.MembershipReferenceType) ([]*management.Membership, error) {
	memberships, err := s.repo.FindByUserAndReferenceType(ctx, userID, referenceType)
	s.metrics.RecordOperation(ctx, "membership", "query", err == nil)
	return memberships, err
}

// FindByUserAndReferenceTypeAndRole restricts FindByUserAndReferenceType
// to holders of the given role
func (s *MembershipService) FindByUserAndReferenceTypeAndRole(ctx context.Context, userID string, referenceType management.MembershipReferenceType, roleScope management.RoleScope, roleName string) ([]*management.Membership, error) {
	memberships, err := s.repo.FindByUserAndReferenceTypeAndRole(ctx, userID, referenceType, roleScope, roleName)
	s.metrics.RecordOperation(ctx, "membership", "query", err == nil)
	return memberships, err
}

func (s *MembershipService) publish(ctx context.Context, membership *management.Membership, action string) {
	if membership == nil {
		return
	}
	err := s.publisher.Publish(ctx, ports.LifecycleEvent{
		EntityType: "membership",
		EntityID:   membership.UserID + ":" + string(membership.ReferenceType) + ":" + membership.ReferenceID,
		Action:     action,
	})
	if err != nil {
		s.logger.Warn("failed to publish membership lifecycle event",
			zap.String("userId", membership.UserID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
