package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/domain/management"
)

// GroupService orchestrates group persistence and lifecycle events.
type GroupService struct {
	repo      ports.GroupRepository
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
}

// NewGroupService creates a new group service
func NewGroupService(
	repo ports.GroupRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *GroupService {
	return &GroupService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// FindAll retrieves every group
func (s *GroupService) FindAll(ctx context.Context) ([]*management.Group, error) {
	groups, err := s.repo.FindAll(ctx)
	s.metrics.RecordOperation(ctx, "group", "scan", err == nil)
	return groups, err
}

// FindByID retrieves a group by id
func (s *GroupService) FindByID(ctx context.Context, id string) (*management.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	s.metrics.RecordOperation(ctx, "group", "find", err == nil)
	return group, err
}

// FindByIDs retrieves the groups whose ids exist
func (s *GroupService) FindByIDs(ctx context.Context, ids []string) ([]*management.Group, error) {
	groups, err := s.repo.FindByIDs(ctx, ids)
	s.metrics.RecordOperation(ctx, "group", "batch-get", err == nil)
	return groups, err
}

// Create persists a new group and emits a lifecycle event
func (s *GroupService) Create(ctx context.Context, group *management.Group) (*management.Group, error) {
	now := time.Now()
	if group != nil {
		if group.CreatedAt.IsZero() {
			group.CreatedAt = now
		}
		if group.UpdatedAt.IsZero() {
			group.UpdatedAt = now
		}
	}

	created, err := s.repo.Create(ctx, group)
	s.metrics.RecordOperation(ctx, "group", "create", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created.ID, "created")
	return created, nil
}

// Update rewrites an existing group and emits a lifecycle event
func (s *GroupService) Update(ctx context.Context, group *management.Group) (*management.Group, error) {
	if group != nil {
		group.UpdatedAt = time.Now()
	}

	updated, err := s.repo.Update(ctx, group)
	s.metrics.RecordOperation(ctx, "group", "update", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated.ID, "updated")
	return updated, nil
}

// Delete removes a group and emits a lifecycle event
func (s *GroupService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.RecordOperation(ctx, "group", "delete", err == nil)
	if err != nil {
		return err
	}

	s.publish(ctx, id, "deleted")
	return nil
}

func (s *GroupService) publish(ctx context.Context, id, action string) {
	err := s.publisher.Publish(ctx, ports.LifecycleEvent{
		EntityType: "group",
		EntityID:   id,
		Action:     action,
	})
	if err != nil {
		s.logger.Warn("failed to publish group lifecycle event",
			zap.String("id", id),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
