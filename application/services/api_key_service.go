package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/domain/management"
)

// ApiKeyService orchestrates api key persistence, lifecycle events and
// operation metrics on top of the repository port.
type ApiKeyService struct {
	repo      ports.ApiKeyRepository
	publisher ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
}

// NewApiKeyService creates a new api key service
func NewApiKeyService(
	repo ports.ApiKeyRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *ApiKeyService {
	return &ApiKeyService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// FindByID retrieves an api key by its key value
func (s *ApiKeyService) FindByID(ctx context.Context, key string) (*management.ApiKey, error) {
	apiKey, err := s.repo.FindByID(ctx, key)
	s.metrics.RecordOperation(ctx, "api-key", "find", err == nil)
	return apiKey, err
}

// Create persists a new api key and emits a lifecycle event
func (s *ApiKeyService) Create(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	now := time.Now()
	if apiKey != nil {
		if apiKey.CreatedAt == nil {
			apiKey.CreatedAt = &now
		}
		if apiKey.UpdatedAt == nil {
			apiKey.UpdatedAt = &now
		}
	}

	created, err := s.repo.Create(ctx, apiKey)
	s.metrics.RecordOperation(ctx, "api-key", "create", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, created.Key, "created")
	return created, nil
}

// Update rewrites an existing api key and emits a lifecycle event
func (s *ApiKeyService) Update(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	now := time.Now()
	if apiKey != nil {
		apiKey.UpdatedAt = &now
	}

	updated, err := s.repo.Update(ctx, apiKey)
	s.metrics.RecordOperation(ctx, "api-key", "update", err == nil)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated.Key, "updated")
	return updated, nil
}

// Revoke marks an existing api key revoked
func (s *ApiKeyService) Revoke(ctx context.Context, key string) (*management.ApiKey, error) {
	apiKey, err := s.FindByID(ctx, key)
	if err != nil {
		return nil, err
	}
	if apiKey != nil && !apiKey.Revoked {
		now := time.Now()
		apiKey.Revoked = true
		apiKey.RevokedAt = &now
		return s.Update(ctx, apiKey)
	}
	return apiKey, nil
}

// FindBySubscription retrieves all keys attached to a subscription
func (s *ApiKeyService) FindBySubscription(ctx context.Context, subscription string) ([]*management.ApiKey, error) {
	apiKeys, err := s.repo.FindBySubscription(ctx, subscription)
	s.metrics.RecordOperation(ctx, "api-key", "query", err == nil)
	return apiKeys, err
}

// FindByPlan retrieves all keys attached to a plan
func (s *ApiKeyService) FindByPlan(ctx context.Context, plan string) ([]*management.ApiKey, error) {
	apiKeys, err := s.repo.FindByPlan(ctx, plan)
	s.metrics.RecordOperation(ctx, "api-key", "query", err == nil)
	return apiKeys, err
}

// FindByCriteria searches keys by plan list, time window and revocation flag
func (s *ApiKeyService) FindByCriteria(ctx context.Context, criteria management.ApiKeyCriteria) ([]*management.ApiKey, error) {
	apiKeys, err := s.repo.FindByCriteria(ctx, criteria)
	s.metrics.RecordOperation(ctx, "api-key", "search", err == nil)
	return apiKeys, err
}

// publish emits a lifecycle event; failures are logged, never surfaced.
func (s *ApiKeyService) publish(ctx context.Context, key, action string) {
	err := s.publisher.Publish(ctx, ports.LifecycleEvent{
		EntityType: "api-key",
		EntityID:   key,
		Action:     action,
	})
	if err != nil {
		s.logger.Warn("failed to publish api key lifecycle event",
			zap.String("key", key),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
