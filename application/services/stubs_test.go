package services

import (
	"context"
	"sync"

	"mgmtapi/application/ports"
	"mgmtapi/domain/management"
)

// stubApiKeyRepo captures calls and serves canned results
type stubApiKeyRepo struct {
	apiKeys map[string]*management.ApiKey
	err     error
}

func newStubApiKeyRepo() *stubApiKeyRepo {
	return &stubApiKeyRepo{apiKeys: make(map[string]*management.ApiKey)}
}

func (s *stubApiKeyRepo) FindByID(ctx context.Context, key string) (*management.ApiKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.apiKeys[key], nil
}

func (s *stubApiKeyRepo) Create(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.apiKeys[apiKey.Key] = apiKey
	return apiKey, nil
}

func (s *stubApiKeyRepo) Update(ctx context.Context, apiKey *management.ApiKey) (*management.ApiKey, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.apiKeys[apiKey.Key] = apiKey
	return apiKey, nil
}

func (s *stubApiKeyRepo) FindBySubscription(ctx context.Context, subscription string) ([]*management.ApiKey, error) {
	return nil, s.err
}

func (s *stubApiKeyRepo) FindByPlan(ctx context.Context, plan string) ([]*management.ApiKey, error) {
	return nil, s.err
}

func (s *stubApiKeyRepo) FindByCriteria(ctx context.Context, criteria management.ApiKeyCriteria) ([]*management.ApiKey, error) {
	return nil, s.err
}

// recordingPublisher remembers every published lifecycle event
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.LifecycleEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event ports.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// recordingMetrics remembers every recorded operation
type recordingMetrics struct {
	mu         sync.Mutex
	operations []string
	failures   int
}

func (m *recordingMetrics) RecordOperation(ctx context.Context, entity, operation string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, entity+"/"+operation)
	if !success {
		m.failures++
	}
}
