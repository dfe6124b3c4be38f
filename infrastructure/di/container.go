package di

import (
	"go.uber.org/zap"

	"mgmtapi/application/ports"
	"mgmtapi/application/services"
	"mgmtapi/infrastructure/config"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	ApiKeyRepo        ports.ApiKeyRepository
	GroupRepo         ports.GroupRepository
	MembershipRepo    ports.MembershipRepository
	EventPublisher    ports.EventPublisher
	Metrics           ports.MetricsRecorder
	ApiKeyService     *services.ApiKeyService
	GroupService      *services.GroupService
	MembershipService *services.MembershipService
}
