package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"mgmtapi/application/ports"
)

const eventSource = "mgmtapi.management"

// EventBridgeClient is the subset of the EventBridge API the publisher uses.
type EventBridgeClient interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher emits entity lifecycle events to an EventBridge bus.
type Publisher struct {
	client  EventBridgeClient
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client EventBridgeClient, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends a single lifecycle event
func (p *Publisher) Publish(ctx context.Context, event ports.LifecycleEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(event.EntityType + "." + event.Action),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put event: %w", err)
	}
	if result.FailedEntryCount > 0 {
		return fmt.Errorf("event bus rejected %d entries", result.FailedEntryCount)
	}

	p.logger.Debug("lifecycle event published",
		zap.String("entityType", event.EntityType),
		zap.String("entityId", event.EntityID),
		zap.String("action", event.Action),
	)
	return nil
}

// NopPublisher discards every event; used when no bus is configured.
type NopPublisher struct{}

// Publish implements the publisher interface and does nothing
func (NopPublisher) Publish(ctx context.Context, event ports.LifecycleEvent) error { return nil }
