package service

import (
	"context"

	"kinwatch/internal/domain/entity"
)

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishFamilyEvent publishes a family event for asynchronous fan-out
	PublishFamilyEvent(ctx context.Context, event *entity.FamilyEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
