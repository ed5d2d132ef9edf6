package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"kinwatch/internal/domain/constants"
	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// googlePubSubPublisher implements EventPublisher using Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubPublisher creates a new Google Pub/Sub publisher. Messages
// are ordered per family so a family's events fan out in submission order.
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Check if topic exists using TopicAdminClient
	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err = client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: topicPath,
	})
	if err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)
	publisher.EnableMessageOrdering = true

	logger.Info("Google Pub/Sub publisher initialized",
		slog.String("projectID", projectID),
		slog.String("topicID", topicID),
	)

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// PublishFamilyEvent publishes an event and waits for the server ack.
func (p *googlePubSubPublisher) PublishFamilyEvent(ctx context.Context, event *entity.FamilyEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	msg := &pubsub.Message{
		Data:        data,
		Attributes:  eventAttributes(event),
		OrderingKey: event.FamilyID.String(),
	}

	result := p.publisher.Publish(ctx, msg)

	serverID, err := result.Get(ctx)
	if err != nil {
		// a failed ordered publish pauses the key until resumed
		p.publisher.ResumePublish(msg.OrderingKey)

		return errors.WithStack(err)
	}

	p.logger.Info("Family event published",
		slog.String("eventID", event.EventID.String()),
		slog.String("serverID", serverID),
	)

	return nil
}

// Close releases Pub/Sub client resources
func (p *googlePubSubPublisher) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}

// eventAttributes are the message attributes used for filtering and tracing.
func eventAttributes(event *entity.FamilyEvent) map[string]string {
	attributes := map[string]string{
		"topic":     constants.NotificationFamilyEventTopic,
		"event_id":  event.EventID.String(),
		"family_id": event.FamilyID.String(),
		"category":  string(event.Category),
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
