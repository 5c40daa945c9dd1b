// Package events publishes story lifecycle events to the message queue and
// consumes them on the other side.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"narratia/internal/models"

	"github.com/streadway/amqp"
)

// Story event types.
const (
	StoryCreated = "story.created"
	StoryUpdated = "story.updated"
	StoryDeleted = "story.deleted"
)

// StoryEvent is the message body sent whenever a story changes.
type StoryEvent struct {
	Type       string    `json:"type"`
	StoryID    string    `json:"story_id"`
	UserID     string    `json:"user_id"`
	Genre      string    `json:"genre,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewStoryEvent builds an event of the given type for story.
func NewStoryEvent(eventType string, story *models.Story) StoryEvent {
	return StoryEvent{
		Type:       eventType,
		StoryID:    story.ID,
		UserID:     story.UserID,
		Genre:      story.Genre,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher is what the story service uses to announce changes.
type Publisher interface {
	PublishStoryEvent(ctx context.Context, event StoryEvent) error
}

// MessagePublisher sends a raw message body. *rabbitmq.Client implements it.
type MessagePublisher interface {
	Publish(messageType string, body []byte) error
}

// QueuePublisher encodes story events as JSON and hands them to a
// MessagePublisher.
type QueuePublisher struct {
	client MessagePublisher
}

// NewQueuePublisher creates a QueuePublisher.
func NewQueuePublisher(client MessagePublisher) *QueuePublisher {
	return &QueuePublisher{client: client}
}

// PublishStoryEvent marshals event and publishes it.
func (p *QueuePublisher) PublishStoryEvent(ctx context.Context, event StoryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event: %w", err)
	}
	if err := p.client.Publish(event.Type, body); err != nil {
		return fmt.Errorf("failed to publish %s for story %s: %w", event.Type, event.StoryID, err)
	}
	return nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// PublishStoryEvent does nothing.
func (NopPublisher) PublishStoryEvent(context.Context, StoryEvent) error { return nil }

// DecodeStoryEvent parses a message body produced by QueuePublisher.
func DecodeStoryEvent(body []byte) (StoryEvent, error) {
	var event StoryEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return StoryEvent{}, fmt.Errorf("failed to decode story event: %w", err)
	}
	if event.Type == "" || event.StoryID == "" {
		return StoryEvent{}, fmt.Errorf("story event is missing type or story_id: %s", body)
	}
	return event, nil
}

// LogStoryEvent is the consumer-side handler: it decodes the delivery and
// writes it to the log.
func LogStoryEvent(msg amqp.Delivery) error {
	event, err := DecodeStoryEvent(msg.Body)
	if err != nil {
		return err
	}
	log.Printf("Story event %s: story=%s user=%s genre=%q at %s",
		event.Type, event.StoryID, event.UserID, event.Genre, event.OccurredAt.Format(time.RFC3339))
	return nil
}
