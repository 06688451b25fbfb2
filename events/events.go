// Package events publishes issue lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"civicreport-be/models"

	"github.com/segmentio/kafka-go"
)

const (
	IssueCreated       = "issue.created"
	IssueStatusChanged = "issue.status_changed"
)

// IssueEvent is the message value. Key is the issue id so every event of an
// issue lands on the same partition.
type IssueEvent struct {
	Type             string             `json:"type"`
	IssueID          string             `json:"issueId"`
	Title            string             `json:"title"`
	ConcernAuthority string             `json:"concernAuthority"`
	Status           models.IssueStatus `json:"status"`
	PreviousStatus   models.IssueStatus `json:"previousStatus,omitempty"`
	ActorID          string             `json:"actorId,omitempty"`
	OccurredAt       time.Time          `json:"occurredAt"`
}

func NewIssueEvent(eventType string, issue *models.Issue, actorID string) IssueEvent {
	return IssueEvent{
		Type:             eventType,
		IssueID:          issue.ID.Hex(),
		Title:            issue.Title,
		ConcernAuthority: issue.ConcernAuthority,
		Status:           issue.Status,
		ActorID:          actorID,
		OccurredAt:       time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event IssueEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event IssueEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:     []byte(event.IssueID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Type, err)
	}
	return nil
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, IssueEvent) error { return nil }
