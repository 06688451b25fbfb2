package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"civicreport-be/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	issue := &models.Issue{ID: primitive.NewObjectID(), Title: "Broken streetlight", ConcernAuthority: "Electricity Board", Status: models.StatusOpen}
	require.NoError(t, p.Publish(context.Background(), NewIssueEvent(IssueCreated, issue, "u1")))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, issue.ID.Hex(), string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte(IssueCreated)}}, msg.Headers)

	var got IssueEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, IssueCreated, got.Type)
	assert.Equal(t, "Broken streetlight", got.Title)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.Equal(t, "u1", got.ActorID)
}

func TestKafkaPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), IssueEvent{Type: IssueStatusChanged, IssueID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), IssueEvent{}))
}
