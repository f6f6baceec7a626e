package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/PriviQ/pkg/errors"
)

type samplePayload struct {
	JobID string `json:"job_id"`
}

func TestEventEnvelope_RoundTripThroughMessage(t *testing.T) {
	env, err := NewEventEnvelope(EventAnalysisRequested, "priviq-apiserver", samplePayload{JobID: "j-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	pm, err := env.ToMessage(TopicAnalysisRequested, "j-1")
	require.NoError(t, err)
	assert.Equal(t, "j-1", string(pm.Key))
	assert.Equal(t, EventAnalysisRequested, pm.Headers["event_type"])

	decoded, err := MessageToEventEnvelope(&Message{Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	var p samplePayload
	require.NoError(t, decoded.DecodePayload(&p))
	assert.Equal(t, "j-1", p.JobID)
}

func TestMessageToEventEnvelope_Invalid(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.Error(t, err)

	_, err = MessageToEventEnvelope(&Message{Value: []byte("{nope")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{EventID: "e"}
	var p samplePayload
	assert.Error(t, env.DecodePayload(&p))
}

func TestDefaultTopics(t *testing.T) {
	names := make([]string, 0)
	for _, tc := range DefaultTopics() {
		names = append(names, tc.Name)
	}
	assert.Equal(t, []string{TopicAnalysisRequested, TopicAnalysisCompleted, TopicDeadLetterPolicy}, names)
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &mockKafkaConn{}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())

	require.NoError(t, m.EnsureTopics(context.Background(), DefaultTopics()))
	require.Len(t, conn.created, 3)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
}

func TestTopicManager_AlreadyExists(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(topics ...kafka.TopicConfig) error {
		return kafka.TopicAlreadyExists
	}}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())
	assert.NoError(t, m.CreateTopic(context.Background(), DefaultTopics()[0]))
}

func TestTopicManager_CreateFails(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(topics ...kafka.TopicConfig) error { return errors.New("denied") },
		readFunc:   func(topics ...string) ([]kafka.Partition, error) { return nil, nil },
	}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())
	assert.Error(t, m.CreateTopic(context.Background(), DefaultTopics()[0]))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "x"}))
}
