package analysis

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/infrastructure/database/redis"
	"github.com/turtacn/PriviQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/pkg/errors"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) last(t *testing.T) *kafka.ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.msgs)
	return p.msgs[len(p.msgs)-1]
}

func asConsumed(pm *kafka.ProducerMessage) *kafka.Message {
	return &kafka.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func decodeResult(t *testing.T, pm *kafka.ProducerMessage) JobResult {
	t.Helper()
	env, err := kafka.MessageToEventEnvelope(asConsumed(pm))
	require.NoError(t, err)
	assert.Equal(t, kafka.EventAnalysisCompleted, env.EventType)
	var res JobResult
	require.NoError(t, env.DecodePayload(&res))
	return res
}

func newLockFactory(t *testing.T) (*redis.LockFactory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewLockFactory(client, "priviq:", logging.NewNopLogger()), mr
}

func TestJobPublisher_Enqueue(t *testing.T) {
	pub := &recordingPublisher{}
	jp := NewJobPublisher(pub, "priviq-apiserver", nil, nil)

	id, err := jp.Enqueue(context.Background(), &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pm := pub.last(t)
	assert.Equal(t, kafka.TopicAnalysisRequested, pm.Topic)
	assert.Equal(t, id, string(pm.Key))

	env, err := kafka.MessageToEventEnvelope(asConsumed(pm))
	require.NoError(t, err)
	var job JobRequest
	require.NoError(t, env.DecodePayload(&job))
	assert.Equal(t, id, job.JobID)
	assert.Equal(t, samplePolicy, job.Request.Input.Text)
}

func TestJobPublisher_Errors(t *testing.T) {
	jp := NewJobPublisher(&recordingPublisher{}, "api", nil, nil)
	_, err := jp.Enqueue(context.Background(), &AnalyzeRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyDocument))

	jp = NewJobPublisher(&recordingPublisher{err: stderrors.New("broker down")}, "api", nil, nil)
	_, err = jp.Enqueue(context.Background(), &AnalyzeRequest{Input: source.Input{Text: "x"}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobEnqueueFailed))
}

func enqueueOne(t *testing.T, req *AnalyzeRequest) (*kafka.Message, string) {
	t.Helper()
	pub := &recordingPublisher{}
	id, err := NewJobPublisher(pub, "api", nil, nil).Enqueue(context.Background(), req)
	require.NoError(t, err)
	return asConsumed(pub.last(t)), id
}

func TestJobHandler_Completed(t *testing.T) {
	locks, mr := newLockFactory(t)
	results := &recordingPublisher{}
	h := NewJobHandler(newTestService(t, Deps{}), results, locks, "priviq-worker", nil, nil)

	msg, id := enqueueOne(t, &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	require.NoError(t, h.Handle(context.Background(), msg))

	pm := results.last(t)
	assert.Equal(t, kafka.TopicAnalysisCompleted, pm.Topic)
	res := decodeResult(t, pm)
	assert.Equal(t, id, res.JobID)
	assert.Equal(t, JobStatusCompleted, res.Status)
	require.NotNil(t, res.Report)
	assert.Equal(t, 12, res.Report.Risk.Score)

	assert.False(t, mr.Exists("priviq:lock:job:"+id), "lock must be released")
}

func TestJobHandler_IgnoresFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))

	env, err := kafka.NewEventEnvelope(kafka.EventAnalysisRequested, "api", map[string]any{
		"job_id":  "job-file",
		"request": map[string]any{"input": map[string]any{"file_path": path}},
	})
	require.NoError(t, err)
	pm, err := env.ToMessage(kafka.TopicAnalysisRequested, "job-file")
	require.NoError(t, err)

	results := &recordingPublisher{}
	h := NewJobHandler(newTestService(t, Deps{}), results, nil, "worker", nil, nil)
	require.NoError(t, h.Handle(context.Background(), asConsumed(pm)))

	res := decodeResult(t, results.last(t))
	assert.Equal(t, JobStatusFailed, res.Status)
	assert.Equal(t, string(errors.ErrCodeEmptyDocument), res.ErrorCode)
	assert.Nil(t, res.Report)
}

func TestJobHandler_AnalysisFailureIsPublished(t *testing.T) {
	results := &recordingPublisher{}
	h := NewJobHandler(newTestService(t, Deps{}), results, nil, "worker", nil, nil)

	msg, _ := enqueueOne(t, &AnalyzeRequest{Input: source.Input{Text: samplePolicy}, Language: "pt"})
	require.NoError(t, h.Handle(context.Background(), msg))

	res := decodeResult(t, results.last(t))
	assert.Equal(t, JobStatusFailed, res.Status)
	assert.Equal(t, string(errors.ErrCodeLanguageUnsupported), res.ErrorCode)
	assert.Nil(t, res.Report)
}

func TestJobHandler_SkipsLockedJob(t *testing.T) {
	locks, _ := newLockFactory(t)
	results := &recordingPublisher{}
	h := NewJobHandler(newTestService(t, Deps{}), results, locks, "worker", nil, nil)

	msg, id := enqueueOne(t, &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	held := locks.NewMutex("job:"+id, redis.WithLockTTL(time.Minute))
	ok, err := held.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Empty(t, results.msgs)
}

func TestJobHandler_BadMessages(t *testing.T) {
	h := NewJobHandler(newTestService(t, Deps{}), &recordingPublisher{}, nil, "worker", nil, nil)
	ctx := context.Background()

	assert.Error(t, h.Handle(ctx, &kafka.Message{Value: []byte("{broken")}))

	env, err := kafka.NewEventEnvelope("something.else", "x", map[string]string{"a": "b"})
	require.NoError(t, err)
	pm, err := env.ToMessage("t", "k")
	require.NoError(t, err)
	assert.NoError(t, h.Handle(ctx, asConsumed(pm)))

	env, err = kafka.NewEventEnvelope(kafka.EventAnalysisRequested, "x", JobRequest{})
	require.NoError(t, err)
	pm, err = env.ToMessage("t", "k")
	require.NoError(t, err)
	assert.True(t, errors.IsValidation(h.Handle(ctx, asConsumed(pm))))
}

func TestJobHandler_PublishFailureIsRetried(t *testing.T) {
	h := NewJobHandler(newTestService(t, Deps{}), &recordingPublisher{err: stderrors.New("down")}, nil, "worker", nil, nil)
	msg, _ := enqueueOne(t, &AnalyzeRequest{Input: source.Input{Text: samplePolicy}})
	assert.Error(t, h.Handle(context.Background(), msg))
}
