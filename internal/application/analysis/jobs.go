package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PriviQ/internal/infrastructure/database/redis"
	"github.com/turtacn/PriviQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Job statuses carried by JobResult.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobRequest is the payload of an analysis.requested event.
type JobRequest struct {
	JobID       string         `json:"job_id"`
	Request     AnalyzeRequest `json:"request"`
	RequestedAt time.Time      `json:"requested_at"`
}

// JobResult is the payload of an analysis.completed event.
type JobResult struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	Report      *Report   `json:"report,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// JobPublisher enqueues analysis jobs.
type JobPublisher struct {
	publisher kafka.Publisher
	source    string
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

func NewJobPublisher(p kafka.Publisher, sourceName string, m *prometheus.AppMetrics, log logging.Logger) *JobPublisher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobPublisher{publisher: p, source: sourceName, metrics: m, logger: log}
}

// Enqueue publishes req and returns the new job id.
func (p *JobPublisher) Enqueue(ctx context.Context, req *AnalyzeRequest) (string, error) {
	if req == nil || req.Input.IsEmpty() {
		return "", source.ErrEmptyDocument
	}
	job := JobRequest{
		JobID:       uuid.NewString(),
		Request:     *req,
		RequestedAt: time.Now().UTC(),
	}
	env, err := kafka.NewEventEnvelope(kafka.EventAnalysisRequested, p.source, job)
	if err != nil {
		return "", err
	}
	msg, err := env.ToMessage(kafka.TopicAnalysisRequested, job.JobID)
	if err != nil {
		return "", err
	}
	err = p.publisher.Publish(ctx, msg)
	prometheus.RecordJobPublished(p.metrics, err)
	if err != nil {
		p.logger.Error("failed to enqueue analysis job", logging.String("job_id", job.JobID), logging.Err(err))
		if errors.IsCode(err, errors.ErrCodeJobEnqueueFailed) {
			return "", err
		}
		return "", errors.Wrap(err, errors.ErrCodeJobEnqueueFailed, "failed to enqueue analysis job")
	}
	p.logger.Info("analysis job enqueued", logging.String("job_id", job.JobID))
	return job.JobID, nil
}

// JobLocker hands out per-job mutexes.
type JobLocker interface {
	NewMutex(name string, opts ...redis.LockOption) redis.DistributedLock
}

// DefaultJobLockTTL bounds how long one worker owns a job.
const DefaultJobLockTTL = 2 * time.Minute

// JobHandler consumes analysis.requested events and publishes results.
type JobHandler struct {
	svc     Service
	results kafka.Publisher
	locks   JobLocker
	lockTTL time.Duration
	source  string
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewJobHandler builds a handler. locks may be nil, which disables
// duplicate suppression.
func NewJobHandler(svc Service, results kafka.Publisher, locks JobLocker, sourceName string, m *prometheus.AppMetrics, log logging.Logger) *JobHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobHandler{
		svc:     svc,
		results: results,
		locks:   locks,
		lockTTL: DefaultJobLockTTL,
		source:  sourceName,
		metrics: m,
		logger:  log.Named("jobs"),
	}
}

// Handle is a kafka.MessageHandler. Analysis failures are published as
// failed results; only infrastructure failures are returned for retry.
func (h *JobHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventAnalysisRequested {
		h.logger.Debug("ignoring event", logging.String("event_type", env.EventType))
		return nil
	}
	var job JobRequest
	if err := env.DecodePayload(&job); err != nil {
		return err
	}
	if job.JobID == "" {
		return errors.New(errors.ErrCodeValidation, "job id missing").WithDetail("event_id=" + env.EventID)
	}
	job.Request.Input.FilePath = ""

	if h.locks != nil {
		mu := h.locks.NewMutex("job:"+job.JobID, redis.WithLockTTL(h.lockTTL))
		ok, err := mu.TryLock(ctx)
		if err != nil {
			return err
		}
		if !ok {
			h.logger.Info("job already being processed", logging.String("job_id", job.JobID))
			return nil
		}
		defer func() {
			if err := mu.Unlock(context.Background()); err != nil {
				h.logger.Warn("failed to release job lock", logging.String("job_id", job.JobID), logging.Err(err))
			}
		}()
	}

	start := time.Now()
	result := JobResult{JobID: job.JobID}
	report, err := h.svc.Analyze(ctx, &job.Request)
	if err != nil {
		result.Status = JobStatusFailed
		result.ErrorCode = errors.GetCode(err).String()
		result.Error = err.Error()
	} else {
		result.Status = JobStatusCompleted
		result.Report = report
	}
	result.CompletedAt = time.Now().UTC()
	prometheus.RecordJobConsumed(h.metrics, time.Since(start), err)

	out, err := kafka.NewEventEnvelope(kafka.EventAnalysisCompleted, h.source, result)
	if err != nil {
		return err
	}
	out.TraceID = env.TraceID
	pm, err := out.ToMessage(kafka.TopicAnalysisCompleted, job.JobID)
	if err != nil {
		return err
	}
	if err := h.results.Publish(ctx, pm); err != nil {
		return err
	}
	h.logger.Info("analysis job finished",
		logging.String("job_id", job.JobID),
		logging.String("status", result.Status),
		logging.Duration("took", time.Since(start)))
	return nil
}
