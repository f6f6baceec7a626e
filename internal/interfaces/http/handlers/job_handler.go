package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// JobEnqueuer publishes an analysis job and returns its id.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, req *analysis.AnalyzeRequest) (string, error)
}

var errJobsDisabled = errors.New(errors.ErrCodeFeatureDisabled, "asynchronous analysis is not enabled")

// JobHandler accepts asynchronous analysis requests. Results are published
// on the completed-analysis topic.
type JobHandler struct {
	jobs   JobEnqueuer
	logger logging.Logger
}

// NewJobHandler builds a JobHandler. A nil enqueuer answers every request
// with a feature-disabled error.
func NewJobHandler(jobs JobEnqueuer, log logging.Logger) *JobHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobHandler{jobs: jobs, logger: log}
}

func (h *JobHandler) RegisterRoutes(g gin.IRoutes) {
	g.POST("/jobs", h.Submit)
}

// JobAccepted is the 202 body of /jobs.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (h *JobHandler) Submit(c *gin.Context) {
	if h.jobs == nil {
		writeError(c, h.logger, errJobsDisabled)
		return
	}
	var req PolicyRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	id, err := h.jobs.Enqueue(c.Request.Context(), &analysis.AnalyzeRequest{
		Input:     req.Input(),
		Language:  req.Language,
		Sentences: req.Sentences,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusAccepted, JobAccepted{JobID: id, Status: "queued"})
}
