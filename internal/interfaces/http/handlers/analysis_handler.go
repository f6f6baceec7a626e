package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
)

// SummaryFileName is the attachment name of a downloaded summary.
const SummaryFileName = "summary.txt"

// AnalysisHandler serves the document analysis endpoints.
type AnalysisHandler struct {
	svc    analysis.Service
	logger logging.Logger
}

func NewAnalysisHandler(svc analysis.Service, log logging.Logger) *AnalysisHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnalysisHandler{svc: svc, logger: log}
}

// RegisterRoutes mounts the handler on g.
func (h *AnalysisHandler) RegisterRoutes(g gin.IRoutes) {
	g.POST("/analyze", h.Analyze)
	g.POST("/classify", h.Classify)
	g.POST("/score/density", h.ScoreDensity)
	g.POST("/categorize", h.Categorize)
	g.POST("/highlight", h.Highlight)
	g.POST("/summarize/risky", h.SummarizeRisky)
	g.POST("/summarize/extractive", h.SummarizeExtractive)
	g.POST("/summarize/extractive/download", h.DownloadSummary)
	g.POST("/compliance", h.CheckCompliance)
	g.POST("/translate", h.Translate)
	g.POST("/speech", h.Speech)
	g.GET("/languages", h.Languages)
}

// DensityResponse is returned by /score/density.
type DensityResponse struct {
	Density  float64  `json:"density"`
	Warnings []string `json:"warnings,omitempty"`
}

// SummaryResponse is returned by both summarize endpoints.
type SummaryResponse struct {
	Summary  string   `json:"summary"`
	Warnings []string `json:"warnings,omitempty"`
}

// HighlightResponse is returned by /highlight.
type HighlightResponse struct {
	Highlights interface{} `json:"highlights"`
	Warnings   []string    `json:"warnings,omitempty"`
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req PolicyRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	report, err := h.svc.Analyze(c.Request.Context(), &analysis.AnalyzeRequest{
		Input:     req.Input(),
		Language:  req.Language,
		Sentences: req.Sentences,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, report)
}

// document binds the request and resolves its document.
func (h *AnalysisHandler) document(c *gin.Context) (*PolicyRequest, source.Document, bool) {
	var req PolicyRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return nil, source.Document{}, false
	}
	doc, err := h.svc.Resolve(c.Request.Context(), req.Input())
	if err != nil {
		writeError(c, h.logger, err)
		return nil, source.Document{}, false
	}
	return &req, doc, true
}

// run resolves the document and writes fn's result.
func (h *AnalysisHandler) run(c *gin.Context, fn func(ctx context.Context, req *PolicyRequest, doc source.Document) (interface{}, error)) {
	req, doc, ok := h.document(c)
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), req, doc)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *AnalysisHandler) Classify(c *gin.Context) {
	h.run(c, func(ctx context.Context, _ *PolicyRequest, doc source.Document) (interface{}, error) {
		return h.svc.Classify(ctx, doc)
	})
}

func (h *AnalysisHandler) ScoreDensity(c *gin.Context) {
	h.run(c, func(ctx context.Context, _ *PolicyRequest, doc source.Document) (interface{}, error) {
		d, err := h.svc.ScoreDensity(ctx, doc)
		if err != nil {
			return nil, err
		}
		return DensityResponse{Density: d, Warnings: doc.Warnings}, nil
	})
}

func (h *AnalysisHandler) Categorize(c *gin.Context) {
	h.run(c, func(ctx context.Context, _ *PolicyRequest, doc source.Document) (interface{}, error) {
		return h.svc.Categorize(ctx, doc)
	})
}

func (h *AnalysisHandler) Highlight(c *gin.Context) {
	h.run(c, func(ctx context.Context, _ *PolicyRequest, doc source.Document) (interface{}, error) {
		hs, err := h.svc.Highlight(ctx, doc)
		if err != nil {
			return nil, err
		}
		return HighlightResponse{Highlights: hs, Warnings: doc.Warnings}, nil
	})
}

func (h *AnalysisHandler) SummarizeRisky(c *gin.Context) {
	h.run(c, func(ctx context.Context, req *PolicyRequest, doc source.Document) (interface{}, error) {
		s, err := h.svc.SummarizeRisky(ctx, doc, req.Keywords)
		if err != nil {
			return nil, err
		}
		return SummaryResponse{Summary: s, Warnings: doc.Warnings}, nil
	})
}

func (h *AnalysisHandler) SummarizeExtractive(c *gin.Context) {
	h.run(c, func(ctx context.Context, req *PolicyRequest, doc source.Document) (interface{}, error) {
		s, err := h.svc.SummarizeExtractive(ctx, doc, req.Sentences)
		if err != nil {
			return nil, err
		}
		return SummaryResponse{Summary: s, Warnings: doc.Warnings}, nil
	})
}

// DownloadSummary returns the extractive summary as a text attachment.
func (h *AnalysisHandler) DownloadSummary(c *gin.Context) {
	req, doc, ok := h.document(c)
	if !ok {
		return
	}
	s, err := h.svc.SummarizeExtractive(c.Request.Context(), doc, req.Sentences)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+SummaryFileName+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(s))
}

func (h *AnalysisHandler) CheckCompliance(c *gin.Context) {
	h.run(c, func(ctx context.Context, _ *PolicyRequest, doc source.Document) (interface{}, error) {
		return h.svc.CheckCompliance(ctx, doc)
	})
}

func (h *AnalysisHandler) Translate(c *gin.Context) {
	var req TextRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	tr, err := h.svc.Translate(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"language": tr.Language, "text": tr.Summary})
}

// Speech returns MP3 audio of the given text.
func (h *AnalysisHandler) Speech(c *gin.Context) {
	var req TextRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	audio, err := h.svc.Speak(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (h *AnalysisHandler) Languages(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"languages": h.svc.Languages()})
}
