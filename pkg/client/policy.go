package client

import (
	"context"
	"net/http"

	"github.com/turtacn/PriviQ/pkg/types/policy"
)

const apiPrefix = "/api/v1"

// Analyze returns the full report for req.
func (c *Client) Analyze(ctx context.Context, req *policy.Request) (*policy.Report, error) {
	var out policy.Report
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/analyze", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Classify(ctx context.Context, req *policy.Request) (*policy.ClassifyResult, error) {
	var out policy.ClassifyResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/classify", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ScoreDensity(ctx context.Context, req *policy.Request) (*policy.DensityResult, error) {
	var out policy.DensityResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/score/density", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categorize(ctx context.Context, req *policy.Request) (*policy.CategorizeResult, error) {
	var out policy.CategorizeResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/categorize", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Highlight(ctx context.Context, req *policy.Request) (*policy.HighlightResult, error) {
	var out policy.HighlightResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/highlight", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeRisky uses req.Keywords when set, otherwise the server lexicon.
func (c *Client) SummarizeRisky(ctx context.Context, req *policy.Request) (*policy.SummaryResult, error) {
	var out policy.SummaryResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/summarize/risky", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeExtractive honors req.Sentences when positive.
func (c *Client) SummarizeExtractive(ctx context.Context, req *policy.Request) (*policy.SummaryResult, error) {
	var out policy.SummaryResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/summarize/extractive", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadSummary returns the extractive summary as served for download.
func (c *Client) DownloadSummary(ctx context.Context, req *policy.Request) ([]byte, error) {
	raw, _, err := c.do(ctx, http.MethodPost, apiPrefix+"/summarize/extractive/download", req, callOptions{accept: "text/plain"})
	return raw, err
}

func (c *Client) CheckCompliance(ctx context.Context, req *policy.Request) (*policy.ComplianceResult, error) {
	var out policy.ComplianceResult
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/compliance", req, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Translate renders text in language. A failed translation comes back as
// text starting with "Translation failed:".
func (c *Client) Translate(ctx context.Context, text, language string) (*policy.TranslateResult, error) {
	var out policy.TranslateResult
	body := policy.TextRequest{Text: text, Language: language}
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/translate", body, &out, callOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Speak returns MP3 audio of text.
func (c *Client) Speak(ctx context.Context, text, language string) ([]byte, error) {
	raw, _, err := c.do(ctx, http.MethodPost, apiPrefix+"/speech", policy.TextRequest{Text: text, Language: language}, callOptions{accept: "audio/mpeg"})
	return raw, err
}

func (c *Client) Languages(ctx context.Context) ([]policy.Language, error) {
	var out struct {
		Languages []policy.Language `json:"languages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/languages", nil, &out, callOptions{}); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

// SubmitJob enqueues an asynchronous analysis. It is never retried so a
// job is not published twice.
func (c *Client) SubmitJob(ctx context.Context, req *policy.Request) (*policy.JobAccepted, error) {
	var out policy.JobAccepted
	if err := c.doJSON(ctx, http.MethodPost, apiPrefix+"/jobs", req, &out, callOptions{noRetry: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls /readyz and returns nil when the server is ready.
func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/readyz", nil, callOptions{noRetry: true})
	return err
}
