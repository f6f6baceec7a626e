package client

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/intelligence/lexicon"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
	httpapi "github.com/turtacn/PriviQ/internal/interfaces/http"
	"github.com/turtacn/PriviQ/internal/interfaces/http/handlers"
	"github.com/turtacn/PriviQ/pkg/types/policy"
)

const samplePolicy = "We track your location and share data with third-party advertising partners. We encrypt your data."

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine, err := policyrisk.New(lexicon.Default(), nil)
	require.NoError(t, err)
	svc, err := analysis.NewService(analysis.Deps{Engine: engine, Logger: logging.NewNopLogger()})
	require.NoError(t, err)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Mode:     gin.TestMode,
		Analysis: handlers.NewAnalysisHandler(svc, nil),
		Jobs:     handlers.NewJobHandler(nil, nil),
		Health:   handlers.NewHealthHandler("test"),
		Logger:   logging.NewNopLogger(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient("ftp://example.com")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestClient_Analyze(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)

	report, err := c.Analyze(context.Background(), &policy.Request{Text: samplePolicy})
	require.NoError(t, err)
	assert.Equal(t, 12, report.Risk.Score)
	assert.Equal(t, policy.LevelModerate, report.Risk.Level)
	assert.Len(t, report.Categories, 3)
	assert.Len(t, report.MissingClauses, 8)
	assert.False(t, report.Compliant)
	assert.Empty(t, report.Errors)
	assert.Nil(t, report.Translation)
}

func TestClient_SingleOperations(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	req := &policy.Request{Text: samplePolicy}

	cls, err := c.Classify(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 12, cls.Risk.Score)
	assert.Positive(t, cls.Keywords.Total())

	dens, err := c.ScoreDensity(ctx, req)
	require.NoError(t, err)
	assert.InDelta(t, 12.0/42.0, dens.Density, 1e-9)

	cat, err := c.Categorize(ctx, req)
	require.NoError(t, err)
	assert.Len(t, cat.Categories, 3)

	hl, err := c.Highlight(ctx, req)
	require.NoError(t, err)
	require.Len(t, hl.Highlights, 2)
	assert.Equal(t, policy.BucketHigh, hl.Highlights[0].Bucket)

	comp, err := c.CheckCompliance(ctx, req)
	require.NoError(t, err)
	assert.Len(t, comp.Missing, 8)
}

func TestClient_Summaries(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	sum, err := c.SummarizeExtractive(ctx, &policy.Request{Text: samplePolicy, Sentences: 1})
	require.NoError(t, err)
	assert.Contains(t, sum.Summary, "track")
	assert.NotContains(t, sum.Summary, "encrypt")

	risky, err := c.SummarizeRisky(ctx, &policy.Request{Text: samplePolicy, Keywords: []string{"encrypt"}})
	require.NoError(t, err)
	assert.Contains(t, risky.Summary, "encrypt")

	raw, err := c.DownloadSummary(ctx, &policy.Request{Text: samplePolicy, Sentences: 1})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "track")
}

func TestClient_FileUpload(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)

	res, err := c.Classify(context.Background(), &policy.Request{
		FileName:    "policy.txt",
		FileContent: []byte(samplePolicy),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Risk.Score)
}

func TestClient_LanguagesAndHealth(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)

	langs, err := c.Languages(context.Background())
	require.NoError(t, err)
	assert.Len(t, langs, 8)

	assert.NoError(t, c.Health(context.Background()))
}

func TestClient_APIErrors(t *testing.T) {
	srv := newAPIServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Classify(ctx, &policy.Request{FileName: "policy.pdf", FileContent: []byte("%PDF")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnsupportedMediaType, apiErr.StatusCode)
	assert.Equal(t, "POL_003", apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.Translate(ctx, "hello", "fr")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = c.SubmitJob(ctx, &policy.Request{Text: samplePolicy})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "COMMON_015", apiErr.Code)
	assert.False(t, apiErr.IsServerError())
}

func TestClient_RetriesOnUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"COMMON_008","message":"unavailable"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"keywords":{"high":["sell"],"moderate":[],"low":[]},"risk":{"score":3,"level":"Low"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	res, err := c.Classify(context.Background(), &policy.Request{Text: "We sell data."})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Risk.Score)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GivesUpAfterRetryMax(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithRetryMax(2))
	_, err := c.Classify(context.Background(), &policy.Request{Text: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_NoRetryOnClientErrorOrJobs(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/api/v1/jobs" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Classify(context.Background(), &policy.Request{Text: "x"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.SubmitJob(context.Background(), &policy.Request{Text: "x"})
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_RateLimitedHonorsRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"density":0.5}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	start := time.Now()
	res, err := c.ScoreDensity(context.Background(), &policy.Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Density)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Classify(ctx, &policy.Request{Text: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithAPIKey("secret"), WithUserAgent("cli/1"))
	audio, err := c.Speak(context.Background(), "hello", "en")
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(audio))
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "cli/1", got.Get("User-Agent"))
	assert.Equal(t, "audio/mpeg", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.JSONEq(t, `{"text":"hello","language":"en"}`, string(body))
}

func TestRequest_FileContentIsBase64(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Classify(context.Background(), &policy.Request{FileName: "a.txt", FileContent: []byte("hi")})
	require.NoError(t, err)
	assert.Contains(t, string(body), base64.StdEncoding.EncodeToString([]byte("hi")))
}
