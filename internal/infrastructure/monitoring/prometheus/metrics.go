package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the metric families exported by PriviQ binaries.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Analysis
	AnalysisOperationsTotal   CounterVec
	AnalysisOperationDuration HistogramVec
	AnalysisSectionFailures   CounterVec
	DocumentBytes             HistogramVec
	RiskLevelsTotal           CounterVec

	// Collaborators
	SourceFetchTotal    CounterVec
	SourceFetchDuration HistogramVec
	SpeechRequestsTotal CounterVec
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec

	// Jobs
	JobsPublishedTotal CounterVec
	JobsConsumedTotal  CounterVec
	JobDuration        HistogramVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultFetchDurationBuckets    = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultDocumentSizeBuckets     = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576}
)

// NewAppMetrics registers every family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total unary gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "Unary gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	m.AnalysisOperationsTotal = collector.RegisterCounter("analysis_operations_total", "Analysis operations by outcome", "operation", "status")
	m.AnalysisOperationDuration = collector.RegisterHistogram("analysis_operation_duration_seconds", "Analysis operation duration", DefaultAnalysisDurationBuckets, "operation")
	m.AnalysisSectionFailures = collector.RegisterCounter("analysis_section_failures_total", "Report sections that failed", "section")
	m.DocumentBytes = collector.RegisterHistogram("document_bytes", "Size of analyzed documents", DefaultDocumentSizeBuckets, "source")
	m.RiskLevelsTotal = collector.RegisterCounter("risk_levels_total", "Documents by overall risk level", "level")

	m.SourceFetchTotal = collector.RegisterCounter("source_fetch_total", "Document fetches by source kind", "source", "status")
	m.SourceFetchDuration = collector.RegisterHistogram("source_fetch_duration_seconds", "Document fetch duration", DefaultFetchDurationBuckets, "source")
	m.SpeechRequestsTotal = collector.RegisterCounter("speech_requests_total", "Translation and speech calls", "operation", "status")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.JobsPublishedTotal = collector.RegisterCounter("jobs_published_total", "Analysis jobs enqueued", "status")
	m.JobsConsumedTotal = collector.RegisterCounter("jobs_consumed_total", "Analysis jobs processed", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Analysis job duration", DefaultFetchDurationBuckets)

	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// The helpers below accept a nil *AppMetrics so callers can run without
// metrics configured.

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordGRPCRequest(m *AppMetrics, service, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

func RecordOperation(m *AppMetrics, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.AnalysisOperationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.AnalysisOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordSectionFailure(m *AppMetrics, section string) {
	if m == nil {
		return
	}
	m.AnalysisSectionFailures.WithLabelValues(section).Inc()
}

func RecordDocument(m *AppMetrics, source string, size int, level string) {
	if m == nil {
		return
	}
	m.DocumentBytes.WithLabelValues(source).Observe(float64(size))
	if level != "" {
		m.RiskLevelsTotal.WithLabelValues(level).Inc()
	}
}

func RecordSourceFetch(m *AppMetrics, source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SourceFetchTotal.WithLabelValues(source, statusLabel(err)).Inc()
	m.SourceFetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func RecordSpeechCall(m *AppMetrics, operation string, err error) {
	if m == nil {
		return
	}
	m.SpeechRequestsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordJobPublished(m *AppMetrics, err error) {
	if m == nil {
		return
	}
	m.JobsPublishedTotal.WithLabelValues(statusLabel(err)).Inc()
}

func RecordJobConsumed(m *AppMetrics, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.JobsConsumedTotal.WithLabelValues(statusLabel(err)).Inc()
	m.JobDuration.WithLabelValues().Observe(d.Seconds())
}
