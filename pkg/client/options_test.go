package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct{ lines int }

func (l *recordingLogger) Debugf(string, ...interface{}) { l.lines++ }
func (l *recordingLogger) Infof(string, ...interface{})  { l.lines++ }
func (l *recordingLogger) Errorf(string, ...interface{}) { l.lines++ }

func TestOptions_Defaults(t *testing.T) {
	c, err := NewClient("http://localhost")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, c.httpClient.Timeout)
	assert.Equal(t, "priviq-go-sdk/"+Version, c.userAgent)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, 500*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
	assert.Empty(t, c.apiKey)
}

func TestOptions_Apply(t *testing.T) {
	hc := &http.Client{}
	l := &recordingLogger{}
	c, err := NewClient("http://localhost",
		WithHTTPClient(hc),
		WithTimeout(2*time.Second),
		WithLogger(l),
		WithRetryMax(0),
		WithRetryWait(time.Second, 3*time.Second),
		WithUserAgent("ua"),
		WithAPIKey("k"),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 2*time.Second, hc.Timeout)
	assert.Same(t, l, c.logger)
	assert.Equal(t, 0, c.retryMax)
	assert.Equal(t, time.Second, c.retryWaitMin)
	assert.Equal(t, 3*time.Second, c.retryWaitMax)
	assert.Equal(t, "ua", c.userAgent)
	assert.Equal(t, "k", c.apiKey)
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	c, err := NewClient("http://localhost",
		WithHTTPClient(nil),
		WithTimeout(0),
		WithLogger(nil),
		WithRetryMax(-1),
		WithRetryWait(time.Second, time.Millisecond),
		WithUserAgent(""),
	)
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
	assert.Equal(t, 60*time.Second, c.httpClient.Timeout)
	assert.IsType(t, noopLogger{}, c.logger)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
	assert.Equal(t, "priviq-go-sdk/"+Version, c.userAgent)
}

func TestBackoff_Bounded(t *testing.T) {
	c, err := NewClient("http://localhost", WithRetryWait(100*time.Millisecond, 300*time.Millisecond))
	require.NoError(t, err)
	for attempt := 1; attempt <= 6; attempt++ {
		d := c.backoff(attempt)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 300*time.Millisecond+75*time.Millisecond)
	}
}
