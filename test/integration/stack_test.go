//go:build integration

// Package integration runs the analysis stack against real Redis and MinIO
// containers. Tests require Docker and are gated behind the "integration"
// build tag.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/bootstrap"
	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
)

const samplePolicy = "We track your location and share data with third-party advertising partners. We encrypt your data."

// startContainer launches the container and returns host:port of its first
// exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func startRedis(t *testing.T) string {
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	})
}

func startMinIO(t *testing.T) string {
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "priviq",
			"MINIO_ROOT_PASSWORD": "priviq-secret",
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	})
}

func newStack(t *testing.T) *bootstrap.Components {
	t.Helper()
	cfg := &config.Config{}
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = startRedis(t)
	cfg.MinIO.Enabled = true
	cfg.MinIO.Endpoint = startMinIO(t)
	cfg.MinIO.AccessKey = "priviq"
	cfg.MinIO.SecretKey = "priviq-secret"
	cfg.MinIO.Bucket = "policies"
	config.ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	comps, err := bootstrap.New(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = comps.Close() })
	return comps
}

func TestObjectStorageRoundTrip(t *testing.T) {
	comps := newStack(t)
	ctx := context.Background()

	ref, err := comps.Objects.PutText(ctx, "acme/privacy.txt", samplePolicy)
	require.NoError(t, err)
	assert.Equal(t, "policies/acme/privacy.txt", ref)

	report, err := comps.Service.Analyze(ctx, &analysis.AnalyzeRequest{Input: source.Input{Object: ref}})
	require.NoError(t, err)
	assert.Equal(t, 12, report.Risk.Score)
	assert.Len(t, report.MissingClauses, 8)
	assert.Empty(t, report.Errors)
}

func TestMissingObject(t *testing.T) {
	comps := newStack(t)

	_, err := comps.Service.Resolve(context.Background(), source.Input{Object: "policies/nope.txt"})
	require.Error(t, err)
}

func TestJobLockExcludesSecondHolder(t *testing.T) {
	comps := newStack(t)
	ctx := context.Background()

	first := comps.Locks.NewMutex("job-1")
	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = comps.Locks.NewMutex("job-1").TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Unlock(ctx))
	ok, err = comps.Locks.NewMutex("job-1").TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
