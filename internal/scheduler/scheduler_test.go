package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopJobs() (AdvisoryRunner, EvictionRunner) {
	return func(context.Context) error { return nil },
		func(context.Context) (int64, error) { return 0, nil }
}

func TestScheduler_StartAndStop(t *testing.T) {
	advisory, eviction := noopJobs()
	s := New("0 6 * * *", advisory, eviction, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_InvalidCronSpec(t *testing.T) {
	advisory, eviction := noopJobs()
	s := New("not a cron spec", advisory, eviction, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, s.Start())
	s.Stop()
}
