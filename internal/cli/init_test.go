package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")
	cfg, err := LoadAndValidateConfig(log.Discard())
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr())

	t.Setenv("DATA_BACKEND", "postgres")
	_, err = LoadAndValidateConfig(log.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
}

func TestOpenBackendMemory(t *testing.T) {
	cfg := config.Load()
	cfg.DataBackend = "memory"
	cfg.AMQPURL = ""

	res, err := OpenBackend(context.Background(), cfg, log.Discard(), true)
	require.NoError(t, err)
	defer res.Cleanup(context.Background())

	_, err = res.Store.AddTask(context.Background(), core.TaskInput{Title: "File taxes", DueDate: "2025-04-15"})
	require.NoError(t, err)
	assert.Len(t, res.Store.Tasks(), 1)
	assert.Nil(t, res.Publisher)
}

func TestGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := GracefulShutdown(ctx, log.Discard(), time.Second, func(ctx context.Context) error {
		called = true
		_, ok := ctx.Deadline()
		assert.True(t, ok, "shutdown runs under a deadline")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	err = GracefulShutdown(ctx, log.Discard(), time.Second, func(context.Context) error {
		return errors.New("listener stuck")
	})
	assert.ErrorContains(t, err, "listener stuck")

	err = GracefulShutdown(ctx, log.Discard(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("Exported 3 records"), "Exported 3 records")
	assert.Contains(t, FormatError("boom"), ErrorIcon)

	var buf bytes.Buffer
	Printf(&buf, FormatInfo, "Wrote %d rows", 2)
	assert.Contains(t, buf.String(), "Wrote 2 rows")
}
