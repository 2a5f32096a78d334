package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "expenses", "[]"))
	require.NoError(t, kv.Set(ctx, "expenses", `[{"id":"1"}]`))
	v, ok, err := kv.Get(ctx, "expenses")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, kv.SetMany(ctx, map[string]string{"darkMode": "true", "useINR": "false"}))
	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"darkMode", "expenses", "useINR"}, keys)

	require.NoError(t, kv.Delete(ctx, "darkMode"))
	require.NoError(t, kv.Delete(ctx, "darkMode"))
	_, ok, err = kv.Get(ctx, "darkMode")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV(nil)
	exerciseKV(t, kv)
	require.NoError(t, kv.Close())

	_, _, err := kv.Get(context.Background(), "expenses")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryKVSeedIsCopied(t *testing.T) {
	seed := map[string]string{"budgets": "{}"}
	kv := NewMemoryKV(seed)
	seed["budgets"] = "changed"
	assert.Equal(t, "{}", kv.Snapshot()["budgets"])
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fintrack.db")
	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)
	exerciseKV(t, kv)
	require.NoError(t, kv.Ping(context.Background()))
	require.NoError(t, kv.Close())

	// Reopening runs migrations again as a no-op and keeps the data.
	reopened, err := NewSQLiteKV(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(context.Background(), "expenses")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")

	v, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	v, err = RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}
