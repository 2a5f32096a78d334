package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestPeriodFlags(t *testing.T) {
	now := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		flags   periodFlags
		want    core.Period
		wantErr bool
	}{
		{name: "defaults to now", want: core.NewPeriod(2025, time.March)},
		{name: "month is one-based", flags: periodFlags{month: 1}, want: core.NewPeriod(2025, time.January)},
		{name: "year and month", flags: periodFlags{year: 2024, month: 12}, want: core.NewPeriod(2024, time.December)},
		{name: "month out of range", flags: periodFlags{month: 13}, wantErr: true},
		{name: "negative year", flags: periodFlags{year: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.period(now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandsAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "fintrack.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	in := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(in, []byte(`{
		"expenses": [{"id": 1, "description": "Salary", "amount": 3000, "category": "salary", "date": "2025-03-01", "isIncome": true}],
		"budgets": {"groceries": 400}
	}`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"import", in, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Replaced expenses (1 transactions)")
	assert.Contains(t, out.String(), "Replaced budgets")
	assert.NotContains(t, out.String(), "Replaced tasks")

	out.Reset()
	rootCmd.SetArgs([]string{"export", "--out", "-", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"description": "Salary"`)
	assert.Contains(t, out.String(), `"groceries": 400`)

	out.Reset()
	rootCmd.SetArgs([]string{"sheets-export", "--dry-run", "--year", "2025", "--month", "3", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "2025 Transactions 2025-03: 1 appended, 0 already present")
}
