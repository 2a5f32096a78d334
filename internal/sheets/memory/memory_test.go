package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	s := New("")
	jan := core.NewPeriod(2025, time.January)
	ts := []core.Transaction{
		{ID: "a", Description: "Rent", Amount: core.MoneyFromInt(900), Category: "housing", Date: "2025-01-01"},
		{ID: "b", Description: "Bus", Amount: core.MoneyFromInt(2), Category: "transport", Date: "2025-02-01"},
	}

	res, err := s.Export(context.Background(), jan, ts)
	require.NoError(t, err)
	assert.Equal(t, sheets.Result{Sheet: "2025 Transactions", Appended: 1}, res)

	res, err = s.Export(context.Background(), jan, ts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Appended)
	assert.Equal(t, 1, res.Skipped)

	rows := s.Rows("2025 Transactions")
	require.Len(t, rows, 2)
	assert.Equal(t, sheets.Header, rows[0])
	assert.Equal(t, "Housing", rows[1][2])
}
