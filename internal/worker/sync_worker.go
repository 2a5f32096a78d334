// Package worker mirrors store changes into the spreadsheet export.
package worker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// Loader returns the current transactions. The worker runs in its own
// process, so it reads state afresh for every change.
type Loader func(ctx context.Context) ([]core.Transaction, error)

// SyncWorker exports the months touched by transaction changes. Exports skip
// rows whose id is already in the sheet, so replaying a change is harmless.
type SyncWorker struct {
	load     Loader
	exporter sheets.Exporter
	logger   *log.Logger
	now      func() time.Time
}

func NewSyncWorker(load Loader, exporter sheets.Exporter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		load:     load,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleChange processes one change message. It satisfies amqp.Handler.
func (w *SyncWorker) HandleChange(ctx context.Context, msg amqp.ChangeMessage) error {
	if msg.Key != store.KeyExpenses {
		w.logger.DebugContext(ctx, "Ignoring change", log.FieldKey, msg.Key, log.FieldOperation, msg.Op)
		return nil
	}
	if msg.Op == store.OpDelete {
		// Exported rows are append-only.
		w.logger.InfoContext(ctx, "Transaction deleted, sheet rows kept", log.FieldRecordID, msg.ID)
		return nil
	}

	ts, err := w.load(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	var periods []core.Period
	if msg.Op == store.OpReplace {
		periods = Periods(ts)
	} else {
		i := slices.IndexFunc(ts, func(t core.Transaction) bool { return t.ID == msg.ID })
		if i < 0 {
			w.logger.WarnContext(ctx, "Changed transaction no longer exists", log.FieldRecordID, msg.ID)
			return nil
		}
		t, err := ts[i].Date.Time()
		if err != nil {
			return fmt.Errorf("transaction %s: %w", msg.ID, err)
		}
		periods = []core.Period{core.PeriodOf(t)}
	}

	return w.export(ctx, periods, ts)
}

// StartupSync exports the current and previous month, catching up on changes
// published while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	current := core.PeriodOf(w.now())
	ts, err := w.load(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	return w.export(ctx, []core.Period{current.Previous(), current}, ts)
}

func (w *SyncWorker) export(ctx context.Context, periods []core.Period, ts []core.Transaction) error {
	for _, p := range periods {
		res, err := w.exporter.Export(ctx, p, ts)
		if err != nil {
			return fmt.Errorf("export %s: %w", p, err)
		}
		w.logger.InfoContext(ctx, "Synced month to sheet",
			"sheet", res.Sheet,
			log.FieldYear, p.Year,
			log.FieldMonth, p.Month,
			"appended", res.Appended,
			"skipped", res.Skipped)
	}
	return nil
}

// Periods lists the distinct months holding at least one transaction, oldest
// first.
func Periods(ts []core.Transaction) []core.Period {
	seen := make(map[core.Period]struct{})
	var out []core.Period
	for _, t := range ts {
		d, err := t.Date.Time()
		if err != nil {
			continue
		}
		p := core.PeriodOf(d)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b core.Period) int {
		return (a.Year*12 + a.Month) - (b.Year*12 + b.Month)
	})
	return out
}
