package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (n *recordingNotifier) Publish(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return n.err
}

func (n *recordingNotifier) all() []Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Change(nil), n.changes...)
}

func sequentialIDs() func() core.ID {
	var mu sync.Mutex
	n := 0
	return func() core.ID {
		mu.Lock()
		defer mu.Unlock()
		n++
		return core.ID(fmt.Sprintf("id-%d", n))
	}
}

func newTestStore(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryKV(nil)
	}
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithLogger(log.Discard()),
	}
	s, err := Open(context.Background(), kv, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func groceries() core.TransactionInput {
	return core.TransactionInput{
		Description: "Groceries",
		Amount:      "40",
		Category:    "food",
		Date:        "2025-01-10",
		Tags:        []string{"weekly"},
	}
}

func TestOpenDefaults(t *testing.T) {
	s := newTestStore(t, nil)
	snap := s.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.NotNil(t, snap.Transactions)
	assert.Empty(t, snap.Tasks)
	assert.Equal(t, "500", snap.Budgets["food"].String())
	assert.Equal(t, "Demo User", snap.Profile.FullName)
	assert.False(t, snap.Authenticated)
	assert.Equal(t, core.NewPeriod(2025, time.January), snap.Period)
	assert.Zero(t, snap.Revision)
}

func TestOpenLoadsPersistedStateAndSkipsMalformed(t *testing.T) {
	kv := storage.NewMemoryKV(map[string]string{
		KeyExpenses:      `[{"id":1736000000000,"description":"Salary","amount":100,"category":"income","date":"2025-01-05","isIncome":true,"tags":[],"recurring":false}]`,
		KeyTasks:         `{not json`,
		KeyBudgets:       `{"food":0}`,
		KeyDarkMode:      "true",
		KeyUseINR:        "yes",
		KeyAuthenticated: "true",
	})
	s := newTestStore(t, kv)
	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, core.ID("1736000000000"), snap.Transactions[0].ID)
	assert.Empty(t, snap.Tasks)
	assert.Equal(t, core.Budgets{"food": core.MoneyFromInt(0)}.Total().String(), snap.Budgets.Total().String())
	assert.True(t, snap.Settings.DarkMode)
	assert.False(t, snap.Settings.UseINR)
	assert.True(t, snap.Authenticated)
}

func TestAddTransactionPersistsAndNotifies(t *testing.T) {
	kv := storage.NewMemoryKV(nil)
	n := &recordingNotifier{}
	s := newTestStore(t, kv, WithNotifier(n))

	tx, err := s.AddTransaction(context.Background(), groceries())
	require.NoError(t, err)
	assert.Equal(t, core.ID("id-1"), tx.ID)
	assert.Equal(t, fixedNow, tx.CreatedAt)
	assert.Equal(t, uint64(1), s.Revision())

	raw := kv.Snapshot()[KeyExpenses]
	assert.Contains(t, raw, `"description":"Groceries"`)
	assert.Contains(t, raw, `"amount":40`)

	changes := n.all()
	require.Len(t, changes, 1)
	assert.Equal(t, Change{Key: KeyExpenses, Op: OpCreate, ID: "id-1", Revision: 1, Timestamp: fixedNow}, changes[0])
}

func TestAddTransactionValidationDoesNotMutate(t *testing.T) {
	s := newTestStore(t, nil)
	in := groceries()
	in.Amount = ""
	_, err := s.AddTransaction(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, s.Transactions())
	assert.Zero(t, s.Revision())
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	tx, err := s.AddTransaction(ctx, groceries())
	require.NoError(t, err)

	in := groceries()
	in.Amount = "55.5"
	in.Tags = nil
	updated, found, err := s.UpdateTransaction(ctx, tx.ID, in)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tx.ID, updated.ID)
	assert.Equal(t, tx.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "55.5", updated.Amount.String())
	assert.Nil(t, updated.Tags)

	before := s.Snapshot()
	_, found, err = s.UpdateTransaction(ctx, "missing", groceries())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before.Revision, s.Revision())

	in.Description = ""
	_, _, err = s.UpdateTransaction(ctx, tx.ID, in)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDeleteTransactionIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a, _ := s.AddTransaction(ctx, groceries())
	_, _ = s.AddTransaction(ctx, groceries())

	assert.True(t, s.DeleteTransaction(ctx, a.ID))
	once := s.Transactions()
	assert.False(t, s.DeleteTransaction(ctx, a.ID))
	assert.Equal(t, once, s.Transactions())
	require.Len(t, once, 1)
	assert.Equal(t, core.ID("id-2"), once[0].ID)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, err := s.AddTransaction(ctx, groceries())
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Transactions[0].Tags[0] = "mutated"
	snap.Budgets["food"] = core.MoneyFromInt(1)

	assert.Equal(t, "weekly", s.Transactions()[0].Tags[0])
	assert.Equal(t, "500", s.Budgets()["food"].String())
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	task, err := s.AddTask(ctx, core.TaskInput{Title: "Pay rent", Priority: "high", DueDate: "2025-01-31", Category: "housing"})
	require.NoError(t, err)
	assert.False(t, task.Completed)

	toggled, ok := s.ToggleTask(ctx, task.ID)
	require.True(t, ok)
	assert.True(t, toggled.Completed)

	updated, found, err := s.UpdateTask(ctx, task.ID, core.TaskInput{Title: "Pay rent now", Priority: "low", DueDate: "2025-01-30"})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, updated.Completed)
	assert.Equal(t, core.PriorityLow, updated.Priority)
	assert.Equal(t, core.Date("2025-01-30"), updated.DueDate)

	_, ok = s.ToggleTask(ctx, "missing")
	assert.False(t, ok)

	_, err = s.AddTask(ctx, core.TaskInput{Title: "x", DueDate: ""})
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.True(t, s.DeleteTask(ctx, task.ID))
	assert.False(t, s.DeleteTask(ctx, task.ID))
	assert.Empty(t, s.Tasks())
}

func TestSetBudget(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	m, err := s.SetBudget(ctx, "food", "650,50")
	require.NoError(t, err)
	assert.Equal(t, "650.5", m.String())

	m, err = s.SetBudget(ctx, "travel", "-10")
	require.NoError(t, err)
	assert.Equal(t, "-10", m.String())

	_, err = s.SetBudget(ctx, "food", "lots")
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, "650.5", s.Budgets()["food"].String())
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, nil)
	_, err := src.AddTransaction(ctx, groceries())
	require.NoError(t, err)
	salary := groceries()
	salary.Description, salary.IsIncome, salary.Category, salary.Tags = "Salary", true, "income", nil
	_, err = src.AddTransaction(ctx, salary)
	require.NoError(t, err)
	_, err = src.AddTask(ctx, core.TaskInput{Title: "Review", DueDate: "2025-01-15"})
	require.NoError(t, err)
	_, err = src.SetBudget(ctx, "food", "123.45")
	require.NoError(t, err)

	file := src.Export()
	assert.Equal(t, "finance_task_tracker_data_2025-01-20.json", file.Name)
	body, err := file.JSON()
	require.NoError(t, err)

	dst := newTestStore(t, nil)
	res, err := dst.Import(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Expenses: true, Tasks: true, Budgets: true, Transactions: 2, TaskCount: 1}, res)

	again, err := dst.Export().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(again))
	assert.Equal(t, src.Transactions()[0].ID, dst.Transactions()[0].ID)
}

func TestImportPartialAndMalformed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	_, err := s.AddTransaction(ctx, groceries())
	require.NoError(t, err)
	rev := s.Revision()

	for _, body := range []string{
		`{broken`, `[]`, `null`, `{"other":1}`, `{"expenses":[{"amount":"x"}]}`,
		`{"expenses":[{"id":1,"description":"Refund","amount":-50,"category":"food","date":"2025-01-05"}]}`,
		`{"expenses":[{"id":1,"description":"","amount":5,"category":"food","date":"2025-01-05"}]}`,
		`{"expenses":[{"id":1,"description":"Lunch","amount":5,"category":"food","date":"soon"}]}`,
		`{"tasks":[{"id":1,"title":"Call bank","priority":"urgent","dueDate":"2025-01-05"}]}`,
		`{"tasks":[{"id":1,"title":" ","dueDate":"2025-01-05"}]}`,
	} {
		_, err := s.Import(ctx, []byte(body))
		require.Error(t, err, body)
		assert.ErrorIs(t, err, core.ErrImportFormat, body)
	}
	assert.Equal(t, rev, s.Revision())
	assert.Len(t, s.Transactions(), 1)

	res, err := s.Import(ctx, []byte(`{"budgets":{"food":75},"tasks":"not-an-array"}`))
	require.NoError(t, err)
	assert.True(t, res.Budgets)
	assert.False(t, res.Tasks)
	assert.Len(t, s.Transactions(), 1)
	assert.Equal(t, core.Budgets{"food": core.MoneyFromInt(75)}.Total().String(), s.Budgets().Total().String())
	assert.Len(t, s.Budgets(), 1)

	res, err = s.Import(ctx, []byte(`{"expenses":[{"description":"No id","amount":5,"category":"other","date":"2025-01-02"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Transactions)
	require.Len(t, s.Transactions(), 1)
	assert.NotEmpty(t, s.Transactions()[0].ID)

	_, err = s.Import(ctx, []byte(`{"expenses":[{"id":1,"description":" Lunch ","amount":12,"category":"food","date":"2025-01-05","tags":["work"," work","","team"]}]}`))
	require.NoError(t, err)
	got := s.Transactions()[0]
	assert.Equal(t, "Lunch", got.Description)
	assert.Equal(t, []string{"work", "team"}, got.Tags)
}

func TestImportRepeatedIDsAndDeleteIdempotence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	_, err := s.Import(ctx, []byte(`{
		"expenses":[
			{"id":1,"description":"Lunch","amount":12,"category":"food","date":"2025-01-05"},
			{"id":1,"description":"Taxi","amount":20,"category":"transport","date":"2025-01-05"}
		],
		"tasks":[
			{"id":7,"title":"Pay rent","dueDate":"2025-01-31","completed":true},
			{"id":7,"title":"Call bank","dueDate":"2025-01-31"}
		]}`))
	require.NoError(t, err)

	ts := s.Transactions()
	require.Len(t, ts, 2)
	assert.Equal(t, core.ID("1"), ts[0].ID)
	assert.NotEqual(t, ts[0].ID, ts[1].ID)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
	assert.True(t, tasks[0].Completed)

	assert.True(t, s.DeleteTransaction(ctx, "1"))
	once := s.Transactions()
	assert.False(t, s.DeleteTransaction(ctx, "1"))
	assert.Equal(t, once, s.Transactions())
	require.Len(t, once, 1)
	assert.Equal(t, "Taxi", once[0].Description)

	// Records persisted with a shared id are all removed by one delete.
	kv := storage.NewMemoryKV(map[string]string{
		KeyExpenses: `[{"id":"9","description":"A","amount":1,"category":"food","date":"2025-01-05"},` +
			`{"id":"9","description":"B","amount":2,"category":"food","date":"2025-01-06"}]`,
		KeyTasks: `[{"id":"3","title":"A","priority":"low","dueDate":"2025-01-05"},` +
			`{"id":"3","title":"B","priority":"low","dueDate":"2025-01-06"}]`,
	})
	loaded := newTestStore(t, kv)
	require.Len(t, loaded.Transactions(), 2)
	assert.True(t, loaded.DeleteTransaction(ctx, "9"))
	assert.Empty(t, loaded.Transactions())
	assert.True(t, loaded.DeleteTask(ctx, "3"))
	assert.Empty(t, loaded.Tasks())
}

func TestAuthAndSettings(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(nil)
	s := newTestStore(t, kv)

	p, err := s.Login(ctx, "demo@example.com")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Demo User", p.FullName)

	p, err = s.Login(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)

	_, err = s.Login(ctx, " ")
	assert.ErrorIs(t, err, core.ErrEmptyEmail)

	p, err = s.Register(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Standard", p.AccountType)

	p.Phone = "555"
	p.JoinDate = time.Time{}
	updated := s.UpdateProfile(ctx, p)
	assert.Equal(t, fixedNow, updated.JoinDate)

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "555", s.Profile().Phone)

	s.SetDarkMode(ctx, true)
	settings := s.SetUseINR(ctx, true)
	assert.Equal(t, core.Settings{DarkMode: true, UseINR: true}, settings)

	persisted := kv.Snapshot()
	assert.Equal(t, "false", persisted[KeyAuthenticated])
	assert.Equal(t, "true", persisted[KeyDarkMode])
	assert.Equal(t, "true", persisted[KeyUseINR])
	assert.Contains(t, persisted[KeyProfile], `"phone":"555"`)
}

func TestPeriodNavigation(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Equal(t, core.NewPeriod(2024, time.December), s.ShiftPeriod(-1))
	assert.Equal(t, core.NewPeriod(2025, time.January), s.ShiftPeriod(1))
	require.NoError(t, s.SetPeriod(core.NewPeriod(2023, time.June)))
	assert.Equal(t, core.NewPeriod(2023, time.June), s.Period())
	assert.ErrorIs(t, s.SetPeriod(core.Period{Month: 12, Year: 2023}), core.ErrValidation)
}

type failingKV struct {
	*storage.MemoryKV
}

func (f failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestPersistenceFailureKeepsState(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s := newTestStore(t, failingKV{storage.NewMemoryKV(nil)}, WithNotifier(n))
	_, err := s.AddTransaction(context.Background(), groceries())
	require.NoError(t, err)
	assert.Len(t, s.Transactions(), 1)
	assert.Len(t, n.all(), 1)
}

func TestFlushWritesEveryKey(t *testing.T) {
	kv := storage.NewMemoryKV(nil)
	s := newTestStore(t, kv)
	require.NoError(t, s.Close(context.Background()))
	snap := kv.Snapshot()
	for _, key := range []string{KeyExpenses, KeyTasks, KeyBudgets, KeyDarkMode, KeyUseINR, KeyAuthenticated, KeyProfile} {
		assert.Contains(t, snap, key)
	}
	assert.Equal(t, "[]", snap[KeyExpenses])
}

func TestLoadAndFlushAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})

	s := newTestStore(t, nil, WithLogger(logger))
	assert.Contains(t, buf.String(), "operation=load")
	assert.Contains(t, buf.String(), "component=store")

	buf.Reset()
	require.NoError(t, s.Flush(context.Background()))
	assert.Contains(t, buf.String(), "Record store flushed")
	assert.Contains(t, buf.String(), "operation=flush")
}

func TestConcurrentMutations(t *testing.T) {
	s := newTestStore(t, nil, WithIDGenerator(core.NewID))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddTransaction(ctx, groceries())
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Transactions(), 20)
	assert.Equal(t, uint64(20), s.Revision())
}
