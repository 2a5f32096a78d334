// Package store holds the canonical application state: transactions, tasks,
// budgets, settings and the local profile. Every successful mutation is
// written to a storage.KV under its top-level key and announced to an
// optional Notifier.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Persisted keys.
const (
	KeyExpenses      = "expenses"
	KeyTasks         = "tasks"
	KeyBudgets       = "budgets"
	KeyDarkMode      = "darkMode"
	KeyUseINR        = "useINR"
	KeyAuthenticated = "isAuthenticated"
	KeyProfile       = "userProfile"
)

// Change operations.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpToggle  = "toggle"
	OpSet     = "set"
	OpReplace = "replace"
)

// Change describes one successful mutation.
type Change struct {
	Key       string    `json:"key"`
	Op        string    `json:"op"`
	ID        core.ID   `json:"id,omitempty"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives changes after they are applied and persisted.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
}

// Snapshot is a deep copy of the state at one revision.
type Snapshot struct {
	Transactions  []core.Transaction `json:"expenses"`
	Tasks         []core.Task        `json:"tasks"`
	Budgets       core.Budgets       `json:"budgets"`
	Settings      core.Settings      `json:"settings"`
	Authenticated bool               `json:"isAuthenticated"`
	Profile       core.UserProfile   `json:"userProfile"`
	Period        core.Period        `json:"period"`
	Revision      uint64             `json:"revision"`
}

// Store is safe for concurrent use. Writers are serialized by one mutex.
type Store struct {
	mu sync.RWMutex

	transactions  []core.Transaction
	tasks         []core.Task
	budgets       core.Budgets
	settings      core.Settings
	authenticated bool
	profile       core.UserProfile
	period        core.Period
	revision      uint64

	kv       storage.KV
	notifier Notifier
	now      func() time.Time
	newID    func() core.ID
	logger   *log.Logger
	events   *log.StructuredLogger
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces core.NewID.
func WithIDGenerator(newID func() core.ID) Option {
	return func(s *Store) { s.newID = newID }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads every persisted key from kv. Missing keys get defaults;
// malformed values are logged and replaced by defaults. Only read errors
// from kv itself fail the call.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		now:    time.Now,
		newID:  core.NewID,
		logger: log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	s.events = log.NewStructuredLogger(s.logger)

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.period = core.PeriodOf(s.now())
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	s.transactions = []core.Transaction{}
	s.tasks = []core.Task{}
	s.budgets = core.DefaultBudgets()
	s.profile = core.DefaultProfile(s.timestamp())

	targets := []struct {
		key string
		dst any
	}{
		{KeyExpenses, &s.transactions},
		{KeyTasks, &s.tasks},
		{KeyBudgets, &s.budgets},
		{KeyProfile, &s.profile},
	}
	for _, t := range targets {
		raw, ok, err := s.kv.Get(ctx, t.key)
		if err != nil {
			return fmt.Errorf("load %s: %w", t.key, err)
		}
		if !ok {
			continue
		}
		if err := decodeInto(raw, t.dst); err != nil {
			s.logger.WarnContext(ctx, "Ignoring malformed persisted value",
				log.FieldKey, t.key, log.FieldError, err.Error())
		}
	}
	if s.transactions == nil {
		s.transactions = []core.Transaction{}
	}
	if s.tasks == nil {
		s.tasks = []core.Task{}
	}
	if s.budgets == nil {
		s.budgets = core.DefaultBudgets()
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{KeyDarkMode, &s.settings.DarkMode},
		{KeyUseINR, &s.settings.UseINR},
		{KeyAuthenticated, &s.authenticated},
	}
	for _, f := range flags {
		raw, ok, err := s.kv.Get(ctx, f.key)
		if err != nil {
			return fmt.Errorf("load %s: %w", f.key, err)
		}
		*f.dst = ok && raw == "true"
	}

	s.logger.InfoContext(ctx, "Record store loaded",
		log.FieldOperation, log.OpLoad,
		"transactions", len(s.transactions),
		"tasks", len(s.tasks))
	return nil
}

// decodeInto unmarshals raw into a scratch value first so a malformed
// payload leaves dst untouched.
func decodeInto(raw string, dst any) error {
	switch d := dst.(type) {
	case *[]core.Transaction:
		var v []core.Transaction
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		*d = v
	case *[]core.Task:
		var v []core.Task
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		*d = v
	case *core.Budgets:
		var v core.Budgets
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		*d = v
	case *core.UserProfile:
		var v core.UserProfile
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		*d = v
	default:
		return fmt.Errorf("unsupported target %T", dst)
	}
	return nil
}

// timestamp is the store clock in UTC at millisecond precision.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// encode returns the persisted form of key. Caller holds s.mu.
func (s *Store) encode(key string) (string, error) {
	var v any
	switch key {
	case KeyExpenses:
		v = s.transactions
	case KeyTasks:
		v = s.tasks
	case KeyBudgets:
		v = s.budgets
	case KeyProfile:
		v = s.profile
	case KeyDarkMode:
		return formatBool(s.settings.DarkMode), nil
	case KeyUseINR:
		return formatBool(s.settings.UseINR), nil
	case KeyAuthenticated:
		return formatBool(s.authenticated), nil
	default:
		return "", fmt.Errorf("unknown key %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return string(b), nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// commit bumps the revision and writes keys. Write failures are logged and
// the in-memory state is kept. Caller holds s.mu for writing.
func (s *Store) commit(ctx context.Context, op string, id core.ID, keys ...string) []Change {
	s.revision++
	ts := s.timestamp()
	changes := make([]Change, 0, len(keys))
	for _, key := range keys {
		s.persist(ctx, key)
		changes = append(changes, Change{Key: key, Op: op, ID: id, Revision: s.revision, Timestamp: ts})
		s.events.LogMutation(ctx, op, key, string(id), s.revision)
	}
	return changes
}

func (s *Store) persist(ctx context.Context, key string) {
	value, err := s.encode(key)
	if err == nil {
		err = s.kv.Set(ctx, key, value)
	}
	if err != nil {
		s.events.LogError(ctx, "Failed to persist key", err, log.ComponentStorage, log.OpPersist,
			log.NewFields().WithRecord(key, "").WithErrorType(log.ErrorTypeDatabase))
	}
}

// announce forwards changes to the notifier. Called without s.mu held.
func (s *Store) announce(ctx context.Context, changes []Change) {
	if s.notifier == nil {
		return
	}
	for _, c := range changes {
		if err := s.notifier.Publish(ctx, c); err != nil {
			s.events.LogError(ctx, "Failed to publish change", err, log.ComponentAMQP, log.OpPublish,
				log.NewFields().WithRecord(c.Key, string(c.ID)).WithErrorType(log.ErrorTypeNetwork))
		}
	}
}

// Flush writes every key in one batch.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	entries := make(map[string]string, 7)
	for _, key := range []string{KeyExpenses, KeyTasks, KeyBudgets, KeyDarkMode, KeyUseINR, KeyAuthenticated, KeyProfile} {
		v, err := s.encode(key)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		entries[key] = v
	}
	s.mu.RUnlock()

	if err := s.kv.SetMany(ctx, entries); err != nil {
		s.logger.ErrorContext(ctx, "Flush failed",
			log.FieldOperation, log.OpFlush, log.FieldError, err.Error())
		return fmt.Errorf("flush: %w", err)
	}
	s.logger.DebugContext(ctx, "Record store flushed",
		log.FieldOperation, log.OpFlush, log.FieldCount, len(entries))
	return nil
}

// Close flushes the state. The KV itself is owned and closed by the caller.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

// Revision is incremented by every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Transactions:  cloneTransactions(s.transactions),
		Tasks:         slices.Clone(s.tasks),
		Budgets:       s.budgets.Clone(),
		Settings:      s.settings,
		Authenticated: s.authenticated,
		Profile:       s.profile,
		Period:        s.period,
		Revision:      s.revision,
	}
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTransactions(s.transactions)
}

func (s *Store) Tasks() []core.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Budgets() core.Budgets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budgets.Clone()
}

func cloneTransactions(ts []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(ts))
	for i, t := range ts {
		t.Tags = slices.Clone(t.Tags)
		out[i] = t
	}
	return out
}
