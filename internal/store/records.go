package store

import (
	"context"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// AddTransaction validates in and appends a new transaction.
func (s *Store) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	t, err := in.Build()
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	now := s.timestamp()
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.transactions = append(s.transactions, t)
	changes := s.commit(ctx, OpCreate, t.ID, KeyExpenses)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return cloneTransactions([]core.Transaction{t})[0], nil
}

// UpdateTransaction validates in and merges it into the transaction with id.
// A missing id is not an error: found is false and nothing changes.
func (s *Store) UpdateTransaction(ctx context.Context, id core.ID, in core.TransactionInput) (core.Transaction, bool, error) {
	fields, err := in.Build()
	if err != nil {
		return core.Transaction{}, false, err
	}

	s.mu.Lock()
	i := indexOfTransaction(s.transactions, id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, nil
	}
	t := s.transactions[i]
	t.Description = fields.Description
	t.Amount = fields.Amount
	t.Category = fields.Category
	t.Date = fields.Date
	t.IsIncome = fields.IsIncome
	t.Note = fields.Note
	t.Tags = fields.Tags
	t.Recurring = fields.Recurring
	t.UpdatedAt = s.timestamp()
	s.transactions[i] = t
	changes := s.commit(ctx, OpUpdate, id, KeyExpenses)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return cloneTransactions([]core.Transaction{t})[0], true, nil
}

// DeleteTransaction removes every transaction with id. It is idempotent and
// reports whether anything was removed.
func (s *Store) DeleteTransaction(ctx context.Context, id core.ID) bool {
	s.mu.Lock()
	if indexOfTransaction(s.transactions, id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.transactions = slices.DeleteFunc(slices.Clone(s.transactions), func(t core.Transaction) bool { return t.ID == id })
	changes := s.commit(ctx, OpDelete, id, KeyExpenses)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return true
}

// Transaction returns the transaction with id.
func (s *Store) Transaction(id core.ID) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOfTransaction(s.transactions, id)
	if i < 0 {
		return core.Transaction{}, false
	}
	return cloneTransactions(s.transactions[i : i+1])[0], true
}

// AddTask validates in and appends a new open task.
func (s *Store) AddTask(ctx context.Context, in core.TaskInput) (core.Task, error) {
	t, err := in.Build()
	if err != nil {
		return core.Task{}, err
	}

	s.mu.Lock()
	now := s.timestamp()
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks = append(s.tasks, t)
	changes := s.commit(ctx, OpCreate, t.ID, KeyTasks)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return t, nil
}

// UpdateTask validates in and merges it into the task with id. Completion
// state is kept. A missing id reports found false.
func (s *Store) UpdateTask(ctx context.Context, id core.ID, in core.TaskInput) (core.Task, bool, error) {
	fields, err := in.Build()
	if err != nil {
		return core.Task{}, false, err
	}

	s.mu.Lock()
	i := indexOfTask(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return core.Task{}, false, nil
	}
	t := s.tasks[i]
	t.Title = fields.Title
	t.Description = fields.Description
	t.Priority = fields.Priority
	t.DueDate = fields.DueDate
	t.Category = fields.Category
	t.UpdatedAt = s.timestamp()
	s.tasks[i] = t
	changes := s.commit(ctx, OpUpdate, id, KeyTasks)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return t, true, nil
}

// DeleteTask removes every task with id; idempotent.
func (s *Store) DeleteTask(ctx context.Context, id core.ID) bool {
	s.mu.Lock()
	if indexOfTask(s.tasks, id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = slices.DeleteFunc(slices.Clone(s.tasks), func(t core.Task) bool { return t.ID == id })
	changes := s.commit(ctx, OpDelete, id, KeyTasks)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return true
}

// ToggleTask flips completion and stamps UpdatedAt.
func (s *Store) ToggleTask(ctx context.Context, id core.ID) (core.Task, bool) {
	s.mu.Lock()
	i := indexOfTask(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return core.Task{}, false
	}
	t := s.tasks[i]
	t.Completed = !t.Completed
	t.UpdatedAt = s.timestamp()
	s.tasks[i] = t
	changes := s.commit(ctx, OpToggle, id, KeyTasks)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return t, true
}

// SetBudget parses amount and overwrites the category's limit. Negative
// limits are accepted.
func (s *Store) SetBudget(ctx context.Context, categoryID, amount string) (core.Money, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return core.Money{}, core.NewValidationError("category", core.ErrEmptyCategory)
	}
	m, err := core.ParseSignedMoney(amount)
	if err != nil {
		return core.Money{}, core.NewValidationError("amount", err)
	}

	s.mu.Lock()
	if s.budgets == nil {
		s.budgets = core.Budgets{}
	}
	s.budgets[categoryID] = m
	changes := s.commit(ctx, OpSet, core.ID(categoryID), KeyBudgets)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return m, nil
}

func indexOfTransaction(ts []core.Transaction, id core.ID) int {
	for i := range ts {
		if ts[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfTask(ts []core.Task, id core.ID) int {
	for i := range ts {
		if ts[i].ID == id {
			return i
		}
	}
	return -1
}
