package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ExportData is the portable subset of the state.
type ExportData struct {
	Expenses []core.Transaction `json:"expenses"`
	Tasks    []core.Task        `json:"tasks"`
	Budgets  core.Budgets       `json:"budgets"`
}

// ExportFile is ExportData plus the download name it is offered under.
type ExportFile struct {
	Name string
	Data ExportData
}

// ImportResult tells which collections an import replaced.
type ImportResult struct {
	Expenses     bool `json:"expenses"`
	Tasks        bool `json:"tasks"`
	Budgets      bool `json:"budgets"`
	Transactions int  `json:"transactionCount"`
	TaskCount    int  `json:"taskCount"`
}

var errNothingToImport = errors.New("no expenses, tasks or budgets found")

// ExportFileName is finance_task_tracker_data_<YYYY-MM-DD>.json for the UTC date of now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("finance_task_tracker_data_%s.json", now.UTC().Format(core.DateLayout))
}

// JSON renders the file body, indented by two spaces.
func (f ExportFile) JSON() ([]byte, error) {
	return json.MarshalIndent(f.Data, "", "  ")
}

// Export copies expenses, tasks and budgets.
func (s *Store) Export() ExportFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ExportFile{
		Name: ExportFileName(s.now()),
		Data: ExportData{
			Expenses: cloneTransactions(s.transactions),
			Tasks:    append([]core.Task{}, s.tasks...),
			Budgets:  s.budgets.Clone(),
		},
	}
}

// Import replaces expenses when the payload's expenses field is an array,
// tasks likewise, and budgets when it is an object. Absent or differently
// shaped fields are left alone. Malformed JSON, a non-object payload, an
// undecodable field, a record that fails the add-time validation or a
// payload with none of the three fields returns a *core.ImportFormatError
// and changes nothing. Missing and repeated ids are replaced by fresh ones.
func (s *Store) Import(ctx context.Context, data []byte) (ImportResult, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return ImportResult{}, &core.ImportFormatError{Err: err}
	}
	if payload == nil {
		return ImportResult{}, &core.ImportFormatError{Err: errNothingToImport}
	}

	var (
		res      ImportResult
		expenses []core.Transaction
		tasks    []core.Task
		budgets  core.Budgets
	)
	if raw, ok := payload[KeyExpenses]; ok && isJSONArray(raw) {
		if err := json.Unmarshal(raw, &expenses); err != nil {
			return ImportResult{}, &core.ImportFormatError{Err: fmt.Errorf("expenses: %w", err)}
		}
		res.Expenses = true
		res.Transactions = len(expenses)
	}
	if raw, ok := payload[KeyTasks]; ok && isJSONArray(raw) {
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return ImportResult{}, &core.ImportFormatError{Err: fmt.Errorf("tasks: %w", err)}
		}
		res.Tasks = true
		res.TaskCount = len(tasks)
	}
	if raw, ok := payload[KeyBudgets]; ok && isJSONObject(raw) {
		if err := json.Unmarshal(raw, &budgets); err != nil {
			return ImportResult{}, &core.ImportFormatError{Err: fmt.Errorf("budgets: %w", err)}
		}
		res.Budgets = true
	}
	if !res.Expenses && !res.Tasks && !res.Budgets {
		return ImportResult{}, &core.ImportFormatError{Err: errNothingToImport}
	}

	for i := range expenses {
		t, err := expenses[i].Revalidate()
		if err != nil {
			// %v keeps the payload a format error rather than a field error.
			return ImportResult{}, &core.ImportFormatError{Err: fmt.Errorf("expenses[%d]: %v", i, err)}
		}
		expenses[i] = t
	}
	for i := range tasks {
		t, err := tasks[i].Revalidate()
		if err != nil {
			return ImportResult{}, &core.ImportFormatError{Err: fmt.Errorf("tasks[%d]: %v", i, err)}
		}
		tasks[i] = t
	}

	s.mu.Lock()
	var keys []string
	if res.Expenses {
		seen := make(map[core.ID]struct{}, len(expenses))
		for i := range expenses {
			expenses[i].ID = s.uniqueID(expenses[i].ID, seen)
		}
		s.transactions = expenses
		keys = append(keys, KeyExpenses)
	}
	if res.Tasks {
		seen := make(map[core.ID]struct{}, len(tasks))
		for i := range tasks {
			tasks[i].ID = s.uniqueID(tasks[i].ID, seen)
		}
		s.tasks = tasks
		keys = append(keys, KeyTasks)
	}
	if res.Budgets {
		s.budgets = budgets
		keys = append(keys, KeyBudgets)
	}
	changes := s.commit(ctx, OpReplace, "", keys...)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Data imported",
		log.FieldOperation, log.OpImport,
		"transactions", res.Transactions,
		"tasks", res.TaskCount,
		"budgets", res.Budgets)
	s.announce(ctx, changes)
	return res, nil
}

// uniqueID returns id unless it is empty or already in seen, in which case
// a fresh one is generated. The result is added to seen.
func (s *Store) uniqueID(id core.ID, seen map[core.ID]struct{}) core.ID {
	if _, dup := seen[id]; id == "" || dup {
		id = s.newID()
	}
	seen[id] = struct{}{}
	return id
}

func isJSONArray(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}
