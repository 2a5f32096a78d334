package analytics

import (
	"slices"
	"strings"
	"time"

	"fintrack/internal/core"
)

// TaskStats counts tasks by completion.
type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completionRate"`
	Overdue        int     `json:"overdue"`
}

// TaskSummary computes TaskStats. Overdue is evaluated against today.
func TaskSummary(tasks []core.Task, today time.Time) TaskStats {
	s := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		if IsOverdue(t, today) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Completed
	s.CompletionRate = SafeRatio(float64(s.Completed), float64(s.Total), 0) * 100
	return s
}

// IsOverdue reports whether an open task was due before the start of today.
// Tasks with an unparseable due date are never overdue.
func IsOverdue(t core.Task, today time.Time) bool {
	if t.Completed {
		return false
	}
	due, err := t.DueDate.Time()
	if err != nil {
		return false
	}
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return due.Before(start)
}

// SearchTasks keeps tasks whose title, description or category contains
// term, ignoring case. An empty term keeps everything.
func SearchTasks(tasks []core.Task, term string) []core.Task {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if term == "" ||
			strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) ||
			strings.Contains(strings.ToLower(t.Category), term) {
			out = append(out, t)
		}
	}
	return out
}

// SortPendingTasks returns the open tasks ordered by priority, high first,
// then by due date. Unparseable due dates sort last.
func SortPendingTasks(tasks []core.Task) []core.Task {
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Task) int {
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra - rb
		}
		return compareDates(a.DueDate, b.DueDate)
	})
	return out
}

// SortCompletedTasks returns the completed tasks, most recently updated first.
func SortCompletedTasks(tasks []core.Task) []core.Task {
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Task) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// compareDates orders ascending with unparseable dates after valid ones.
func compareDates(a, b core.Date) int {
	ta, errA := a.Time()
	tb, errB := b.Time()
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ta.Compare(tb)
}
