package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DateLayout is the calendar-date form used for transaction and task dates.
const DateLayout = "2006-01-02"

type (
	// ID identifies a transaction or task. New records get a UUID; numeric
	// ids from older exports are accepted and kept as their decimal text.
	ID string

	// Date is an ISO 8601 calendar date kept as text so that a malformed
	// persisted value never prevents the rest of the data from loading.
	Date string

	Priority string

	Transaction struct {
		ID          ID        `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		IsIncome    bool      `json:"isIncome"`
		Note        string    `json:"note,omitempty"`
		Tags        []string  `json:"tags"`
		Recurring   bool      `json:"recurring"`
		CreatedAt   time.Time `json:"createdAt,omitzero"`
		UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	}

	Task struct {
		ID          ID        `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Priority    Priority  `json:"priority"`
		DueDate     Date      `json:"dueDate"`
		Category    string    `json:"category"`
		Completed   bool      `json:"completed"`
		CreatedAt   time.Time `json:"createdAt,omitzero"`
		UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	}

	// TransactionInput carries user-entered transaction fields before validation.
	TransactionInput struct {
		Description string
		Amount      string
		Category    string
		Date        string
		IsIncome    bool
		Note        string
		Tags        []string
		Recurring   bool
	}

	// TaskInput carries user-entered task fields before validation.
	TaskInput struct {
		Title       string
		Description string
		Priority    string
		DueDate     string
		Category    string
	}

	UserProfile struct {
		FullName    string    `json:"fullName"`
		Email       string    `json:"email"`
		Avatar      string    `json:"avatar"`
		AccountType string    `json:"accountType"`
		JoinDate    time.Time `json:"joinDate"`
		Phone       string    `json:"phone"`
	}

	Settings struct {
		DarkMode bool `json:"darkMode"`
		UseINR   bool `json:"useINR"`
	}
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrEmptyEmail       = errors.New("empty email")
	ErrEmptyName        = errors.New("empty name")
)

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// NewDate creates a Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time parses the date. Full RFC 3339 timestamps are accepted as well and
// reduced to their calendar date.
func (d Date) Time() (time.Time, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}

// Valid reports whether the date parses.
func (d Date) Valid() bool {
	_, err := d.Time()
	return err == nil
}

// IsEmpty returns true if no date was given
func (d Date) IsEmpty() bool {
	return strings.TrimSpace(string(d)) == ""
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for display, high first. Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Build validates the input and returns a transaction without id or timestamps.
func (in TransactionInput) Build() (Transaction, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return Transaction{}, invalid("description", ErrEmptyDescription)
	}
	amount, err := ParseMoney(in.Amount)
	if err != nil {
		return Transaction{}, invalid("amount", err)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Transaction{}, invalid("category", ErrEmptyCategory)
	}
	date := Date(strings.TrimSpace(in.Date))
	if !date.Valid() {
		return Transaction{}, invalid("date", ErrInvalidDate)
	}
	return Transaction{
		Description: desc,
		Amount:      amount,
		Category:    category,
		Date:        date,
		IsIncome:    in.IsIncome,
		Note:        strings.TrimSpace(in.Note),
		Tags:        NormalizeTags(in.Tags),
		Recurring:   in.Recurring,
	}, nil
}

// Build validates the input and returns a task without id or timestamps.
func (in TaskInput) Build() (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, invalid("title", ErrEmptyTitle)
	}
	priority := Priority(strings.ToLower(strings.TrimSpace(in.Priority)))
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return Task{}, invalid("priority", ErrInvalidPriority)
	}
	due := Date(strings.TrimSpace(in.DueDate))
	if !due.Valid() {
		return Task{}, invalid("dueDate", ErrInvalidDate)
	}
	return Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		DueDate:     due,
		Category:    strings.TrimSpace(in.Category),
	}, nil
}

// Revalidate applies the TransactionInput rules to a decoded record, keeping
// its id, flags and timestamps.
func (t Transaction) Revalidate() (Transaction, error) {
	out, err := TransactionInput{
		Description: t.Description,
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Date:        string(t.Date),
		IsIncome:    t.IsIncome,
		Note:        t.Note,
		Tags:        t.Tags,
		Recurring:   t.Recurring,
	}.Build()
	if err != nil {
		return Transaction{}, err
	}
	out.ID, out.CreatedAt, out.UpdatedAt = t.ID, t.CreatedAt, t.UpdatedAt
	return out, nil
}

// Revalidate applies the TaskInput rules to a decoded task, keeping its id,
// completion and timestamps.
func (t Task) Revalidate() (Task, error) {
	out, err := TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     string(t.DueDate),
		Category:    t.Category,
	}.Build()
	if err != nil {
		return Task{}, err
	}
	out.ID, out.Completed = t.ID, t.Completed
	out.CreatedAt, out.UpdatedAt = t.CreatedAt, t.UpdatedAt
	return out, nil
}

// NormalizeTags trims tags and drops empty and repeated ones, keeping first-seen order.
func NormalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// AddTag appends tag unless it is blank or already present.
func AddTag(tags []string, tag string) []string {
	return NormalizeTags(append(append([]string(nil), tags...), tag))
}

// RemoveTag returns tags without tag.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// DefaultProfile is the profile used before anyone registers.
func DefaultProfile(now time.Time) UserProfile {
	return UserProfile{
		FullName:    "Demo User",
		Email:       "demo@example.com",
		AccountType: "Standard",
		JoinDate:    now,
	}
}
