package core

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period is the selected (month, year) context. Month is zero-based, 0 is January.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()) - 1, Year: t.Year()}
}

// NewPeriod builds a period from a calendar month.
func NewPeriod(year int, month time.Month) Period {
	return Period{Month: int(month) - 1, Year: year}
}

func (p Period) Validate() error {
	if p.Month < 0 || p.Month > 11 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Shift moves by delta months, wrapping across years.
func (p Period) Shift(delta int) Period {
	idx := p.Year*12 + p.Month + delta
	year, month := idx/12, idx%12
	if month < 0 {
		month += 12
		year--
	}
	return Period{Month: month, Year: year}
}

func (p Period) Next() Period {
	return p.Shift(1)
}

func (p Period) Previous() Period {
	return p.Shift(-1)
}

// CalendarMonth returns the time.Month of the period.
func (p Period) CalendarMonth() time.Month {
	return time.Month(p.Month + 1)
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.CalendarMonth(), 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls in the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month())-1 == p.Month
}

// ContainsDate is Contains for a textual date; unparseable dates are never contained.
func (p Period) ContainsDate(d Date) bool {
	t, err := d.Time()
	if err != nil {
		return false
	}
	return p.Contains(t)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month+1)
}
