// Package format turns amounts and dates into display strings.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
)

// USDToINR converts stored USD-equivalent amounts for display.
const USDToINR = 83

const (
	displayDate = "Jan 2, 2006"
	invalidDate = "Invalid date"
)

var (
	usdPrinter = message.NewPrinter(language.AmericanEnglish)
	inrPrinter = message.NewPrinter(language.MustParse("en-IN"))
)

// Currency renders m with two decimals, as dollars or, when useINR is set,
// converted to rupees. Examples: "$1,234.50", "-$3.00", "₹830.00".
func Currency(m core.Money, useINR bool) string {
	symbol, printer := "$", usdPrinter
	if useINR {
		m = m.Mul(USDToINR)
		symbol, printer = "₹", inrPrinter
	}
	sign := ""
	if m.IsNegative() {
		sign = "-"
		m = core.Money{Decimal: m.Neg()}
	}
	value := m.Round(2).InexactFloat64()
	return sign + symbol + printer.Sprint(number.Decimal(value, number.Scale(2)))
}

// Date renders an ISO date as "Jan 5, 2025".
func Date(d core.Date) string {
	t, err := d.Time()
	if err != nil {
		return invalidDate
	}
	return t.Format(displayDate)
}

// Relative is Date, except that today and yesterday (relative to now's
// calendar day) read "Today" and "Yesterday".
func Relative(d core.Date, now time.Time) string {
	t, err := d.Time()
	if err != nil {
		return invalidDate
	}
	switch core.DateOf(t) {
	case core.DateOf(now):
		return "Today"
	case core.DateOf(now.AddDate(0, 0, -1)):
		return "Yesterday"
	}
	return t.Format(displayDate)
}

// MonthLabel renders a period as "January 2025".
func MonthLabel(p core.Period) string {
	return fmt.Sprintf("%s %d", p.CalendarMonth(), p.Year)
}

// CurrencyName describes the display currency, as used in settings messages.
func CurrencyName(useINR bool) string {
	if useINR {
		return "Indian Rupees (₹)"
	}
	return "US Dollars ($)"
}
