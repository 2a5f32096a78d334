package analytics

import "math"

// SafeRatio returns num/den, or onZero when den is zero. Each caller picks
// its own zero policy:
//
//	budget overview      100 when spending is positive, else 0
//	monthly averages     divisor floored at 1 before the call
//	percentage change    100 when the new value is positive, else 0
//	completion rate      0
//	weekly trend         100 (onZero 1, scaled by the caller)
func SafeRatio(num, den, onZero float64) float64 {
	if den == 0 {
		return onZero
	}
	return num / den
}

// PercentageChange is round(100*(new-old)/old) with halves rounded up. When
// old is zero the result is 100 if new is positive, otherwise 0.
func PercentageChange(old, new float64) float64 {
	if old == 0 {
		if new > 0 {
			return 100
		}
		return 0
	}
	return roundHalfUp(SafeRatio(new-old, old, 0) * 100)
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Trend is the direction of a percentage change and the color it is shown in.
type Trend struct {
	Direction string `json:"direction"`
	Color     string `json:"color"`
}

const (
	colorBad     = "#f44336"
	colorGood    = "#4caf50"
	colorNeutral = "#ff9800"
)

// ExpenseTrend reads rising spending as bad.
func ExpenseTrend(change float64) Trend {
	switch {
	case change > 0:
		return Trend{Direction: "up", Color: colorBad}
	case change < 0:
		return Trend{Direction: "down", Color: colorGood}
	default:
		return Trend{Direction: "flat", Color: colorNeutral}
	}
}

// IncomeTrend reads rising income as good; no change counts as down.
func IncomeTrend(change float64) Trend {
	if change > 0 {
		return Trend{Direction: "up", Color: colorGood}
	}
	return Trend{Direction: "down", Color: colorBad}
}
