package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// ToDate strips the time-of-day portion, keeping the calendar date in UTC.
// Due-date arithmetic works on date values only; no timezone adjustment.
func ToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths calculates a due date as a calendar-month offset from the anchor
// date. Month arithmetic follows time.AddDate normalization (Jan 31 + 1 month
// = Mar 2/3).
func AddMonths(anchor time.Time, months int) time.Time {
	return ToDate(anchor).AddDate(0, months, 0)
}

// DaysUntil returns the whole-day difference between two calendar dates,
// midnight to midnight. Negative when due is before today.
func DaysUntil(today, due time.Time) int {
	return int(ToDate(due).Sub(ToDate(today)).Hours() / 24)
}

// IsOverdue reports whether the due date is strictly before today.
func IsOverdue(today, due time.Time) bool {
	return DaysUntil(today, due) < 0
}

// SplitEvenly divides a total into n cent-exact parts: every part is the
// result rounded down to 2 decimal places, except the last, which absorbs the
// remainder so the parts sum back to the total exactly.
func SplitEvenly(total decimal.Decimal, n int) []decimal.Decimal {
	base := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)

	parts := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		parts[i] = base
	}
	parts[n-1] = total.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))
	return parts
}

// Percentage returns amount * pct / 100 rounded to 2 decimal places.
func Percentage(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
