package utils

import (
	"time"
)

// Subscription arithmetic works on calendar dates, not instants. Every date
// persisted by the ledger is normalized to UTC midnight so that the lazy
// expiry check and the screener predicate compare the same value and cannot
// disagree around midnight or DST shifts.

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current UTC calendar date.
func Today() time.Time {
	return DateOf(time.Now())
}

// AddDays returns the date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween is the number of whole days from 'from' until 'to'; negative
// when 'to' is earlier.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
