// Package expiry classifies documents by how close their expiry date is.
package expiry

import "time"

type Status string

const (
	Valid        Status = "valid"
	ExpiringSoon Status = "expiring_soon"
	Expired      Status = "expired"
)

// ExpiringSoonWindowDays is the lookahead window for the notification badge.
const ExpiringSoonWindowDays = 30

// Classify buckets a document by expiry proximity. A document without an
// expiry date is always valid. Boundaries are inclusive: expiring today and
// expiring in exactly 30 days both count as expiring_soon.
func Classify(expiryDate *time.Time, today time.Time) Status {
	if expiryDate == nil {
		return Valid
	}
	days := DaysUntil(*expiryDate, today)
	switch {
	case days < 0:
		return Expired
	case days <= ExpiringSoonWindowDays:
		return ExpiringSoon
	default:
		return Valid
	}
}

// DaysUntil returns whole calendar days from today until the given date,
// negative when the date is in the past. Both inputs are truncated to
// midnight so time-of-day never shifts the bucket.
func DaysUntil(date, today time.Time) int {
	date = truncate(date)
	today = truncate(today)
	return int(date.Sub(today).Hours() / 24)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
