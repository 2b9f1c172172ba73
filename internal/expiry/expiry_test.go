package expiry

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyBoundaries(t *testing.T) {
	today := date(2024, time.June, 15)

	cases := []struct {
		name   string
		expiry *time.Time
		want   Status
	}{
		{"no expiry date", nil, Valid},
		{"yesterday", ptr(date(2024, time.June, 14)), Expired},
		{"today", ptr(date(2024, time.June, 15)), ExpiringSoon},
		{"in 30 days", ptr(date(2024, time.July, 15)), ExpiringSoon},
		{"in 31 days", ptr(date(2024, time.July, 16)), Valid},
		{"next year", ptr(date(2025, time.June, 15)), Valid},
		{"long expired", ptr(date(2020, time.January, 1)), Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.expiry, today); got != tc.want {
				t.Errorf("Classify(%v, %v) = %s, want %s", tc.expiry, today, got, tc.want)
			}
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, time.June, 15, 23, 59, 0, 0, time.UTC)
	expiresTomorrow := time.Date(2024, time.June, 16, 0, 1, 0, 0, time.UTC)
	if got := Classify(&expiresTomorrow, today); got != ExpiringSoon {
		t.Errorf("expected expiring_soon across midnight boundary, got %s", got)
	}
}

func TestDaysUntil(t *testing.T) {
	today := date(2024, time.June, 15)
	if got := DaysUntil(date(2024, time.June, 14), today); got != -1 {
		t.Errorf("DaysUntil(yesterday) = %d, want -1", got)
	}
	if got := DaysUntil(date(2024, time.June, 15), today); got != 0 {
		t.Errorf("DaysUntil(today) = %d, want 0", got)
	}
	if got := DaysUntil(date(2024, time.July, 15), today); got != 30 {
		t.Errorf("DaysUntil(+30) = %d, want 30", got)
	}
}

func ptr(t time.Time) *time.Time { return &t }
