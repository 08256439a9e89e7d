package domain

import "time"

// BusinessDate is a calendar date that is not a Saturday or Sunday.
// Produced only by ResolveBusinessDate / NextBusinessDate, so weekend dates
// never reach the rate key space.
type BusinessDate struct {
	t time.Time
}

// ResolveBusinessDate maps any calendar date to the applicable business date:
// Saturday and Sunday roll back to the preceding Friday, weekdays map to
// themselves. Idempotent.
func ResolveBusinessDate(d time.Time) BusinessDate {
	d = truncateToDay(d)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, -2)
	}
	return BusinessDate{t: d}
}

// NextBusinessDate returns the first business date strictly after d. This is
// the monitor's poll target: on Friday and Saturday it lands on Monday, since
// rolling tomorrow back would point at a date already published.
func NextBusinessDate(d time.Time) BusinessDate {
	d = truncateToDay(d).AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return BusinessDate{t: d}
}

func truncateToDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func (b BusinessDate) Time() time.Time { return b.t }

func (b BusinessDate) String() string { return b.t.Format("2006-01-02") }

func (b BusinessDate) Equal(other BusinessDate) bool { return b.t.Equal(other.t) }

// AddDays shifts the date without re-resolving; used by the lookback scan.
func (b BusinessDate) AddDays(days int) time.Time { return b.t.AddDate(0, 0, days) }
