package mtbi

import "time"

// LagDays is the number of days the series stays behind the run date. The
// warehouse may still be writing records for today and yesterday.
const LagDays = 2

// Day returns the calendar date of t as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LagBoundary returns the most recent date allowed in the daily series.
func LagBoundary(today time.Time) time.Time {
	return Day(today).AddDate(0, 0, -LagDays)
}

func Eligible(date time.Time, today time.Time) bool {
	return !Day(date).After(LagBoundary(today))
}
