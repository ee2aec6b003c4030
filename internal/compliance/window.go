package compliance

import "time"

const (
	// DisclosureWindow is the time a deal has to receive a decision.
	DisclosureWindow = 5 * 24 * time.Hour

	week = 7 * 24 * time.Hour
)

// window fixes every time boundary the dashboard uses for one call.
type window struct {
	now         time.Time
	weekAgo     time.Time
	twoWeeksAgo time.Time

	startOfToday    time.Time
	startOfTomorrow time.Time
	startOfDayAfter time.Time
	endOfThisWeek   time.Time
	endOfNextWeek   time.Time
}

func newWindow(now time.Time) window {
	today := StartOfDay(now)
	return window{
		now:             now,
		weekAgo:         now.Add(-week),
		twoWeeksAgo:     now.Add(-2 * week),
		startOfToday:    today,
		startOfTomorrow: today.AddDate(0, 0, 1),
		startOfDayAfter: today.AddDate(0, 0, 2),
		endOfThisWeek:   today.AddDate(0, 0, 7),
		endOfNextWeek:   today.AddDate(0, 0, 14),
	}
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Deadline returns the disclosure deadline of a deal created at createdAt.
func Deadline(createdAt time.Time) time.Time {
	return createdAt.Add(DisclosureWindow)
}

func (w window) inThisWeek(t time.Time) bool {
	return !t.Before(w.weekAgo)
}

func (w window) inLastWeek(t time.Time) bool {
	return !t.Before(w.twoWeeksAgo) && t.Before(w.weekAgo)
}

// DeadlineBucket names the window a disclosure deadline falls in.
type DeadlineBucket string

const (
	BucketOverdue  DeadlineBucket = "overdue"
	BucketToday    DeadlineBucket = "today"
	BucketTomorrow DeadlineBucket = "tomorrow"
	BucketThisWeek DeadlineBucket = "thisWeek"
	BucketNextWeek DeadlineBucket = "nextWeek"
)

// Valid reports whether b is one of the five named buckets.
func (b DeadlineBucket) Valid() bool {
	switch b {
	case BucketOverdue, BucketToday, BucketTomorrow, BucketThisWeek, BucketNextWeek:
		return true
	}
	return false
}

// bucket places a deadline relative to the start of today. Deadlines two
// weeks or more out fall in no bucket.
func (w window) bucket(due time.Time) (DeadlineBucket, bool) {
	switch {
	case due.Before(w.startOfToday):
		return BucketOverdue, true
	case due.Before(w.startOfTomorrow):
		return BucketToday, true
	case due.Before(w.startOfDayAfter):
		return BucketTomorrow, true
	case due.Before(w.endOfThisWeek):
		return BucketThisWeek, true
	case due.Before(w.endOfNextWeek):
		return BucketNextWeek, true
	}
	return "", false
}
