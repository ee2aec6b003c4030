package compliance

import "github.com/chatnil/compliancehub/internal/domain"

// MaxDeadlinePreview caps each deadline preview list.
const MaxDeadlinePreview = 5

// deadlineTally buckets undecided deals by disclosure deadline.
type deadlineTally struct {
	d domain.Deadlines
	// pastDue counts due-today deals whose deadline has already passed.
	pastDue int
}

func newDeadlineTally() *deadlineTally {
	return &deadlineTally{d: domain.Deadlines{
		OverdueItems:  []domain.DeadlineItem{},
		TodayItems:    []domain.DeadlineItem{},
		TomorrowItems: []domain.DeadlineItem{},
	}}
}

func (t *deadlineTally) add(w window, a domain.Athlete, deal domain.Deal) {
	if deal.Status.Decided() {
		return
	}
	due := Deadline(deal.CreatedAt)
	item := domain.DeadlineItem{
		ID:          deal.ID,
		AthleteID:   a.UserID,
		AthleteName: a.DisplayName(),
		DealName:    deal.Name(),
		Amount:      ParseAmount(deal.Compensation),
		Deadline:    due,
	}
	bucket, ok := w.bucket(due)
	if !ok {
		return
	}
	switch bucket {
	case BucketOverdue:
		t.d.Overdue++
		t.d.OverdueItems = appendPreview(t.d.OverdueItems, item)
	case BucketToday:
		t.d.Today++
		t.d.TodayItems = appendPreview(t.d.TodayItems, item)
		if due.Before(w.now) {
			t.pastDue++
		}
	case BucketTomorrow:
		t.d.Tomorrow++
		t.d.TomorrowItems = appendPreview(t.d.TomorrowItems, item)
	case BucketThisWeek:
		t.d.ThisWeek++
	case BucketNextWeek:
		t.d.NextWeek++
	}
}

func appendPreview(items []domain.DeadlineItem, item domain.DeadlineItem) []domain.DeadlineItem {
	if len(items) >= MaxDeadlinePreview {
		return items
	}
	return append(items, item)
}
