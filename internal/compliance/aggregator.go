package compliance

import (
	"math"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

// EmptySummary is the dashboard for an institution with no athletes.
func EmptySummary(overrides int, now time.Time) domain.DashboardSummary {
	return domain.DashboardSummary{
		ActionRequired: []domain.ActionItem{},
		ProgramHealth:  domain.ProgramHealth{Percentage: 100},
		AuditReadiness: domain.AuditReadiness{OverridesLogged: overrides},
		Deadlines:      newDeadlineTally().d,
		BySport:        []domain.SportCompliance{},
		RecentActivity: []domain.Activity{},
		IsEmpty:        true,
		GeneratedAt:    now,
	}
}

// WorstStatus folds an athlete's deal statuses starting from green. Pending
// deals never change the result and red is absorbing.
func WorstStatus(deals []domain.ScoredDeal) domain.ComplianceStatus {
	worst := domain.StatusGreen
	for _, sd := range deals {
		if worst == domain.StatusRed {
			break
		}
		worst = domain.Worse(worst, sd.Status())
	}
	return worst
}

// ComputeDashboard derives the dashboard summary for one institution's
// roster. overrides is the number of logged score overrides for the roster.
// now fixes every time window; the function never reads the clock and does
// not modify roster.
func ComputeDashboard(roster []domain.AthleteDeals, overrides int, now time.Time) domain.DashboardSummary {
	if len(roster) == 0 {
		return EmptySummary(overrides, now)
	}

	w := newWindow(now)
	var (
		totalDeals int
		health     programHealthTally
		sports     = newSportTally()
		deadlines  = newDeadlineTally()
		activity   []domain.Activity
		recent     weekTally
	)

	for _, ad := range roster {
		for _, sd := range ad.Deals {
			totalDeals++
			health.add(w, sd)
			deadlines.add(w, ad.Athlete, sd.Deal)
			if w.inThisWeek(sd.Deal.CreatedAt) {
				activity = append(activity, submittedActivity(ad.Athlete, sd.Deal))
				recent.add(sd)
			}
		}
		sports.add(SportOf(ad.Athlete), WorstStatus(ad.Deals), len(ad.Deals))
	}

	actions := collectActionItems(roster, actionItem)
	if len(actions) > MaxActionRequired {
		actions = actions[:MaxActionRequired]
	}
	if activity == nil {
		activity = []domain.Activity{}
	}

	return domain.DashboardSummary{
		ActionRequired: actions,
		ProgramHealth:  health.result(len(roster), totalDeals),
		ThisWeek:       recent.result(deadlines.pastDue),
		AuditReadiness: domain.AuditReadiness{
			Documented:      totalDeals,
			MissedDeadlines: 0,
			OverridesLogged: overrides,
		},
		Deadlines:      deadlines.d,
		BySport:        sports.result(),
		RecentActivity: latestActivity(activity),
		GeneratedAt:    now,
	}
}

// weekTally summarises the deals submitted in the trailing seven days.
type weekTally struct {
	submitted   int
	reviewed    int
	reviewHours float64
	timed       int
}

func (t *weekTally) add(sd domain.ScoredDeal) {
	t.submitted++
	if !sd.Status().Scored() {
		return
	}
	t.reviewed++
	if sd.Score.CreatedAt.IsZero() {
		return
	}
	hours := sd.Score.CreatedAt.Sub(sd.Deal.CreatedAt).Hours()
	t.reviewHours += math.Max(hours, 0)
	t.timed++
}

func (t weekTally) result(pastDeadline int) domain.WeekSummary {
	ws := domain.WeekSummary{
		Submitted:    t.submitted,
		Reviewed:     t.reviewed,
		Pending:      t.submitted - t.reviewed,
		PastDeadline: pastDeadline,
	}
	if t.timed > 0 {
		ws.AvgReviewTime = round1(t.reviewHours / float64(t.timed))
	}
	return ws
}
