package compliance_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatnil/compliancehub/internal/compliance"
	"github.com/chatnil/compliancehub/internal/domain"
)

func TestComputeDashboard_EmptyRoster(t *testing.T) {
	got := compliance.ComputeDashboard(nil, 4, testNow)

	assert.True(t, got.IsEmpty)
	assert.Equal(t, domain.ProgramHealth{Percentage: 100}, got.ProgramHealth)
	assert.Equal(t, domain.AuditReadiness{OverridesLogged: 4}, got.AuditReadiness)
	assert.Equal(t, domain.WeekSummary{}, got.ThisWeek)

	require.NotNil(t, got.ActionRequired)
	require.NotNil(t, got.BySport)
	require.NotNil(t, got.RecentActivity)
	require.NotNil(t, got.Deadlines.OverdueItems)
	require.NotNil(t, got.Deadlines.TodayItems)
	require.NotNil(t, got.Deadlines.TomorrowItems)
	assert.Empty(t, got.ActionRequired)
	assert.Empty(t, got.BySport)
	assert.Empty(t, got.RecentActivity)
	assert.Zero(t, got.Deadlines.Overdue+got.Deadlines.Today+got.Deadlines.Tomorrow+got.Deadlines.ThisWeek+got.Deadlines.NextWeek)
}

func TestComputeDashboard_SingleGreenDealToday(t *testing.T) {
	a := athlete("u1", "Jordan Lee", "Basketball")
	roster := []domain.AthleteDeals{{
		Athlete: a,
		Deals:   []domain.ScoredDeal{deal(a.UserID, ago(time.Hour), scored(domain.StatusGreen))},
	}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	assert.False(t, got.IsEmpty)
	assert.Equal(t, 100.0, got.ProgramHealth.Percentage)
	assert.Equal(t, 0.0, got.ProgramHealth.Trend)
	assert.Equal(t, 1, got.ProgramHealth.TotalAthletes)
	assert.Equal(t, 1, got.ProgramHealth.TotalDeals)
	assert.Equal(t, []domain.SportCompliance{{
		Sport: "Basketball", TotalAthletes: 1, CompliancePercentage: 100,
	}}, got.BySport)
	assert.Equal(t, 1, got.Deadlines.ThisWeek)
	assert.Zero(t, got.Deadlines.Today)
	assert.Empty(t, got.ActionRequired)
}

func TestComputeDashboard_RedDealTenDaysAgo(t *testing.T) {
	a := athlete("u1", "Sam Ortiz", "Football")
	roster := []domain.AthleteDeals{{
		Athlete: a,
		Deals:   []domain.ScoredDeal{deal(a.UserID, ago(10*day), scored(domain.StatusRed), amount("2500"))},
	}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	require.Len(t, got.BySport, 1)
	assert.Equal(t, 1, got.BySport[0].RedCount)
	assert.Equal(t, 0, got.BySport[0].CompliancePercentage)

	require.Len(t, got.ActionRequired, 1)
	item := got.ActionRequired[0]
	assert.Equal(t, domain.SeverityCritical, item.Severity)
	assert.Equal(t, "REVIEW NOW", item.Action)
	assert.Equal(t, "Critical compliance issue", item.Issue)
	assert.Equal(t, 2500.0, item.Amount)
	assert.Equal(t, ago(10*day), item.DueDate)

	assert.Equal(t, 0.0, got.ProgramHealth.Percentage)
	// Nothing scored this week counts as 100; last week was all red.
	assert.Equal(t, 100.0, got.ProgramHealth.Trend)
	assert.Equal(t, 1, got.Deadlines.Overdue)
	assert.Empty(t, got.RecentActivity)
}

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.ComplianceStatus
		want domain.ComplianceStatus
	}{
		{"no deals", nil, domain.StatusGreen},
		{"only pending", []domain.ComplianceStatus{domain.StatusPending}, domain.StatusGreen},
		{"yellow downgrades", []domain.ComplianceStatus{domain.StatusGreen, domain.StatusYellow}, domain.StatusYellow},
		{"red is terminal", []domain.ComplianceStatus{domain.StatusGreen, domain.StatusRed, domain.StatusGreen}, domain.StatusRed},
		{"red then yellow", []domain.ComplianceStatus{domain.StatusRed, domain.StatusYellow}, domain.StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deals []domain.ScoredDeal
			for _, s := range tt.in {
				if s == domain.StatusPending {
					deals = append(deals, deal("u1", testNow))
					continue
				}
				deals = append(deals, deal("u1", testNow, scored(s)))
			}
			assert.Equal(t, tt.want, compliance.WorstStatus(deals))
		})
	}
}

func TestComputeDashboard_PendingExcludedFromHealth(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	roster := []domain.AthleteDeals{{
		Athlete: a,
		Deals: []domain.ScoredDeal{
			deal(a.UserID, ago(20*day), scored(domain.StatusGreen)),
			deal(a.UserID, ago(20*day), scored(domain.StatusGreen)),
			deal(a.UserID, ago(20*day), scored(domain.StatusYellow)),
			deal(a.UserID, ago(20*day)),
		},
	}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	assert.Equal(t, 66.7, got.ProgramHealth.Percentage)
	assert.Equal(t, 4, got.ProgramHealth.TotalDeals)
	assert.Equal(t, 4, got.AuditReadiness.Documented)
	assert.Zero(t, got.AuditReadiness.MissedDeadlines)
}

func TestComputeDashboard_Trend(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	roster := []domain.AthleteDeals{{
		Athlete: a,
		Deals: []domain.ScoredDeal{
			deal(a.UserID, ago(day), scored(domain.StatusGreen)),
			deal(a.UserID, ago(2*day), scored(domain.StatusRed)),
			deal(a.UserID, ago(9*day), scored(domain.StatusGreen)),
			deal(a.UserID, ago(30*day), scored(domain.StatusRed)),
		},
	}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	assert.Equal(t, 50.0, got.ProgramHealth.Percentage)
	assert.Equal(t, -50.0, got.ProgramHealth.Trend)
}

func TestComputeDashboard_DeadlineBoundaries(t *testing.T) {
	created := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	a := athlete("u1", "Ava Chen", "Soccer")
	roster := []domain.AthleteDeals{{Athlete: a, Deals: []domain.ScoredDeal{deal(a.UserID, created)}}}

	tests := []struct {
		name      string
		now       time.Time
		overdue   int
		today     int
		tomorrow  int
		pastToday int
	}{
		{"day before", time.Date(2025, time.March, 11, 23, 0, 0, 0, time.UTC), 0, 0, 1, 0},
		{"exactly five days", created.Add(5 * day), 0, 1, 0, 0},
		{"later that day", time.Date(2025, time.March, 12, 23, 59, 0, 0, time.UTC), 0, 1, 0, 1},
		{"next midnight", time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC), 1, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compliance.ComputeDashboard(roster, 0, tt.now)
			assert.Equal(t, tt.overdue, got.Deadlines.Overdue)
			assert.Equal(t, tt.today, got.Deadlines.Today)
			assert.Equal(t, tt.tomorrow, got.Deadlines.Tomorrow)
			assert.Equal(t, tt.pastToday, got.ThisWeek.PastDeadline)
		})
	}
}

func TestComputeDashboard_DeadlineBucketsAndPreview(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	var deals []domain.ScoredDeal
	for i := 0; i < 7; i++ {
		deals = append(deals, deal(a.UserID, ago(8*day)))
	}
	deals = append(deals,
		deal(a.UserID, ago(8*day), dealStatus(domain.DealApproved)),
		deal(a.UserID, ago(8*day), dealStatus(domain.DealRejected)),
		deal(a.UserID, ago(8*day), dealStatus(domain.DealApprovedConditional)),
		deal(a.UserID, testNow.Add(5*day)),  // deadline in ten days
		deal(a.UserID, testNow.Add(20*day)), // beyond next week
	)
	roster := []domain.AthleteDeals{{Athlete: a, Deals: deals}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	assert.Equal(t, 7, got.Deadlines.Overdue)
	assert.Len(t, got.Deadlines.OverdueItems, compliance.MaxDeadlinePreview)
	assert.Equal(t, 1, got.Deadlines.NextWeek)
	assert.Zero(t, got.Deadlines.ThisWeek)
	assert.Equal(t, 12, got.ProgramHealth.TotalDeals)

	first := got.Deadlines.OverdueItems[0]
	assert.Equal(t, "Ava Chen", first.AthleteName)
	assert.Equal(t, ago(8*day).Add(compliance.DisclosureWindow), first.Deadline)
}

func TestComputeDashboard_StartOfDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	// 02:00 UTC on the 13th is still the 12th in EST, so a deadline of 17:00
	// EST on the 12th is due today rather than overdue.
	now := time.Date(2025, time.March, 13, 2, 0, 0, 0, time.UTC).In(loc)
	created := time.Date(2025, time.March, 7, 17, 0, 0, 0, loc)
	a := athlete("u1", "Ava Chen", "Soccer")
	roster := []domain.AthleteDeals{{Athlete: a, Deals: []domain.ScoredDeal{deal(a.UserID, created)}}}

	got := compliance.ComputeDashboard(roster, 0, now)

	assert.Equal(t, 1, got.Deadlines.Today)
	assert.Zero(t, got.Deadlines.Overdue)
}

func TestComputeDashboard_ActionRequiredOrdering(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	b := athlete("u2", "Ben Ode", "Tennis")
	roster := []domain.AthleteDeals{
		{Athlete: a, Deals: []domain.ScoredDeal{
			deal(a.UserID, ago(3*day), scored(domain.StatusYellow, "FMV_HIGH"), amount("9000")),
			deal(a.UserID, ago(2*day), scored(domain.StatusRed), amount("100")),
			deal(a.UserID, ago(day), scored(domain.StatusGreen), amount("50000")),
		}},
		{Athlete: b, Deals: []domain.ScoredDeal{
			deal(b.UserID, ago(4*day), scored(domain.StatusRed, "BOOSTER"), amount("750.25")),
			deal(b.UserID, ago(5*day), scored(domain.StatusYellow)),
		}},
	}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	require.Len(t, got.ActionRequired, 4)
	assert.Equal(t, "BOOSTER", got.ActionRequired[0].Issue)
	assert.Equal(t, 750.25, got.ActionRequired[0].Amount)
	assert.Equal(t, domain.SeverityCritical, got.ActionRequired[1].Severity)
	assert.Equal(t, "FMV_HIGH", got.ActionRequired[2].Issue)
	assert.Equal(t, "Review required", got.ActionRequired[2].Action)
	assert.Equal(t, "Needs review", got.ActionRequired[3].Issue)
	assert.Equal(t, "Tennis", got.ActionRequired[3].Sport)
}

func TestComputeDashboard_ActionRequiredTruncated(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	var deals []domain.ScoredDeal
	for i := 0; i < 25; i++ {
		deals = append(deals, deal(a.UserID, ago(day), scored(domain.StatusYellow)))
	}
	deals = append(deals, deal(a.UserID, ago(day), scored(domain.StatusRed)))
	roster := []domain.AthleteDeals{{Athlete: a, Deals: deals}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	require.Len(t, got.ActionRequired, compliance.MaxActionRequired)
	assert.Equal(t, domain.SeverityCritical, got.ActionRequired[0].Severity)
}

func TestComputeDashboard_BySport(t *testing.T) {
	roster := []domain.AthleteDeals{
		{Athlete: athlete("u1", "A", "Soccer"), Deals: []domain.ScoredDeal{deal("u1", ago(day), scored(domain.StatusGreen))}},
		{Athlete: athlete("u2", "B", "Soccer"), Deals: []domain.ScoredDeal{deal("u2", ago(day), scored(domain.StatusYellow))}},
		{Athlete: athlete("u3", "C", "Soccer")},
		{Athlete: athlete("u4", "D", "Tennis"), Deals: []domain.ScoredDeal{deal("u4", ago(day), scored(domain.StatusRed))}},
		{Athlete: athlete("u5", "E", ""), Deals: []domain.ScoredDeal{deal("u5", ago(day))}},
	}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	assert.Equal(t, []domain.SportCompliance{
		{Sport: "Tennis", TotalAthletes: 1, CompliancePercentage: 0, RedCount: 1},
		{Sport: "Soccer", TotalAthletes: 3, CompliancePercentage: 67, YellowCount: 1},
		{Sport: "Other", TotalAthletes: 1, CompliancePercentage: 100},
	}, got.BySport)
}

func TestComputeDashboard_BySportTopTen(t *testing.T) {
	var roster []domain.AthleteDeals
	sports := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	for i, s := range sports {
		id := "u" + s
		ad := domain.AthleteDeals{Athlete: athlete(id, s, s)}
		if i%2 == 0 {
			ad.Deals = []domain.ScoredDeal{deal(id, ago(day), scored(domain.StatusRed))}
		}
		roster = append(roster, ad)
	}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	require.Len(t, got.BySport, compliance.MaxSports)
	for i := 1; i < len(got.BySport); i++ {
		assert.LessOrEqual(t, got.BySport[i-1].CompliancePercentage, got.BySport[i].CompliancePercentage)
	}
	assert.Equal(t, "A", got.BySport[0].Sport)
}

func TestComputeDashboard_RecentActivity(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	var deals []domain.ScoredDeal
	for i := 1; i <= 6; i++ {
		deals = append(deals, deal(a.UserID, ago(time.Duration(i)*day), brand("Brand")))
	}
	deals = append(deals, deal(a.UserID, ago(8*day), brand("Old")))
	deals = append(deals, deal(a.UserID, ago(time.Hour)))
	roster := []domain.AthleteDeals{{Athlete: a, Deals: deals}}

	got := compliance.ComputeDashboard(roster, 0, testNow)

	require.Len(t, got.RecentActivity, compliance.MaxRecentActivity)
	assert.Equal(t, "Ava Chen submitted deal with Deal", got.RecentActivity[0].Description)
	assert.Equal(t, "Ava Chen submitted deal with Brand", got.RecentActivity[1].Description)
	assert.Equal(t, compliance.ActivityDealSubmitted, got.RecentActivity[0].Type)
	for i := 1; i < len(got.RecentActivity); i++ {
		assert.True(t, !got.RecentActivity[i].Timestamp.After(got.RecentActivity[i-1].Timestamp))
	}
	assert.Equal(t, 7, got.ThisWeek.Submitted)
}

func TestComputeDashboard_ThisWeek(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	reviewedFast := deal(a.UserID, ago(2*day), scored(domain.StatusGreen))
	reviewedFast.Score.CreatedAt = reviewedFast.Deal.CreatedAt.Add(2 * time.Hour)
	reviewedSlow := deal(a.UserID, ago(3*day), scored(domain.StatusYellow))
	reviewedSlow.Score.CreatedAt = reviewedSlow.Deal.CreatedAt.Add(5*time.Hour + 30*time.Minute)
	roster := []domain.AthleteDeals{{Athlete: a, Deals: []domain.ScoredDeal{
		reviewedFast,
		reviewedSlow,
		deal(a.UserID, ago(day)),
		deal(a.UserID, ago(20*day), scored(domain.StatusGreen)),
	}}}

	got := compliance.ComputeDashboard(roster, 2, testNow)

	assert.Equal(t, domain.WeekSummary{
		Submitted:     3,
		Reviewed:      2,
		Pending:       1,
		AvgReviewTime: 3.8,
	}, got.ThisWeek)
	assert.Equal(t, 2, got.AuditReadiness.OverridesLogged)
}

func TestComputeDashboard_DoesNotMutateInput(t *testing.T) {
	a := athlete("u1", "Ava Chen", "Soccer")
	deals := []domain.ScoredDeal{
		deal(a.UserID, ago(day), scored(domain.StatusYellow)),
		deal(a.UserID, ago(2*day), scored(domain.StatusRed)),
	}
	roster := []domain.AthleteDeals{{Athlete: a, Deals: deals}}
	before := roster[0].Deals[0].Deal.ID

	compliance.ComputeDashboard(roster, 0, testNow)

	assert.Equal(t, before, roster[0].Deals[0].Deal.ID)
}

func TestComputeDashboard_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []domain.ComplianceStatus{domain.StatusPending, domain.StatusGreen, domain.StatusYellow, domain.StatusRed}
	sports := []string{"Soccer", "Tennis", "Golf", ""}

	for iter := 0; iter < 200; iter++ {
		var roster []domain.AthleteDeals
		athletes := rng.Intn(12)
		for i := 0; i < athletes; i++ {
			id := string(rune('a' + i))
			ad := domain.AthleteDeals{Athlete: athlete(id, id, sports[rng.Intn(len(sports))])}
			n := rng.Intn(5)
			for j := 0; j < n; j++ {
				created := ago(time.Duration(rng.Intn(30*24)) * time.Hour)
				st := statuses[rng.Intn(len(statuses))]
				if st == domain.StatusPending {
					ad.Deals = append(ad.Deals, deal(id, created))
				} else {
					ad.Deals = append(ad.Deals, deal(id, created, scored(st)))
				}
			}
			roster = append(roster, ad)
		}

		got := compliance.ComputeDashboard(roster, 0, testNow)

		assert.GreaterOrEqual(t, got.ProgramHealth.Percentage, 0.0)
		assert.LessOrEqual(t, got.ProgramHealth.Percentage, 100.0)
		assert.LessOrEqual(t, len(got.ActionRequired), compliance.MaxActionRequired)
		assert.LessOrEqual(t, len(got.RecentActivity), compliance.MaxRecentActivity)

		members := 0
		for _, s := range got.BySport {
			members += s.TotalAthletes
			assert.GreaterOrEqual(t, s.CompliancePercentage, 0)
			assert.LessOrEqual(t, s.CompliancePercentage, 100)
		}
		assert.Equal(t, len(roster), members)
	}
}
