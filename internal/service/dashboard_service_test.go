package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatnil/compliancehub/internal/compliance"
	"github.com/chatnil/compliancehub/internal/domain"
)

func TestDashboard_ComputesAndCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	summary, err := f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)

	require.NotNil(t, summary.Institution)
	assert.Equal(t, "State University", summary.Institution.Name)
	require.NotNil(t, summary.Officer)
	assert.Equal(t, "Dana Reyes", summary.Officer.Name)

	assert.Equal(t, 2, summary.ProgramHealth.TotalAthletes)
	assert.Equal(t, 2, summary.ProgramHealth.TotalDeals)
	assert.InDelta(t, 50.0, summary.ProgramHealth.Percentage, 1e-9)
	assert.Equal(t, 3, summary.AuditReadiness.OverridesLogged)
	assert.Equal(t, 1, summary.Deadlines.Overdue)

	require.Len(t, summary.ActionRequired, 1)
	item := summary.ActionRequired[0]
	assert.Equal(t, domain.SeverityCritical, item.Severity)
	assert.Equal(t, "PAY_FOR_PLAY", item.Issue)
	assert.InDelta(t, 5000.0, item.Amount, 1e-9)
	assert.Equal(t, "Jordan Miles", item.AthleteName)

	assert.Equal(t, 1, f.cache.sets)
	assert.Equal(t, []string{"ch:compliance:inst-1:dashboard"}, f.bus.channels())

	var ev domain.Event
	require.NoError(t, json.Unmarshal(f.bus.msgs[0].payload, &ev))
	assert.Equal(t, domain.EventDashboardUpdated, ev.Type)
	assert.Equal(t, "inst-1", ev.InstitutionID)
}

func TestDashboard_ServesFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)
	_, err = f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.deals.calls)
	assert.Equal(t, 1, f.cache.sets)
}

func TestDashboard_RefreshBypassesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)
	_, err = f.svc.Dashboard(ctx, "officer-1", true)
	require.NoError(t, err)

	assert.Equal(t, 2, f.deals.calls)
	assert.Equal(t, 2, f.cache.sets)
}

func TestDashboard_FailedRefreshDropsCachedEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)
	require.Contains(t, f.cache.entries, "inst-1")

	f.deals.err = errors.New("timeout")
	_, err = f.svc.Dashboard(ctx, "officer-1", true)
	require.Error(t, err)
	assert.NotContains(t, f.cache.entries, "inst-1")
}

func TestDashboard_CacheFailureFallsThrough(t *testing.T) {
	f := newFixture()
	f.cache.getErr = errors.New("connection refused")

	summary, err := f.svc.Dashboard(context.Background(), "officer-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProgramHealth.TotalDeals)
}

func TestDashboard_WithoutCacheOrBus(t *testing.T) {
	f := newFixture()
	f.svc.cache = nil
	f.svc.bus = nil

	summary, err := f.svc.Dashboard(context.Background(), "officer-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProgramHealth.TotalAthletes)
}

func TestDashboard_NotAnOfficer(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Dashboard(context.Background(), "stranger", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDashboard_OfficerStoreFailure(t *testing.T) {
	f := newFixture()
	f.officers.err = errors.New("pool closed")

	_, err := f.svc.Dashboard(context.Background(), "officer-1", false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrForbidden)
	assert.Contains(t, err.Error(), "dashboard_service: resolve officer")
}

func TestDashboard_DealStoreFailure(t *testing.T) {
	f := newFixture()
	f.deals.err = errors.New("timeout")

	_, err := f.svc.Dashboard(context.Background(), "officer-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard_service: list deals")
	assert.Zero(t, f.cache.sets)
}

func TestDashboard_EmptyInstitution(t *testing.T) {
	f := newFixture()

	summary, err := f.svc.Dashboard(context.Background(), "officer-2", false)
	require.NoError(t, err)
	assert.True(t, summary.IsEmpty)
	assert.InDelta(t, 100.0, summary.ProgramHealth.Percentage, 1e-9)
	assert.Zero(t, f.deals.calls)
	require.NotNil(t, summary.Institution)
	assert.Equal(t, "Tech College", summary.Institution.Name)
}

func TestActionItems(t *testing.T) {
	f := newFixture()

	page, err := f.svc.ActionItems(context.Background(), "officer-1", compliance.ActionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "d-red", page.Items[0].DealID)
	assert.Zero(t, f.cache.sets)
}

func TestActionItems_InvalidFilter(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ActionItems(context.Background(), "officer-1", compliance.ActionFilter{SortBy: "mood"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvalidate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Invalidate(ctx, "inst-1"))

	_, err = f.svc.Dashboard(ctx, "officer-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.deals.calls)
}

func TestInstitution(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inst, err := f.svc.Institution(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "State University", inst.Name)

	inst, err = f.svc.Institution(ctx, "inst-legacy")
	require.NoError(t, err)
	assert.Equal(t, domain.Institution{ID: "inst-legacy", Name: domain.DefaultInstitutionName}, inst)
}

func TestAssembleRoster(t *testing.T) {
	athletes := []domain.Athlete{{UserID: "a"}, {UserID: "b"}}
	deals := []domain.Deal{
		{ID: "1", AthleteID: "a"},
		{ID: "2", AthleteID: "b"},
		{ID: "3", AthleteID: "a"},
		{ID: "4", AthleteID: "ghost"},
	}
	scores := []domain.ComplianceScore{
		{DealID: "1", Status: domain.StatusYellow},
		{DealID: "1", Status: domain.StatusGreen},
		{DealID: "2", Status: domain.StatusRed},
	}

	roster := assembleRoster(athletes, deals, scores)
	require.Len(t, roster, 2)

	require.Len(t, roster[0].Deals, 2)
	assert.Equal(t, "1", roster[0].Deals[0].Deal.ID)
	assert.Equal(t, "3", roster[0].Deals[1].Deal.ID)
	require.NotNil(t, roster[0].Deals[0].Score)
	assert.Equal(t, domain.StatusYellow, roster[0].Deals[0].Score.Status)
	assert.Nil(t, roster[0].Deals[1].Score)

	require.Len(t, roster[1].Deals, 1)
	assert.Equal(t, domain.StatusRed, roster[1].Deals[0].Score.Status)
}
