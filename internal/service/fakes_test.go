package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOfficers struct {
	officers     map[string]domain.Officer
	institutions map[string]domain.Institution
	// unrecorded IDs are listed but have no institution record.
	unrecorded []string
	err        error
}

func (f *fakeOfficers) ResolveOfficer(_ context.Context, userID string) (domain.Officer, error) {
	if f.err != nil {
		return domain.Officer{}, f.err
	}
	o, ok := f.officers[userID]
	if !ok {
		return domain.Officer{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOfficers) GetInstitution(_ context.Context, id string) (domain.Institution, error) {
	inst, ok := f.institutions[id]
	if !ok {
		return domain.Institution{}, domain.ErrNotFound
	}
	return inst, nil
}

func (f *fakeOfficers) ListInstitutionIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.institutions))
	for id := range f.institutions {
		ids = append(ids, id)
	}
	return append(ids, f.unrecorded...), nil
}

type fakeAthletes struct{ byInst map[string][]domain.Athlete }

func (f *fakeAthletes) ListByInstitution(_ context.Context, id string) ([]domain.Athlete, error) {
	return f.byInst[id], nil
}

type fakeDeals struct {
	deals []domain.Deal
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeDeals) ListByAthletes(_ context.Context, ids []string) ([]domain.Deal, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Deal
	for _, d := range f.deals {
		if want[d.AthleteID] {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeScores struct{ scores []domain.ComplianceScore }

func (f *fakeScores) ListByDeals(_ context.Context, ids []string) ([]domain.ComplianceScore, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.ComplianceScore
	for _, s := range f.scores {
		if want[s.DealID] {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeOverrides struct{ n int }

func (f *fakeOverrides) CountByAthletes(context.Context, []string) (int, error) { return f.n, nil }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]domain.DashboardSummary
	getErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]domain.DashboardSummary{}}
}

func (f *fakeCache) Get(_ context.Context, id string) (domain.DashboardSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.DashboardSummary{}, f.getErr
	}
	s, ok := f.entries[id]
	if !ok {
		return domain.DashboardSummary{}, domain.ErrCacheMiss
	}
	return s, nil
}

func (f *fakeCache) Set(_ context.Context, id string, s domain.DashboardSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[id] = s
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

type published struct {
	channel string
	payload []byte
}

type fakeBus struct {
	mu   sync.Mutex
	msgs []published
}

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{channel, payload})
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (f *fakeBus) channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.channel
	}
	return out
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type alert struct{ event, title, message string }

type fakeAlerter struct {
	alerts []alert
	err    error
}

func (f *fakeAlerter) Enabled() bool { return true }

func (f *fakeAlerter) Notify(_ context.Context, event, title, message string) error {
	f.alerts = append(f.alerts, alert{event, title, message})
	return f.err
}

type fakeSnapshots struct {
	archived map[string]domain.DashboardSummary
	failFor  string
}

func (f *fakeSnapshots) Archive(_ context.Context, id string, s domain.DashboardSummary) (string, error) {
	if id == f.failFor {
		return "", io.ErrUnexpectedEOF
	}
	if f.archived == nil {
		f.archived = map[string]domain.DashboardSummary{}
	}
	f.archived[id] = s
	return "snapshots/" + id + "/2025-03-12.json", nil
}

// fixture is a two-institution world: inst-1 has a red deal overdue by a
// week and a fresh green deal; inst-2 has no athletes.
type fixture struct {
	officers  *fakeOfficers
	athletes  *fakeAthletes
	deals     *fakeDeals
	cache     *fakeCache
	bus       *fakeBus
	svc       *DashboardService
	overrides *fakeOverrides
}

func newFixture() *fixture {
	inst1 := domain.Institution{ID: "inst-1", Name: "State University"}
	inst2 := domain.Institution{ID: "inst-2", Name: "Tech College"}
	f := &fixture{
		officers: &fakeOfficers{
			officers: map[string]domain.Officer{
				"officer-1": {UserID: "officer-1", Name: "Dana Reyes", Institution: inst1},
				"officer-2": {UserID: "officer-2", Name: "Sam Lee", Institution: inst2},
			},
			institutions: map[string]domain.Institution{"inst-1": inst1, "inst-2": inst2},
		},
		deals: &fakeDeals{deals: []domain.Deal{
			{ID: "d-red", AthleteID: "u-1", Title: "Shoe deal", ThirdPartyName: "Acme", Compensation: "$5,000", Status: domain.DealSubmitted, CreatedAt: testNow.Add(-7 * 24 * time.Hour)},
			{ID: "d-green", AthleteID: "u-2", Title: "Camp", Compensation: "250", Status: domain.DealSubmitted, CreatedAt: testNow.Add(-2 * time.Hour)},
		}},
		cache:     newFakeCache(),
		bus:       &fakeBus{},
		overrides: &fakeOverrides{n: 3},
	}
	f.athletes = &fakeAthletes{byInst: map[string][]domain.Athlete{
		"inst-1": {
			{ID: "p-1", UserID: "u-1", FullName: "Jordan Miles", Sport: "Football", InstitutionID: "inst-1"},
			{ID: "p-2", UserID: "u-2", FullName: "Ava Chen", Sport: "Soccer", InstitutionID: "inst-1"},
		},
	}}
	stores := RosterStores{
		Officers: f.officers,
		Athletes: f.athletes,
		Deals:    f.deals,
		Scores: &fakeScores{scores: []domain.ComplianceScore{
			{DealID: "d-red", Status: domain.StatusRed, ReasonCodes: []string{"PAY_FOR_PLAY"}, CreatedAt: testNow.Add(-6 * 24 * time.Hour)},
			{DealID: "d-green", Status: domain.StatusGreen, CreatedAt: testNow.Add(-time.Hour)},
		}},
		Overrides: f.overrides,
	}
	f.svc = NewDashboardService(stores, f.cache, f.bus, time.UTC, discardLogger())
	f.svc.now = func() time.Time { return testNow }
	return f
}
