package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chatnil/compliancehub/internal/compliance"
	"github.com/chatnil/compliancehub/internal/domain"
)

// RosterStores groups the read stores a dashboard snapshot is built from.
type RosterStores struct {
	Officers  domain.OfficerStore
	Athletes  domain.AthleteStore
	Deals     domain.DealStore
	Scores    domain.ScoreStore
	Overrides domain.OverrideStore
}

// DashboardService builds compliance dashboards for officers. cache and bus
// are optional.
type DashboardService struct {
	stores RosterStores
	cache  domain.DashboardCache
	bus    domain.SignalBus
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewDashboardService creates a DashboardService. Day boundaries are taken
// in loc; a nil loc means UTC.
func NewDashboardService(
	stores RosterStores,
	cache domain.DashboardCache,
	bus domain.SignalBus,
	loc *time.Location,
	logger *slog.Logger,
) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		stores: stores,
		cache:  cache,
		bus:    bus,
		loc:    loc,
		now:    time.Now,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// Officer resolves the compliance officer for an authenticated user. Users
// who are not officers get domain.ErrForbidden.
func (s *DashboardService) Officer(ctx context.Context, userID string) (domain.Officer, error) {
	officer, err := s.stores.Officers.ResolveOfficer(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Officer{}, fmt.Errorf("dashboard_service: user %s is not a compliance officer: %w", userID, domain.ErrForbidden)
		}
		return domain.Officer{}, fmt.Errorf("dashboard_service: resolve officer: %w", err)
	}
	return officer, nil
}

// Institution loads an institution for a scheduled job. An ID with no
// stored record still gets a dashboard under the default name.
func (s *DashboardService) Institution(ctx context.Context, id string) (domain.Institution, error) {
	inst, err := s.stores.Officers.GetInstitution(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.DebugContext(ctx, "institution has no record, using default name",
			slog.String("institution_id", id),
		)
		return domain.Institution{ID: id, Name: domain.DefaultInstitutionName}, nil
	}
	if err != nil {
		return domain.Institution{}, fmt.Errorf("dashboard_service: get institution %s: %w", id, err)
	}
	return inst, nil
}

// Dashboard returns the officer's dashboard, served from cache unless
// refresh is set. A refresh drops the cached entry before recomputing so a
// failed recompute leaves nothing stale behind.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, refresh bool) (domain.DashboardSummary, error) {
	officer, err := s.Officer(ctx, userID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	inst := officer.Institution

	if refresh {
		if err := s.Invalidate(ctx, inst.ID); err != nil {
			s.logger.WarnContext(ctx, "dashboard cache invalidate failed",
				slog.String("institution_id", inst.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	summary, hit := s.cached(ctx, inst.ID, refresh)
	if !hit {
		summary, err = s.Compute(ctx, inst)
		if err != nil {
			return domain.DashboardSummary{}, err
		}
		s.store(ctx, inst.ID, summary)
		s.publish(ctx, inst.ID, "dashboard", domain.EventDashboardUpdated, summary)
	}

	summary.Officer = &domain.OfficerHeader{ID: officer.UserID, Name: officer.Name}
	return summary, nil
}

// Compute loads the institution's snapshot and aggregates it without
// touching the cache.
func (s *DashboardService) Compute(ctx context.Context, inst domain.Institution) (domain.DashboardSummary, error) {
	roster, overrides, err := s.Roster(ctx, inst.ID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	summary := compliance.ComputeDashboard(roster, overrides, s.now().In(s.loc))
	summary.Institution = &domain.InstitutionHeader{ID: inst.ID, Name: inst.Name, LogoURL: inst.LogoURL}

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.String("institution_id", inst.ID),
		slog.Int("athletes", summary.ProgramHealth.TotalAthletes),
		slog.Int("deals", summary.ProgramHealth.TotalDeals),
	)
	return summary, nil
}

// ActionItems returns a filtered page of the officer's review queue. The
// deadline filter is measured from the service clock unless filter.Now is
// set.
func (s *DashboardService) ActionItems(ctx context.Context, userID string, filter compliance.ActionFilter) (domain.ActionPage, error) {
	officer, err := s.Officer(ctx, userID)
	if err != nil {
		return domain.ActionPage{}, err
	}
	roster, _, err := s.Roster(ctx, officer.Institution.ID)
	if err != nil {
		return domain.ActionPage{}, err
	}
	if filter.Now.IsZero() {
		filter.Now = s.now().In(s.loc)
	}
	page, err := compliance.ListActionItems(roster, filter)
	if err != nil {
		return domain.ActionPage{}, fmt.Errorf("dashboard_service: action items: %w", err)
	}
	return page, nil
}

// Roster fetches the institution's athletes, their deals and scores, and the
// override count, and pairs each athlete with its deals in store order.
func (s *DashboardService) Roster(ctx context.Context, institutionID string) ([]domain.AthleteDeals, int, error) {
	athletes, err := s.stores.Athletes.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, 0, fmt.Errorf("dashboard_service: list athletes: %w", err)
	}
	if len(athletes) == 0 {
		return nil, 0, nil
	}

	userIDs := make([]string, len(athletes))
	for i, a := range athletes {
		userIDs[i] = a.UserID
	}

	var (
		deals     []domain.Deal
		scores    []domain.ComplianceScore
		overrides int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = s.stores.Deals.ListByAthletes(gctx, userIDs)
		if err != nil {
			return fmt.Errorf("dashboard_service: list deals: %w", err)
		}
		dealIDs := make([]string, len(deals))
		for i, d := range deals {
			dealIDs[i] = d.ID
		}
		scores, err = s.stores.Scores.ListByDeals(gctx, dealIDs)
		if err != nil {
			return fmt.Errorf("dashboard_service: list scores: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		overrides, err = s.stores.Overrides.CountByAthletes(gctx, userIDs)
		if err != nil {
			return fmt.Errorf("dashboard_service: count overrides: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return assembleRoster(athletes, deals, scores), overrides, nil
}

// assembleRoster pairs athletes with their deals and each deal with its
// score. A duplicate score for one deal keeps the first seen.
func assembleRoster(athletes []domain.Athlete, deals []domain.Deal, scores []domain.ComplianceScore) []domain.AthleteDeals {
	byDeal := make(map[string]*domain.ComplianceScore, len(scores))
	for i := range scores {
		if _, dup := byDeal[scores[i].DealID]; !dup {
			byDeal[scores[i].DealID] = &scores[i]
		}
	}

	byAthlete := make(map[string][]domain.ScoredDeal, len(athletes))
	for _, d := range deals {
		byAthlete[d.AthleteID] = append(byAthlete[d.AthleteID], domain.ScoredDeal{Deal: d, Score: byDeal[d.ID]})
	}

	roster := make([]domain.AthleteDeals, len(athletes))
	for i, a := range athletes {
		roster[i] = domain.AthleteDeals{Athlete: a, Deals: byAthlete[a.UserID]}
	}
	return roster
}

func (s *DashboardService) cached(ctx context.Context, institutionID string, refresh bool) (domain.DashboardSummary, bool) {
	if s.cache == nil || refresh {
		return domain.DashboardSummary{}, false
	}
	summary, err := s.cache.Get(ctx, institutionID)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "dashboard cache get failed",
				slog.String("institution_id", institutionID),
				slog.String("error", err.Error()),
			)
		}
		return domain.DashboardSummary{}, false
	}
	return summary, true
}

func (s *DashboardService) store(ctx context.Context, institutionID string, summary domain.DashboardSummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, institutionID, summary); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache set failed",
			slog.String("institution_id", institutionID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached dashboard for an institution.
func (s *DashboardService) Invalidate(ctx context.Context, institutionID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, institutionID); err != nil {
		return fmt.Errorf("dashboard_service: invalidate: %w", err)
	}
	return nil
}

// publish is best effort; bus failures are logged.
func (s *DashboardService) publish(ctx context.Context, institutionID, topic, eventType string, payload any) {
	if s.bus == nil {
		return
	}
	data, err := domain.NewEvent(eventType, institutionID, payload, s.now().UTC())
	if err == nil {
		err = s.bus.Publish(ctx, domain.ComplianceChannel(institutionID, topic), data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("institution_id", institutionID),
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
