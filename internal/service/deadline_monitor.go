package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
	"github.com/chatnil/compliancehub/internal/notify"
)

// Alerter sends officer notifications. *notify.Notifier satisfies it.
type Alerter interface {
	Enabled() bool
	Notify(ctx context.Context, event, title, message string) error
}

// DeadlineMonitor scans every institution for overdue disclosure deadlines
// and alerts the compliance office.
type DeadlineMonitor struct {
	dashboards *DashboardService
	officers   domain.OfficerStore
	locks      domain.LockManager
	alerter    Alerter
	bus        domain.SignalBus
	lockTTL    time.Duration
	logger     *slog.Logger
}

// NewDeadlineMonitor creates a DeadlineMonitor. locks, alerter and bus may
// be nil.
func NewDeadlineMonitor(
	dashboards *DashboardService,
	officers domain.OfficerStore,
	locks domain.LockManager,
	alerter Alerter,
	bus domain.SignalBus,
	lockTTL time.Duration,
	logger *slog.Logger,
) *DeadlineMonitor {
	return &DeadlineMonitor{
		dashboards: dashboards,
		officers:   officers,
		locks:      locks,
		alerter:    alerter,
		bus:        bus,
		lockTTL:    lockTTL,
		logger:     logger.With(slog.String("component", "deadline_monitor")),
	}
}

// RunOnce checks every institution. A failure for one institution is logged
// and the scan continues; the joined errors are returned at the end.
func (m *DeadlineMonitor) RunOnce(ctx context.Context) error {
	unlock, err := acquire(ctx, m.locks, "job:deadline_monitor", m.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			m.logger.InfoContext(ctx, "another worker holds the deadline lock, skipping")
			return nil
		}
		return fmt.Errorf("deadline_monitor: acquire lock: %w", err)
	}
	defer unlock()

	ids, err := m.officers.ListInstitutionIDs(ctx)
	if err != nil {
		return fmt.Errorf("deadline_monitor: list institutions: %w", err)
	}

	var errs []error
	alerted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sent, err := m.check(ctx, id)
		if err != nil {
			m.logger.ErrorContext(ctx, "deadline check failed",
				slog.String("institution_id", id),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		if sent {
			alerted++
		}
	}

	m.logger.InfoContext(ctx, "deadline scan complete",
		slog.Int("institutions", len(ids)),
		slog.Int("alerted", alerted),
		slog.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

func (m *DeadlineMonitor) check(ctx context.Context, institutionID string) (bool, error) {
	inst, err := m.dashboards.Institution(ctx, institutionID)
	if err != nil {
		return false, err
	}
	summary, err := m.dashboards.Compute(ctx, inst)
	if err != nil {
		return false, err
	}
	if summary.Deadlines.Overdue == 0 {
		return false, nil
	}

	m.dashboards.publish(ctx, inst.ID, "deadlines", domain.EventDeadlinesOverdue, summary.Deadlines)

	if m.alerter == nil || !m.alerter.Enabled() {
		return false, nil
	}
	title, message := notify.OverdueDigest(inst.Name, summary.Deadlines)
	if err := m.alerter.Notify(ctx, notify.EventDeadlineOverdue, title, message); err != nil {
		return false, fmt.Errorf("deadline_monitor: notify %s: %w", institutionID, err)
	}
	return true, nil
}

// acquire takes a job lock; with no lock manager the job always runs.
func acquire(ctx context.Context, locks domain.LockManager, key string, ttl time.Duration) (func(), error) {
	if locks == nil {
		return func() {}, nil
	}
	return locks.Acquire(ctx, key, ttl)
}
