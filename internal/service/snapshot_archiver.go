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

// SnapshotStore persists dashboard snapshots. *s3blob.SnapshotArchive
// satisfies it.
type SnapshotStore interface {
	Archive(ctx context.Context, institutionID string, summary domain.DashboardSummary) (string, error)
}

// SnapshotArchiver writes a daily dashboard snapshot for every institution.
type SnapshotArchiver struct {
	dashboards *DashboardService
	officers   domain.OfficerStore
	snapshots  SnapshotStore
	locks      domain.LockManager
	alerter    Alerter
	lockTTL    time.Duration
	logger     *slog.Logger
}

// NewSnapshotArchiver creates a SnapshotArchiver. A nil snapshots store
// disables archiving.
func NewSnapshotArchiver(
	dashboards *DashboardService,
	officers domain.OfficerStore,
	snapshots SnapshotStore,
	locks domain.LockManager,
	alerter Alerter,
	lockTTL time.Duration,
	logger *slog.Logger,
) *SnapshotArchiver {
	return &SnapshotArchiver{
		dashboards: dashboards,
		officers:   officers,
		snapshots:  snapshots,
		locks:      locks,
		alerter:    alerter,
		lockTTL:    lockTTL,
		logger:     logger.With(slog.String("component", "snapshot_archiver")),
	}
}

// Enabled reports whether a snapshot store is configured.
func (a *SnapshotArchiver) Enabled() bool {
	return a.snapshots != nil
}

// RunOnce archives one snapshot per institution.
func (a *SnapshotArchiver) RunOnce(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}
	unlock, err := acquire(ctx, a.locks, "job:snapshot_archiver", a.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			a.logger.InfoContext(ctx, "another worker holds the snapshot lock, skipping")
			return nil
		}
		return fmt.Errorf("snapshot_archiver: acquire lock: %w", err)
	}
	defer unlock()

	ids, err := a.officers.ListInstitutionIDs(ctx)
	if err != nil {
		return fmt.Errorf("snapshot_archiver: list institutions: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key, err := a.archive(ctx, id)
		if err != nil {
			a.logger.ErrorContext(ctx, "snapshot failed",
				slog.String("institution_id", id),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		a.logger.InfoContext(ctx, "snapshot archived",
			slog.String("institution_id", id),
			slog.String("path", key),
		)
	}

	if len(errs) > 0 {
		a.alertFailure(ctx, len(errs), len(ids))
	}
	return errors.Join(errs...)
}

func (a *SnapshotArchiver) archive(ctx context.Context, institutionID string) (string, error) {
	inst, err := a.dashboards.Institution(ctx, institutionID)
	if err != nil {
		return "", err
	}
	summary, err := a.dashboards.Compute(ctx, inst)
	if err != nil {
		return "", err
	}
	key, err := a.snapshots.Archive(ctx, inst.ID, summary)
	if err != nil {
		return "", fmt.Errorf("snapshot_archiver: archive %s: %w", institutionID, err)
	}
	a.dashboards.publish(ctx, inst.ID, "snapshots", domain.EventSnapshotArchived, map[string]string{"path": key})
	if a.alerter != nil && a.alerter.Enabled() {
		msg := fmt.Sprintf("%d deals documented, program health %.1f%%", summary.AuditReadiness.Documented, summary.ProgramHealth.Percentage)
		if err := a.alerter.Notify(ctx, notify.EventSnapshotArchived, inst.Name+": compliance snapshot archived", msg); err != nil {
			a.logger.WarnContext(ctx, "archive notice not delivered", slog.String("error", err.Error()))
		}
	}
	return key, nil
}

func (a *SnapshotArchiver) alertFailure(ctx context.Context, failed, total int) {
	if a.alerter == nil || !a.alerter.Enabled() {
		return
	}
	msg := fmt.Sprintf("%d of %d institution snapshot(s) failed to archive", failed, total)
	if err := a.alerter.Notify(ctx, notify.EventJobFailed, "Snapshot archive failed", msg); err != nil {
		a.logger.WarnContext(ctx, "failure alert not delivered", slog.String("error", err.Error()))
	}
}
