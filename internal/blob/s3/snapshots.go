package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

const (
	snapshotPrefix     = "snapshots/"
	snapshotDateLayout = "2006-01-02"
	// EventSnapshotArchived is the audit event written after each upload.
	EventSnapshotArchived = "snapshot.archived"
)

// SnapshotArchive keeps one dashboard snapshot per institution per day.
//
// Key schema:
//
//	snapshots/{institutionID}/{YYYY-MM-DD}.json
type SnapshotArchive struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewSnapshotArchive creates a SnapshotArchive. audit may be nil.
func NewSnapshotArchive(writer domain.BlobWriter, reader domain.BlobReader, audit domain.AuditStore, logger *slog.Logger) *SnapshotArchive {
	return &SnapshotArchive{
		writer: writer,
		reader: reader,
		audit:  audit,
		logger: logger.With(slog.String("component", "snapshot_archive")),
	}
}

// SnapshotPath returns the object key for an institution's snapshot on the
// UTC calendar day of at.
func SnapshotPath(institutionID string, at time.Time) string {
	return snapshotPrefix + institutionID + "/" + at.UTC().Format(snapshotDateLayout) + ".json"
}

// Archive uploads summary and records the upload in the audit log. A second
// archive on the same day replaces the first. Once the upload succeeds an
// audit failure is only logged.
func (a *SnapshotArchive) Archive(ctx context.Context, institutionID string, summary domain.DashboardSummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal snapshot %s: %w", institutionID, err)
	}

	key := SnapshotPath(institutionID, summary.GeneratedAt)
	if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive snapshot: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, EventSnapshotArchived, map[string]any{
			"institution_id": institutionID,
			"path":           key,
			"bytes":          len(data),
			"total_deals":    summary.ProgramHealth.TotalDeals,
			"health":         summary.ProgramHealth.Percentage,
		}); err != nil {
			a.logger.WarnContext(ctx, "snapshot stored but audit log failed",
				slog.String("institution_id", institutionID),
				slog.String("path", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return key, nil
}

// SnapshotInfo describes one archived snapshot.
type SnapshotInfo struct {
	Date string `json:"date"`
	domain.BlobInfo
}

// List returns an institution's snapshots, newest first.
func (a *SnapshotArchive) List(ctx context.Context, institutionID string) ([]SnapshotInfo, error) {
	blobs, err := a.reader.List(ctx, snapshotPrefix+institutionID+"/")
	if err != nil {
		return nil, fmt.Errorf("s3blob: list snapshots %s: %w", institutionID, err)
	}

	out := make([]SnapshotInfo, 0, len(blobs))
	for _, b := range blobs {
		date := strings.TrimSuffix(path.Base(b.Path), ".json")
		if _, err := time.Parse(snapshotDateLayout, date); err != nil {
			continue
		}
		out = append(out, SnapshotInfo{Date: date, BlobInfo: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Get loads the snapshot for date (YYYY-MM-DD). A missing snapshot yields
// domain.ErrNotFound; a malformed date yields domain.ErrInvalidInput.
func (a *SnapshotArchive) Get(ctx context.Context, institutionID, date string) (domain.DashboardSummary, error) {
	day, err := time.Parse(snapshotDateLayout, date)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("s3blob: snapshot date %q: %w", date, domain.ErrInvalidInput)
	}

	key := SnapshotPath(institutionID, day)
	ok, err := a.reader.Exists(ctx, key)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("s3blob: snapshot %s/%s: %w", institutionID, date, err)
	}
	if !ok {
		return domain.DashboardSummary{}, fmt.Errorf("s3blob: snapshot %s/%s: %w", institutionID, date, domain.ErrNotFound)
	}

	body, err := a.reader.Get(ctx, key)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("s3blob: read snapshot %s/%s: %w", institutionID, date, err)
	}
	var summary domain.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("s3blob: decode snapshot %s/%s: %w", institutionID, date, err)
	}
	return summary, nil
}
