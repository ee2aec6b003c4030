package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	s3blob "github.com/chatnil/compliancehub/internal/blob/s3"
	"github.com/chatnil/compliancehub/internal/domain"
)

// SnapshotReader lists and loads archived dashboard snapshots.
type SnapshotReader interface {
	List(ctx context.Context, institutionID string) ([]s3blob.SnapshotInfo, error)
	Get(ctx context.Context, institutionID, date string) (domain.DashboardSummary, error)
}

// OfficerResolver maps an authenticated user to their officer record.
type OfficerResolver interface {
	Officer(ctx context.Context, userID string) (domain.Officer, error)
}

// SnapshotHandler serves the audit snapshot archive. A nil reader means
// archiving is disabled and every request gets 404.
type SnapshotHandler struct {
	officers  OfficerResolver
	snapshots SnapshotReader
	logger    *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(officers OfficerResolver, snapshots SnapshotReader, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{officers: officers, snapshots: snapshots, logger: logHandler(logger, "snapshots")}
}

type listSnapshotsResponse struct {
	Snapshots []s3blob.SnapshotInfo `json:"snapshots"`
}

// List returns the officer's institution snapshots, newest first.
// GET /api/compliance/snapshots
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	officer, ok := h.officer(w, r)
	if !ok {
		return
	}
	items, err := h.snapshots.List(r.Context(), officer.Institution.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, listSnapshotsResponse{Snapshots: items})
}

// Get returns one archived snapshot.
// GET /api/compliance/snapshots/{date}
func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	officer, ok := h.officer(w, r)
	if !ok {
		return
	}
	summary, err := h.snapshots.Get(r.Context(), officer.Institution.ID, pathParam(r, "date"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		writeServiceError(w, r, h.logger, "get snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *SnapshotHandler) officer(w http.ResponseWriter, r *http.Request) (domain.Officer, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return domain.Officer{}, false
	}
	if h.snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshot archive disabled")
		return domain.Officer{}, false
	}
	officer, err := h.officers.Officer(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, "resolve officer", err)
		return domain.Officer{}, false
	}
	return officer, true
}
