package handler

import (
	"net/http"
	"time"
)

// StatusHandler reports how this process is running.
type StatusHandler struct {
	Mode      string
	Jobs      []string
	Snapshots bool
	StartedAt time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, jobs []string, snapshots bool, startedAt time.Time) *StatusHandler {
	return &StatusHandler{Mode: mode, Jobs: jobs, Snapshots: snapshots, StartedAt: startedAt}
}

// GetStatus responds with the mode, scheduled jobs and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobs := h.Jobs
	if jobs == nil {
		jobs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":             h.Mode,
		"jobs":             jobs,
		"snapshotsEnabled": h.Snapshots,
		"startedAt":        h.StartedAt.UTC().Format(time.RFC3339),
		"uptimeSeconds":    int64(time.Since(h.StartedAt).Seconds()),
	})
}
