package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chatnil/compliancehub/internal/compliance"
	"github.com/chatnil/compliancehub/internal/domain"
)

// DashboardService defines what the compliance handler needs from the
// service layer.
type DashboardService interface {
	Officer(ctx context.Context, userID string) (domain.Officer, error)
	Dashboard(ctx context.Context, userID string, refresh bool) (domain.DashboardSummary, error)
	ActionItems(ctx context.Context, userID string, filter compliance.ActionFilter) (domain.ActionPage, error)
}

// ComplianceHandler serves the officer dashboard endpoints.
type ComplianceHandler struct {
	dashboards DashboardService
	logger     *slog.Logger
}

// NewComplianceHandler creates a ComplianceHandler.
func NewComplianceHandler(dashboards DashboardService, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{dashboards: dashboards, logger: logHandler(logger, "compliance")}
}

// Dashboard returns the officer's dashboard summary.
// GET /api/compliance/dashboard?refresh=true
func (h *ComplianceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	summary, err := h.dashboards.Dashboard(r.Context(), userID, refresh)
	if err != nil {
		writeServiceError(w, r, h.logger, "dashboard", err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, http.StatusOK, summary)
}

// ActionItems returns a filtered, sorted page of deals needing review.
// GET /api/compliance/action-items?severity=critical&sport=Football&dateFrom=2025-03-01&sortBy=amount&page=2
func (h *ComplianceHandler) ActionItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	filter, err := parseActionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.dashboards.ActionItems(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, r, h.logger, "action items", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parseActionFilter reads the action-item query. Range checks on the
// values are left to compliance.ActionFilter.Normalize.
func parseActionFilter(r *http.Request) (compliance.ActionFilter, error) {
	q := r.URL.Query()
	f := compliance.ActionFilter{
		Sports:    queryList(r, "sport"),
		SortBy:    compliance.SortKey(strings.ToLower(q.Get("sortBy"))),
		SortOrder: compliance.SortOrder(strings.ToLower(q.Get("sortOrder"))),
		Deadline:  compliance.DeadlineBucket(q.Get("deadline")),
	}
	for _, s := range queryList(r, "severity") {
		f.Severities = append(f.Severities, domain.Severity(strings.ToLower(s)))
	}

	var ok bool
	if f.Page, ok = queryInt(r, "page"); !ok {
		return f, fmt.Errorf("page must be an integer")
	}
	if f.PageSize, ok = queryInt(r, "pageSize"); !ok {
		return f, fmt.Errorf("pageSize must be an integer")
	}

	var err error
	if f.From, err = parseDateParam(q.Get("dateFrom"), false); err != nil {
		return f, fmt.Errorf("dateFrom: %w", err)
	}
	if f.To, err = parseDateParam(q.Get("dateTo"), true); err != nil {
		return f, fmt.Errorf("dateTo: %w", err)
	}
	return f, nil
}

// parseDateParam accepts RFC 3339 timestamps or YYYY-MM-DD dates in UTC. A
// bare date used as an upper bound covers the whole day.
func parseDateParam(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
