package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

// MaxActionRequired caps the dashboard's action list.
const MaxActionRequired = 20

const (
	actionReviewNow      = "REVIEW NOW"
	actionReviewRequired = "Review required"
	issueCritical        = "Critical compliance issue"
	issueNeedsReview     = "Needs review"
)

// actionItem returns the dashboard entry for a yellow or red deal.
func actionItem(a domain.Athlete, sd domain.ScoredDeal) (domain.ActionItem, bool) {
	switch sd.Status() {
	case domain.StatusRed:
		return newActionItem(a, sd, domain.SeverityCritical), true
	case domain.StatusYellow:
		return newActionItem(a, sd, domain.SeverityWarning), true
	}
	return domain.ActionItem{}, false
}

// queueItem returns the review-queue entry for any deal not scored green.
// Unscored and pending deals wait as warnings.
func queueItem(a domain.Athlete, sd domain.ScoredDeal) (domain.ActionItem, bool) {
	switch sd.Status() {
	case domain.StatusGreen:
		return domain.ActionItem{}, false
	case domain.StatusRed:
		return newActionItem(a, sd, domain.SeverityCritical), true
	}
	return newActionItem(a, sd, domain.SeverityWarning), true
}

func newActionItem(a domain.Athlete, sd domain.ScoredDeal, sev domain.Severity) domain.ActionItem {
	action, issue := actionReviewRequired, issueNeedsReview
	if sev == domain.SeverityCritical {
		action, issue = actionReviewNow, issueCritical
	}
	if sd.Score != nil && len(sd.Score.ReasonCodes) > 0 && sd.Score.ReasonCodes[0] != "" {
		issue = sd.Score.ReasonCodes[0]
	}
	return domain.ActionItem{
		ID:          sd.Deal.ID,
		AthleteID:   a.UserID,
		AthleteName: a.DisplayName(),
		Sport:       SportOf(a),
		DealID:      sd.Deal.ID,
		Severity:    sev,
		Issue:       issue,
		Amount:      ParseAmount(sd.Deal.Compensation),
		Action:      action,
		DueDate:     sd.Deal.CreatedAt,
	}
}

func severityRank(s domain.Severity) int {
	if s == domain.SeverityCritical {
		return 2
	}
	if s == domain.SeverityWarning {
		return 1
	}
	return 0
}

// priorityLess is the default queue order: critical first, then larger
// amounts, then earlier due dates, then deal ID.
func priorityLess(a, b domain.ActionItem) bool {
	if ra, rb := severityRank(a.Severity), severityRank(b.Severity); ra != rb {
		return ra > rb
	}
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.DealID < b.DealID
}

func sortByPriority(items []domain.ActionItem) {
	sort.SliceStable(items, func(i, j int) bool { return priorityLess(items[i], items[j]) })
}

// collectActionItems walks the roster in order and returns the deals pick
// accepts in priority order.
func collectActionItems(roster []domain.AthleteDeals, pick func(domain.Athlete, domain.ScoredDeal) (domain.ActionItem, bool)) []domain.ActionItem {
	items := []domain.ActionItem{}
	for _, ad := range roster {
		for _, sd := range ad.Deals {
			if item, ok := pick(ad.Athlete, sd); ok {
				items = append(items, item)
			}
		}
	}
	sortByPriority(items)
	return items
}

// SortKey selects the ordering of the action-item queue.
type SortKey string

const (
	SortBySeverity SortKey = "severity"
	SortByDate     SortKey = "date"
	SortByAmount   SortKey = "amount"
	SortByAthlete  SortKey = "athlete"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// ActionFilter narrows and pages the action-item queue. Zero values select
// everything, sorted by severity descending, first page of DefaultPageSize.
type ActionFilter struct {
	Severities []domain.Severity
	Sports     []string
	// From and To bound the deal creation time, both inclusive.
	From *time.Time
	To   *time.Time
	// Deadline keeps items whose disclosure deadline falls in one bucket,
	// measured from the start of Now's day. Now is required with it.
	Deadline DeadlineBucket
	Now      time.Time

	SortBy    SortKey
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// Normalize fills defaults and validates the filter.
func (f ActionFilter) Normalize() (ActionFilter, error) {
	if f.SortBy == "" {
		f.SortBy = SortBySeverity
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}

	switch f.SortBy {
	case SortBySeverity, SortByDate, SortByAmount, SortByAthlete:
	default:
		return f, fmt.Errorf("compliance: sortBy %q: %w", f.SortBy, domain.ErrInvalidInput)
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return f, fmt.Errorf("compliance: sortOrder %q: %w", f.SortOrder, domain.ErrInvalidInput)
	}
	if f.Page < 1 {
		return f, fmt.Errorf("compliance: page %d: %w", f.Page, domain.ErrInvalidInput)
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		return f, fmt.Errorf("compliance: pageSize %d: %w", f.PageSize, domain.ErrInvalidInput)
	}
	for _, s := range f.Severities {
		if s != domain.SeverityCritical && s != domain.SeverityWarning {
			return f, fmt.Errorf("compliance: severity %q: %w", s, domain.ErrInvalidInput)
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("compliance: date range ends before it starts: %w", domain.ErrInvalidInput)
	}
	if f.Deadline != "" {
		if !f.Deadline.Valid() {
			return f, fmt.Errorf("compliance: deadline %q: %w", f.Deadline, domain.ErrInvalidInput)
		}
		if f.Now.IsZero() {
			return f, fmt.Errorf("compliance: deadline filter without a reference time: %w", domain.ErrInvalidInput)
		}
	}
	return f, nil
}

func (f ActionFilter) match(w window, item domain.ActionItem) bool {
	if len(f.Severities) > 0 && !containsSeverity(f.Severities, item.Severity) {
		return false
	}
	if len(f.Sports) > 0 && !containsFold(f.Sports, item.Sport) {
		return false
	}
	if f.From != nil && item.DueDate.Before(*f.From) {
		return false
	}
	if f.To != nil && item.DueDate.After(*f.To) {
		return false
	}
	if f.Deadline != "" {
		if b, ok := w.bucket(Deadline(item.DueDate)); !ok || b != f.Deadline {
			return false
		}
	}
	return true
}

func containsSeverity(set []domain.Severity, s domain.Severity) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// compare returns <0, 0 or >0 for the ascending order of key.
func compare(key SortKey, a, b domain.ActionItem) int {
	switch key {
	case SortBySeverity:
		return severityRank(a.Severity) - severityRank(b.Severity)
	case SortByDate:
		return a.DueDate.Compare(b.DueDate)
	case SortByAmount:
		switch {
		case a.Amount < b.Amount:
			return -1
		case a.Amount > b.Amount:
			return 1
		}
		return 0
	case SortByAthlete:
		return strings.Compare(strings.ToLower(a.AthleteName), strings.ToLower(b.AthleteName))
	}
	return 0
}

// ListActionItems returns one page of the review queue after filtering and
// sorting. The queue holds every deal not scored green: red deals are
// critical, everything else a warning. Ties on the chosen key keep the
// default priority order.
func ListActionItems(roster []domain.AthleteDeals, filter ActionFilter) (domain.ActionPage, error) {
	f, err := filter.Normalize()
	if err != nil {
		return domain.ActionPage{}, err
	}

	w := newWindow(f.Now)
	all := collectActionItems(roster, queueItem)
	matched := all[:0]
	for _, item := range all {
		if f.match(w, item) {
			matched = append(matched, item)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		c := compare(f.SortBy, matched[i], matched[j])
		if f.SortOrder == SortDesc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	page := make([]domain.ActionItem, end-start)
	copy(page, matched[start:end])

	return domain.ActionPage{
		Items:      page,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}, nil
}
