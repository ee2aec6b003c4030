package compliance

import (
	"sort"
	"strings"

	"github.com/chatnil/compliancehub/internal/domain"
)

// MaxSports caps the bySport breakdown.
const MaxSports = 10

// OtherSport labels athletes with no sport on file.
const OtherSport = "Other"

// SportOf returns the athlete's sport label, defaulting to OtherSport.
func SportOf(a domain.Athlete) string {
	if s := strings.TrimSpace(a.Sport); s != "" {
		return s
	}
	return OtherSport
}

type sportStats struct {
	total     int
	compliant int
	red       int
	yellow    int
}

// sportTally groups athletes by sport in first-seen order.
type sportTally struct {
	order []string
	stats map[string]*sportStats
}

func newSportTally() *sportTally {
	return &sportTally{stats: make(map[string]*sportStats)}
}

// add records one athlete whose worst status is worst. An athlete with no
// deals counts as compliant.
func (t *sportTally) add(sport string, worst domain.ComplianceStatus, deals int) {
	st, ok := t.stats[sport]
	if !ok {
		st = &sportStats{}
		t.stats[sport] = st
		t.order = append(t.order, sport)
	}
	st.total++
	switch {
	case deals == 0 || worst == domain.StatusGreen:
		st.compliant++
	case worst == domain.StatusRed:
		st.red++
	case worst == domain.StatusYellow:
		st.yellow++
	}
}

// result returns up to MaxSports entries, least compliant first.
func (t *sportTally) result() []domain.SportCompliance {
	out := make([]domain.SportCompliance, 0, len(t.order))
	for _, name := range t.order {
		st := t.stats[name]
		out = append(out, domain.SportCompliance{
			Sport:                name,
			TotalAthletes:        st.total,
			CompliancePercentage: ratioPercent(st.compliant, st.total),
			RedCount:             st.red,
			YellowCount:          st.yellow,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompliancePercentage != out[j].CompliancePercentage {
			return out[i].CompliancePercentage < out[j].CompliancePercentage
		}
		return out[i].Sport < out[j].Sport
	})
	if len(out) > MaxSports {
		out = out[:MaxSports]
	}
	return out
}
