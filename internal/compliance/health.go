package compliance

import "github.com/chatnil/compliancehub/internal/domain"

// healthTally counts green deals against all scored deals.
type healthTally struct {
	green  int
	scored int
}

func (h *healthTally) add(s domain.ComplianceStatus) {
	if !s.Scored() {
		return
	}
	h.scored++
	if s == domain.StatusGreen {
		h.green++
	}
}

// percent is rounded to one decimal, 100 when nothing is scored.
func (h healthTally) percent() float64 {
	return ratioPercent1(h.green, h.scored)
}

// programHealthTally tracks all-time health plus the two trailing weeks the
// trend compares.
type programHealthTally struct {
	all      healthTally
	thisWeek healthTally
	lastWeek healthTally
}

func (p *programHealthTally) add(w window, sd domain.ScoredDeal) {
	s := sd.Status()
	p.all.add(s)
	switch {
	case w.inThisWeek(sd.Deal.CreatedAt):
		p.thisWeek.add(s)
	case w.inLastWeek(sd.Deal.CreatedAt):
		p.lastWeek.add(s)
	}
}

func (p programHealthTally) result(athletes, deals int) domain.ProgramHealth {
	return domain.ProgramHealth{
		Percentage:    p.all.percent(),
		Trend:         round1(p.thisWeek.percent() - p.lastWeek.percent()),
		TotalAthletes: athletes,
		TotalDeals:    deals,
	}
}
