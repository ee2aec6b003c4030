package compliance_test

import (
	"fmt"
	"time"

	"github.com/chatnil/compliancehub/internal/domain"
)

var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func athlete(id, name, sport string) domain.Athlete {
	return domain.Athlete{ID: "p-" + id, UserID: id, FullName: name, Sport: sport, InstitutionID: "inst-1"}
}

type dealOpt func(*domain.ScoredDeal)

func scored(status domain.ComplianceStatus, reasons ...string) dealOpt {
	return func(sd *domain.ScoredDeal) {
		sd.Score = &domain.ComplianceScore{DealID: sd.Deal.ID, Status: status, ReasonCodes: reasons}
	}
}

func amount(v string) dealOpt {
	return func(sd *domain.ScoredDeal) { sd.Deal.Compensation = v }
}

func dealStatus(s domain.DealStatus) dealOpt {
	return func(sd *domain.ScoredDeal) { sd.Deal.Status = s }
}

func brand(name string) dealOpt {
	return func(sd *domain.ScoredDeal) { sd.Deal.ThirdPartyName = name }
}

var dealSeq int

func deal(athleteID string, created time.Time, opts ...dealOpt) domain.ScoredDeal {
	dealSeq++
	sd := domain.ScoredDeal{Deal: domain.Deal{
		ID:        fmt.Sprintf("deal-%03d", dealSeq),
		AthleteID: athleteID,
		Title:     "Deal",
		Status:    domain.DealSubmitted,
		CreatedAt: created,
	}}
	for _, opt := range opts {
		opt(&sd)
	}
	return sd
}

func ago(d time.Duration) time.Time { return testNow.Add(-d) }

const day = 24 * time.Hour
