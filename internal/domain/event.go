package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types published on the compliance bus.
const (
	EventDashboardUpdated = "dashboard.updated"
	EventDeadlinesOverdue = "deadlines.overdue"
	EventSnapshotArchived = "snapshot.archived"
)

// ComplianceChannelPattern matches every compliance bus channel.
const ComplianceChannelPattern = "ch:compliance:*"

// ComplianceChannel returns the bus channel for one institution and topic,
// e.g. "ch:compliance:<id>:dashboard".
func ComplianceChannel(institutionID, topic string) string {
	return "ch:compliance:" + institutionID + ":" + topic
}

// Event is the envelope published on the compliance bus and forwarded to
// WebSocket clients of the same institution.
type Event struct {
	Type          string          `json:"type"`
	InstitutionID string          `json:"institutionId"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	At            time.Time       `json:"at"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(typ, institutionID string, payload any, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("domain: marshal %s payload: %w", typ, err)
	}
	return json.Marshal(Event{Type: typ, InstitutionID: institutionID, Payload: raw, At: at})
}
