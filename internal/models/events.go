package models

import "time"

// EventType enumerates the selection funnel stages.
type EventType string

const (
	EventShown       EventType = "shown"
	EventClicked     EventType = "clicked"
	EventShortlisted EventType = "shortlisted"
	EventContacted   EventType = "contacted"
	EventInterviewed EventType = "interviewed"
	EventHired       EventType = "hired"
)

// Valid reports whether the event type is a known funnel stage.
func (t EventType) Valid() bool {
	switch t {
	case EventShown, EventClicked, EventShortlisted, EventContacted, EventInterviewed, EventHired:
		return true
	}
	return false
}

// Fairness dimension values.
const (
	TierFaang      = "faang"
	TierEnterprise = "enterprise"
	TierStartup    = "startup"
	TierOther      = "other"

	Band0to3   = "0-3"
	Band3to7   = "3-7"
	Band7to15  = "7-15"
	Band15Plus = "15+"

	SpecFrontend  = "frontend"
	SpecBackend   = "backend"
	SpecFullstack = "fullstack"
	SpecDevops    = "devops"
	SpecML        = "ml"
	SpecMobile    = "mobile"
	SpecData      = "data"
	SpecOther     = "other"
)

// EventDimensions are the coarse fairness dimensions inferred per event.
type EventDimensions struct {
	CompanyTier    string `json:"companyTier"`
	ExperienceBand string `json:"experienceBand"`
	Specialty      string `json:"specialty"`
}

// SelectionEvent records one selection decision for fairness analytics.
// Immutable once created.
type SelectionEvent struct {
	EventID     string          `json:"eventId"`
	EventType   EventType       `json:"eventType"`
	CandidateID string          `json:"candidateId"`
	SearchID    string          `json:"searchId"`
	TenantID    string          `json:"tenantId"`
	UserHash    string          `json:"userHash"`
	Dimensions  EventDimensions `json:"dimensions"`
	Rank        *int            `json:"rank,omitempty"`
	Score       *float64        `json:"score,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}
