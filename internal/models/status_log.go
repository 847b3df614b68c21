package models

import (
	"time"
)

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Label returns the display string for a run status.
func (s RunStatus) Label() string {
	switch s {
	case RunStatusPending:
		return "Pending"
	case RunStatusSuccess:
		return "Success"
	case RunStatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// StatusLog is one append-only pipeline run record. The most recent row
// decides whether a new run may start.
type StatusLog struct {
	ID          string     `json:"id"`
	TriggeredBy string     `json:"triggered_by"`
	Status      RunStatus  `json:"status"`
	Error       *string    `json:"error,omitempty"`
	TriggeredAt time.Time  `json:"triggered_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ReleaseMetadata is the single configuration row holding the year ceilings
// applied as read-time filters over snapshot tables.
type ReleaseMetadata struct {
	ReleaseYear    int       `json:"release_year"`
	PreReleaseYear int       `json:"pre_release_year"`
	UpdatedAt      time.Time `json:"updated_at"`
}
