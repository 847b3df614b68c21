package models

import (
	"time"
)

// Event is a displacement-causing incident aggregating many figures. Its
// review status is derived from the statuses of its QA-eligible figures and
// is only directly settable through the explicit sign-off action.
type Event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cause Cause  `json:"event_type"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CountryISO3s []string    `json:"country_iso3s"`
	EventCodes   []EventCode `json:"event_codes,omitempty"`

	// Violence chain for conflict events.
	ViolenceSubTypeID *string `json:"violence_sub_type_id,omitempty"`
	ViolenceID        *string `json:"violence_id,omitempty"`

	// Hazard chain for disaster events.
	DisasterSubTypeID     *string `json:"disaster_sub_type_id,omitempty"`
	DisasterTypeID        *string `json:"disaster_type_id,omitempty"`
	DisasterSubCategoryID *string `json:"disaster_sub_category_id,omitempty"`
	DisasterCategoryID    *string `json:"disaster_category_id,omitempty"`

	// IncludeTriangulationInQA widens the QA-eligible figure set to
	// triangulation figures; toggling it recomputes the derived status.
	IncludeTriangulationInQA bool `json:"include_triangulation_in_qa"`

	// IgnoreQA excludes the event from QA status derivation entirely.
	IgnoreQA bool `json:"ignore_qa"`

	ReviewStatus EventReviewStatus `json:"review_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventCode is an external identifier for an event (GLIDE number and the
// like), optionally scoped to one of the event's countries.
type EventCode struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	CountryISO3 string `json:"country_iso3,omitempty"`
}

// EventReviewStatus is the per-event review lifecycle state.
type EventReviewStatus string

const (
	EventReviewNotStarted       EventReviewStatus = "review_not_started"
	EventReviewInProgress       EventReviewStatus = "review_in_progress"
	EventReviewApproved         EventReviewStatus = "approved"
	EventReviewApprovedChanged  EventReviewStatus = "approved_but_changed"
	EventReviewSignedOff        EventReviewStatus = "signed_off"
	EventReviewSignedOffChanged EventReviewStatus = "signed_off_but_changed"
)

// UserSelectable reports whether the status may be offered as a filter value
// to users. The *_BUT_CHANGED statuses are recomputed states and are folded
// back into review_in_progress by the filter layer.
func (s EventReviewStatus) UserSelectable() bool {
	switch s {
	case EventReviewApprovedChanged, EventReviewSignedOffChanged:
		return false
	default:
		return true
	}
}

// Label returns the display string for an event review status.
func (s EventReviewStatus) Label() string {
	switch s {
	case EventReviewNotStarted:
		return "Review not started"
	case EventReviewInProgress:
		return "Review in progress"
	case EventReviewApproved:
		return "Approved"
	case EventReviewApprovedChanged:
		return "Approved but changed"
	case EventReviewSignedOff:
		return "Signed off"
	case EventReviewSignedOffChanged:
		return "Signed off but changed"
	default:
		return string(s)
	}
}
