package models

import (
	"time"
)

// Figure is a single reported displacement measurement tied to an event, a
// country and a time window. TotalFigures is derived, never set by callers.
type Figure struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entry_id"`
	EventID     string    `json:"event_id"`
	CountryISO3 string    `json:"country_iso3"`
	CountryName string    `json:"country_name"`

	Reported      int      `json:"reported"`
	Unit          Unit     `json:"unit"`
	HouseholdSize *float64 `json:"household_size,omitempty"`
	TotalFigures  int      `json:"total_figures"`

	Category FigureCategory `json:"category"`
	Role     FigureRole     `json:"role"`
	Cause    Cause          `json:"figure_cause"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	IncludeIDU bool   `json:"include_idu"`
	ExcerptIDU string `json:"excerpt_idu,omitempty"`

	Disaggregation Disaggregation   `json:"disaggregation"`
	Locations      []FigureLocation `json:"locations,omitempty"`

	// Violence chain: sub-type is caller-settable, the parent is derived.
	ViolenceSubTypeID *string `json:"violence_sub_type_id,omitempty"`
	ViolenceID        *string `json:"violence_id,omitempty"`

	// Hazard chain: sub-type is caller-settable, parents are derived.
	DisasterSubTypeID     *string `json:"disaster_sub_type_id,omitempty"`
	DisasterTypeID        *string `json:"disaster_type_id,omitempty"`
	DisasterSubCategoryID *string `json:"disaster_sub_category_id,omitempty"`
	DisasterCategoryID    *string `json:"disaster_category_id,omitempty"`

	TagIDs []string `json:"tag_ids,omitempty"`

	ReviewStatus FigureReviewStatus `json:"review_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unit is the unit of a reported figure.
type Unit string

const (
	UnitPerson    Unit = "person"
	UnitHousehold Unit = "household"
)

// Label returns the display string for a unit. Storage stays on the stable
// enum value; presentation is a pure function.
func (u Unit) Label() string {
	switch u {
	case UnitPerson:
		return "Person"
	case UnitHousehold:
		return "Household"
	default:
		return string(u)
	}
}

// FigureCategory classifies what a figure counts.
type FigureCategory string

const (
	CategoryIDPs            FigureCategory = "idps"             // stock
	CategoryNewDisplacement FigureCategory = "new_displacement" // flow
	CategoryReturnees       FigureCategory = "returnees"
	CategoryOther           FigureCategory = "other"
)

// IsStock reports whether the category is a point-in-time population count.
func (c FigureCategory) IsStock() bool { return c == CategoryIDPs }

// IsFlow reports whether the category counts displacements within a period.
func (c FigureCategory) IsFlow() bool { return c == CategoryNewDisplacement }

// Label returns the display string for a category.
func (c FigureCategory) Label() string {
	switch c {
	case CategoryIDPs:
		return "IDPs"
	case CategoryNewDisplacement:
		return "Internal Displacements"
	case CategoryReturnees:
		return "Returnees"
	default:
		return "Other"
	}
}

// FigureRole distinguishes the authoritative figure from corroborating ones.
type FigureRole string

const (
	RoleRecommended   FigureRole = "recommended"
	RoleTriangulation FigureRole = "triangulation"
)

// Label returns the display string for a role.
func (r FigureRole) Label() string {
	switch r {
	case RoleRecommended:
		return "Recommended"
	case RoleTriangulation:
		return "Triangulation"
	default:
		return string(r)
	}
}

// Cause is the displacement trigger of a figure or event.
type Cause string

const (
	CauseConflict Cause = "conflict"
	CauseDisaster Cause = "disaster"
	CauseOther    Cause = "other"
)

// Label returns the display string for a cause.
func (c Cause) Label() string {
	switch c {
	case CauseConflict:
		return "Conflict"
	case CauseDisaster:
		return "Disaster"
	default:
		return "Other"
	}
}

// FigureReviewStatus is the per-figure review lifecycle state.
type FigureReviewStatus string

const (
	FigureReviewNotStarted  FigureReviewStatus = "review_not_started"
	FigureReviewInProgress  FigureReviewStatus = "review_in_progress"
	FigureReviewReRequested FigureReviewStatus = "review_re_requested"
	FigureReviewApproved    FigureReviewStatus = "approved"
)

// Label returns the display string for a figure review status.
func (s FigureReviewStatus) Label() string {
	switch s {
	case FigureReviewNotStarted:
		return "Review not started"
	case FigureReviewInProgress:
		return "Review in progress"
	case FigureReviewReRequested:
		return "Review re-requested"
	case FigureReviewApproved:
		return "Approved"
	default:
		return string(s)
	}
}

// Disaggregation carries optional sub-counts of a figure's total. Each group
// of mutually exclusive fields must sum to at most TotalFigures.
type Disaggregation struct {
	LocationCamp     *int        `json:"location_camp,omitempty"`
	LocationNonCamp  *int        `json:"location_non_camp,omitempty"`
	Urban            *int        `json:"urban,omitempty"`
	Rural            *int        `json:"rural,omitempty"`
	Disability       *int        `json:"disability,omitempty"`
	IndigenousPeople *int        `json:"indigenous_people,omitempty"`
	Age              []AgeBucket `json:"age,omitempty"`
}

// AgeBucket is one entry of the per-age disaggregation list.
type AgeBucket struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
}

// FigureLocation is a geo-location attached to a figure. Destination
// locations may legitimately lie outside the figure's country.
type FigureLocation struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CountryISO3   string  `json:"country_iso3"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Accuracy      string  `json:"accuracy"`
	IsDestination bool    `json:"is_destination"`
}
