package models

import (
	"time"
)

// Snapshot rows are fully derived and disposable: every pipeline run deletes
// and recomputes them wholesale inside one transaction. Nullable totals
// distinguish "no data" from a present-but-zero value; the *Rounded fields
// are presentation-only and never feed further aggregation.

// ConflictRow is the per-country-per-year conflict statistic.
type ConflictRow struct {
	ID          string `json:"id"`
	CountryISO3 string `json:"country_iso3"`
	CountryName string `json:"country_name"`
	Year        int    `json:"year"`

	TotalDisplacement *int `json:"total_displacement,omitempty"` // stock (IDPs)
	NewDisplacement   *int `json:"new_displacement,omitempty"`   // flow

	TotalDisplacementRounded *int `json:"total_displacement_rounded,omitempty"`
	NewDisplacementRounded   *int `json:"new_displacement_rounded,omitempty"`
}

// DisasterRow is the per-event-per-country-per-year disaster statistic,
// carrying denormalized hazard labels and the event's deduplicated codes.
type DisasterRow struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name"`
	CountryISO3 string `json:"country_iso3"`
	CountryName string `json:"country_name"`
	Year        int    `json:"year"`

	HazardCategoryName    string `json:"hazard_category_name"`
	HazardSubCategoryName string `json:"hazard_sub_category_name"`
	HazardTypeName        string `json:"hazard_type_name"`
	HazardSubTypeName     string `json:"hazard_sub_type_name"`

	EventCodes     []string `json:"event_codes"`
	EventCodeTypes []string `json:"event_code_types"`

	TotalDisplacement *int `json:"total_displacement,omitempty"`
	NewDisplacement   *int `json:"new_displacement,omitempty"`

	TotalDisplacementRounded *int `json:"total_displacement_rounded,omitempty"`
	NewDisplacementRounded   *int `json:"new_displacement_rounded,omitempty"`
}

// DisplacementDataRow joins conflict and disaster statistics per country/year
// into one row with four independently nullable totals.
type DisplacementDataRow struct {
	ID          string `json:"id"`
	CountryISO3 string `json:"country_iso3"`
	CountryName string `json:"country_name"`
	Year        int    `json:"year"`

	ConflictTotalDisplacement *int `json:"conflict_total_displacement,omitempty"`
	ConflictNewDisplacement   *int `json:"conflict_new_displacement,omitempty"`
	DisasterTotalDisplacement *int `json:"disaster_total_displacement,omitempty"`
	DisasterNewDisplacement   *int `json:"disaster_new_displacement,omitempty"`

	ConflictTotalDisplacementRounded *int `json:"conflict_total_displacement_rounded,omitempty"`
	ConflictNewDisplacementRounded   *int `json:"conflict_new_displacement_rounded,omitempty"`
	DisasterTotalDisplacementRounded *int `json:"disaster_total_displacement_rounded,omitempty"`
	DisasterNewDisplacementRounded   *int `json:"disaster_new_displacement_rounded,omitempty"`
}

// PublicFigureAnalysisRow is the public per-country/year/cause/category
// materialization consumed by narrative surfaces.
type PublicFigureAnalysisRow struct {
	ID          string         `json:"id"`
	CountryISO3 string         `json:"country_iso3"`
	Year        int            `json:"year"`
	Cause       Cause          `json:"cause"`
	Category    FigureCategory `json:"figure_category"`

	Figures        *int   `json:"figures,omitempty"`
	FiguresRounded *int   `json:"figures_rounded,omitempty"`
	Description    string `json:"description"`
}

// GiddEvent is the denormalized per-event snapshot. All label strings are
// resolved at build time so public reads require no joins. The code/type/ISO3
// arrays are parallel and must stay index-aligned.
type GiddEvent struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Name      string     `json:"name"`
	Cause     Cause      `json:"cause"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CountryISO3s []string `json:"country_iso3s"`
	CountryNames []string `json:"country_names"`

	HazardCategoryName    string `json:"hazard_category_name"`
	HazardSubCategoryName string `json:"hazard_sub_category_name"`
	HazardTypeName        string `json:"hazard_type_name"`
	HazardSubTypeName     string `json:"hazard_sub_type_name"`
	ViolenceName          string `json:"violence_name"`
	ViolenceSubTypeName   string `json:"violence_sub_type_name"`

	EventCodes     []string `json:"event_codes"`
	EventCodeTypes []string `json:"event_code_types"`
	EventCodeISO3s []string `json:"event_code_iso3s"`
}

// GiddFigure is the denormalized per-(figure, year) snapshot. Multi-valued
// relations are captured as parallel id/name/type arrays; misalignment is a
// correctness bug, not a warning. Confidential entries keep their publisher
// and source arrays empty.
type GiddFigure struct {
	ID       string `json:"id"`
	FigureID string `json:"figure_id"`
	EventID  string `json:"event_id"`
	EntryID  string `json:"entry_id"`
	Year     int    `json:"year"`

	CountryISO3 string `json:"country_iso3"`
	CountryName string `json:"country_name"`

	Category      FigureCategory `json:"category"`
	Cause         Cause          `json:"cause"`
	Unit          Unit           `json:"unit"`
	Reported      int            `json:"reported"`
	HouseholdSize *float64       `json:"household_size,omitempty"`
	TotalFigures  int            `json:"total_figures"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	HazardCategoryName  string `json:"hazard_category_name"`
	HazardTypeName      string `json:"hazard_type_name"`
	HazardSubTypeName   string `json:"hazard_sub_type_name"`
	ViolenceName        string `json:"violence_name"`
	ViolenceSubTypeName string `json:"violence_sub_type_name"`

	PublisherIDs   []string `json:"publisher_ids"`
	PublisherNames []string `json:"publisher_names"`
	PublisherTypes []string `json:"publisher_types"`

	SourceIDs   []string `json:"source_ids"`
	SourceNames []string `json:"source_names"`
	SourceTypes []string `json:"source_types"`

	TagIDs   []string `json:"tag_ids"`
	TagNames []string `json:"tag_names"`

	LocationIDs         []string `json:"location_ids"`
	LocationNames       []string `json:"location_names"`
	LocationAccuracies  []string `json:"location_accuracies"`
	LocationCoordinates []string `json:"location_coordinates"`

	EventCodes     []string `json:"event_codes"`
	EventCodeTypes []string `json:"event_code_types"`
}
