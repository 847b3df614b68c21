package figure

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/GIDD/gidd/internal/models"
)

// CalculateTotal derives the canonical total count from the raw reported
// value. Household figures multiply by household size and round half up
// (ties away from zero), everything else passes through unchanged.
func CalculateTotal(reported int, unit models.Unit, householdSize *float64) (int, error) {
	if reported < 0 {
		return 0, fmt.Errorf("reported must be non-negative, got %d", reported)
	}

	if unit != models.UnitHousehold {
		return reported, nil
	}

	if householdSize == nil || *householdSize <= 0 {
		return 0, fmt.Errorf("household unit requires a positive household size")
	}

	return roundHalfUp(float64(reported) * *householdSize), nil
}

// roundHalfUp rounds ties away from zero, never to even.
func roundHalfUp(x float64) int {
	if x < 0 {
		return -int(math.Floor(-x + 0.5))
	}
	return int(math.Floor(x + 0.5))
}

// Input is the proposed attribute bundle for a figure create or update. For
// updates, callers pre-populate it from the persisted record so omitted
// fields default to current values.
type Input struct {
	EntryID     string
	EventID     string
	CountryISO3 string
	CountryName string

	Reported      int
	Unit          models.Unit
	HouseholdSize *float64

	Category models.FigureCategory
	Role     models.FigureRole
	Cause    models.Cause

	StartDate time.Time
	EndDate   *time.Time

	IncludeIDU bool
	ExcerptIDU string

	Disaggregation models.Disaggregation
	Locations      []models.FigureLocation

	ViolenceSubTypeID *string
	DisasterSubTypeID *string

	TagIDs []string
}

// Validate checks the proposed attributes against the owning event and
// produces the fully derived figure. Every check runs; all failures are
// collected into the returned field map and nothing is persisted when it is
// non-empty. On success the returned figure carries the computed total and
// the derived taxonomy parents.
func Validate(in Input, current *models.Figure, event *models.Event, tax models.TaxonomyIndex) (models.Figure, models.ValidationErrors) {
	errs := models.ValidationErrors{}

	if in.Reported < 0 {
		errs.Add("reported", "must be non-negative")
	}

	switch in.Unit {
	case models.UnitPerson, models.UnitHousehold:
	default:
		errs.Add("unit", fmt.Sprintf("unknown unit %q", in.Unit))
	}

	if in.Unit == models.UnitHousehold && (in.HouseholdSize == nil || *in.HouseholdSize <= 0) {
		errs.Add("household_size", "required and must be positive for household unit")
	}

	total := 0
	if t, err := CalculateTotal(in.Reported, in.Unit, in.HouseholdSize); err == nil {
		total = t
	}

	validateDisaggregation(in.Disaggregation, total, errs)
	validateLocations(in.Locations, in.CountryISO3, errs)
	validateDates(in.StartDate, in.EndDate, event, errs)

	if in.IncludeIDU && strings.TrimSpace(in.ExcerptIDU) == "" {
		errs.Add("excerpt_idu", "required when the figure is included in IDU")
	}

	if event != nil && in.Cause != event.Cause {
		errs.Add("figure_cause", fmt.Sprintf("must match the event cause %q", event.Cause))
	}

	out := models.Figure{
		EntryID:        in.EntryID,
		EventID:        in.EventID,
		CountryISO3:    in.CountryISO3,
		CountryName:    in.CountryName,
		Reported:       in.Reported,
		Unit:           in.Unit,
		HouseholdSize:  in.HouseholdSize,
		TotalFigures:   total,
		Category:       in.Category,
		Role:           in.Role,
		Cause:          in.Cause,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		IncludeIDU:     in.IncludeIDU,
		ExcerptIDU:     in.ExcerptIDU,
		Disaggregation: in.Disaggregation,
		Locations:      in.Locations,
		TagIDs:         in.TagIDs,
		ReviewStatus:   models.FigureReviewNotStarted,
	}

	if current != nil {
		out.ID = current.ID
		// Content edits never advance or reset the review workflow.
		out.ReviewStatus = current.ReviewStatus
		out.CreatedAt = current.CreatedAt
	}

	deriveTaxonomy(&out, in, tax, errs)

	if errs.Any() {
		return models.Figure{}, errs
	}
	return out, nil
}

// sumGroup adds the set fields of one mutually-exclusive disaggregation
// group; ok is false when no field was provided.
func sumGroup(values ...*int) (int, bool) {
	sum, ok := 0, false
	for _, v := range values {
		if v != nil {
			sum += *v
			ok = true
		}
	}
	return sum, ok
}

func validateDisaggregation(d models.Disaggregation, total int, errs models.ValidationErrors) {
	groups := []struct {
		label  string
		fields []string
		values []*int
	}{
		{"camp and non-camp", []string{"disaggregation_location_camp", "disaggregation_location_non_camp"}, []*int{d.LocationCamp, d.LocationNonCamp}},
		{"urban and rural", []string{"disaggregation_urban", "disaggregation_rural"}, []*int{d.Urban, d.Rural}},
		{"Disability", []string{"disaggregation_disability"}, []*int{d.Disability}},
		{"Indigenous people", []string{"disaggregation_indigenous_people"}, []*int{d.IndigenousPeople}},
	}

	for _, g := range groups {
		sum, ok := sumGroup(g.values...)
		if !ok || sum <= total {
			continue
		}
		for i, field := range g.fields {
			if g.values[i] == nil {
				continue
			}
			errs.Add(field, fmt.Sprintf("sum of %s figures (%d) exceeds the total figure (%d)", g.label, sum, total))
		}
	}

	if len(d.Age) > 0 {
		sum := 0
		for _, bucket := range d.Age {
			sum += bucket.Value
		}
		if sum > total {
			errs.Add("disaggregation_age", fmt.Sprintf("sum of age figures (%d) exceeds the total figure (%d)", sum, total))
		}
	}
}

func validateLocations(locations []models.FigureLocation, iso3 string, errs models.ValidationErrors) {
	for _, loc := range locations {
		if loc.IsDestination {
			continue
		}
		if loc.CountryISO3 != "" && loc.CountryISO3 != iso3 {
			errs.Add("geo_locations", fmt.Sprintf("location %q belongs to %s, not the figure country %s", loc.Name, loc.CountryISO3, iso3))
		}
	}
}

func validateDates(start time.Time, end *time.Time, event *models.Event, errs models.ValidationErrors) {
	if end != nil && end.Before(start) {
		errs.Add("end_date", "must not precede the start date")
	}

	if event == nil {
		return
	}
	if start.Before(event.StartDate) {
		errs.Add("start_date", "must not precede the event start date")
	}
	if event.EndDate != nil && end != nil && end.After(*event.EndDate) {
		errs.Add("end_date", "must not exceed the event end date")
	}
}

// deriveTaxonomy recomputes the parent chain whenever the sub-type is set,
// discarding whatever the caller may have sent for parent fields.
func deriveTaxonomy(out *models.Figure, in Input, tax models.TaxonomyIndex, errs models.ValidationErrors) {
	if in.DisasterSubTypeID != nil {
		parents, err := DeriveDisasterParents(*in.DisasterSubTypeID, tax)
		if err != nil {
			errs.Add("disaster_sub_type", err.Error())
		} else {
			out.DisasterSubTypeID = in.DisasterSubTypeID
			out.DisasterTypeID = &parents.TypeID
			out.DisasterSubCategoryID = &parents.SubCategoryID
			out.DisasterCategoryID = &parents.CategoryID
		}
	}

	if in.ViolenceSubTypeID != nil {
		violenceID, err := DeriveViolenceParent(*in.ViolenceSubTypeID, tax)
		if err != nil {
			errs.Add("violence_sub_type", err.Error())
		} else {
			out.ViolenceSubTypeID = in.ViolenceSubTypeID
			out.ViolenceID = &violenceID
		}
	}
}
