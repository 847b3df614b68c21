package figure

import (
	"testing"
	"time"

	"github.com/GIDD/gidd/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name          string
		reported      int
		unit          models.Unit
		householdSize *float64
		want          int
		wantErr       bool
	}{
		{"person passes through", 120, models.UnitPerson, nil, 120, false},
		{"household multiplies", 10, models.UnitHousehold, floatPtr(4.5), 45, false},
		{"half rounds up not to even", 7, models.UnitHousehold, floatPtr(2.5), 18, false},
		{"another tie rounds up", 5, models.UnitHousehold, floatPtr(2.5), 13, false},
		{"zero reported", 0, models.UnitPerson, nil, 0, false},
		{"negative reported rejected", -1, models.UnitPerson, nil, 0, true},
		{"household without size rejected", 10, models.UnitHousehold, nil, 0, true},
		{"household with zero size rejected", 10, models.UnitHousehold, floatPtr(0), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateTotal(tt.reported, tt.unit, tt.householdSize)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func testTaxonomy() models.TaxonomyIndex {
	return models.TaxonomyIndex{
		DisasterCategories: map[string]models.DisasterCategory{
			"cat-weather": {ID: "cat-weather", Name: "Weather related"},
		},
		DisasterSubCategories: map[string]models.DisasterSubCategory{
			"subcat-hydro": {ID: "subcat-hydro", Name: "Hydrological", CategoryID: "cat-weather"},
		},
		DisasterTypes: map[string]models.DisasterType{
			"type-flood": {ID: "type-flood", Name: "Flood", SubCategoryID: "subcat-hydro"},
		},
		DisasterSubTypes: map[string]models.DisasterSubType{
			"subtype-flash": {ID: "subtype-flash", Name: "Flash flood", TypeID: "type-flood"},
		},
		Violences: map[string]models.Violence{
			"v-iac": {ID: "v-iac", Name: "International armed conflict"},
		},
		ViolenceSubTypes: map[string]models.ViolenceSubType{
			"vst-military": {ID: "vst-military", Name: "Military occupation", ViolenceID: "v-iac"},
		},
	}
}

func testEvent(cause models.Cause) *models.Event {
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:        "ev-1",
		Cause:     cause,
		StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	}
}

func baseInput() Input {
	end := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	return Input{
		EntryID:     "en-1",
		EventID:     "ev-1",
		CountryISO3: "NGA",
		CountryName: "Nigeria",
		Reported:    100,
		Unit:        models.UnitPerson,
		Category:    models.CategoryNewDisplacement,
		Role:        models.RoleRecommended,
		Cause:       models.CauseConflict,
		StartDate:   time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     &end,
	}
}

func TestValidate_Success(t *testing.T) {
	in := baseInput()
	in.ViolenceSubTypeID = strPtr("vst-military")

	fig, errs := Validate(in, nil, testEvent(models.CauseConflict), testTaxonomy())
	if errs.Any() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if fig.TotalFigures != 100 {
		t.Errorf("total figures = %d, want 100", fig.TotalFigures)
	}
	if fig.ReviewStatus != models.FigureReviewNotStarted {
		t.Errorf("new figure review status = %s", fig.ReviewStatus)
	}
	if fig.ViolenceID == nil || *fig.ViolenceID != "v-iac" {
		t.Errorf("violence parent not derived: %v", fig.ViolenceID)
	}
}

func TestValidate_DisaggregationSumErrorsBothFields(t *testing.T) {
	in := baseInput()
	in.Reported = 10
	in.Disaggregation.LocationCamp = intPtr(6)
	in.Disaggregation.LocationNonCamp = intPtr(6)

	_, errs := Validate(in, nil, testEvent(models.CauseConflict), testTaxonomy())
	if !errs.Any() {
		t.Fatal("expected validation errors")
	}
	if len(errs["disaggregation_location_camp"]) == 0 {
		t.Error("camp field missing error")
	}
	if len(errs["disaggregation_location_non_camp"]) == 0 {
		t.Error("non-camp field missing error")
	}
}

func TestValidate_AgeBucketSum(t *testing.T) {
	in := baseInput()
	in.Reported = 10
	in.Disaggregation.Age = []models.AgeBucket{
		{Category: "0-4", Value: 6},
		{Category: "5-14", Value: 6},
	}

	_, errs := Validate(in, nil, testEvent(models.CauseConflict), testTaxonomy())
	if len(errs["disaggregation_age"]) == 0 {
		t.Fatalf("expected age disaggregation error, got %v", errs)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	in := baseInput()
	in.Unit = models.UnitHousehold // no household size
	in.Cause = models.CauseDisaster
	in.IncludeIDU = true // no excerpt
	in.StartDate = time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC)

	_, errs := Validate(in, nil, testEvent(models.CauseConflict), testTaxonomy())
	for _, field := range []string{"household_size", "figure_cause", "excerpt_idu", "start_date"} {
		if len(errs[field]) == 0 {
			t.Errorf("expected error on %s, got %v", field, errs)
		}
	}
}

func TestValidate_LocationCountryMembership(t *testing.T) {
	in := baseInput()
	in.Locations = []models.FigureLocation{
		{ID: "loc-1", Name: "Maiduguri", CountryISO3: "NGA"},
		{ID: "loc-2", Name: "Diffa", CountryISO3: "NER"},
		{ID: "loc-3", Name: "N'Djamena", CountryISO3: "TCD", IsDestination: true},
	}

	_, errs := Validate(in, nil, testEvent(models.CauseConflict), testTaxonomy())
	if len(errs["geo_locations"]) != 1 {
		t.Fatalf("expected exactly one geo_locations error, got %v", errs["geo_locations"])
	}
}

func TestValidate_EditKeepsReviewStatus(t *testing.T) {
	current := &models.Figure{
		ID:           "fig-1",
		ReviewStatus: models.FigureReviewReRequested,
	}

	fig, errs := Validate(baseInput(), current, testEvent(models.CauseConflict), testTaxonomy())
	if errs.Any() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if fig.ReviewStatus != models.FigureReviewReRequested {
		t.Errorf("edit changed review status to %s", fig.ReviewStatus)
	}
	if fig.ID != "fig-1" {
		t.Errorf("edit lost figure id: %q", fig.ID)
	}
}

func TestDeriveDisasterParents(t *testing.T) {
	parents, err := DeriveDisasterParents("subtype-flash", testTaxonomy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parents.TypeID != "type-flood" || parents.SubCategoryID != "subcat-hydro" || parents.CategoryID != "cat-weather" {
		t.Errorf("wrong chain: %+v", parents)
	}

	if _, err := DeriveDisasterParents("nope", testTaxonomy()); err == nil {
		t.Error("expected error for unknown sub-type")
	}
}

func TestValidate_DerivesDisasterChain(t *testing.T) {
	in := baseInput()
	in.Cause = models.CauseDisaster
	in.DisasterSubTypeID = strPtr("subtype-flash")

	fig, errs := Validate(in, nil, testEvent(models.CauseDisaster), testTaxonomy())
	if errs.Any() {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if fig.DisasterTypeID == nil || *fig.DisasterTypeID != "type-flood" {
		t.Errorf("type not derived: %v", fig.DisasterTypeID)
	}
	if fig.DisasterCategoryID == nil || *fig.DisasterCategoryID != "cat-weather" {
		t.Errorf("category not derived: %v", fig.DisasterCategoryID)
	}
}
