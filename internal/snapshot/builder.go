package snapshot

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/GIDD/gidd/internal/models"
)

// Builder materializes the denormalized public snapshot tables. Everything a
// public consumer needs is resolved to plain strings at build time, so reads
// never join against live tables. Output ordering is deterministic.
type Builder struct{}

// NewBuilder creates a snapshot builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Input bundles the live-table state a snapshot build reads from. All lookup
// maps are keyed by id; Countries maps ISO3 codes to display names.
type Input struct {
	Figures       []models.Figure
	Events        map[string]models.Event
	Entries       map[string]models.Entry
	Organizations map[string]models.Organization
	Tags          map[string]models.Tag
	Countries     map[string]string
	Taxonomy      models.TaxonomyIndex
	Now           time.Time
}

// GiddEvents builds one snapshot row per event that carries at least one
// recommended figure, with hazard and violence labels resolved and the
// code/type/ISO3 arrays kept index-aligned.
func (b *Builder) GiddEvents(in Input) []models.GiddEvent {
	referenced := map[string]bool{}
	for _, f := range in.Figures {
		if f.Role == models.RoleRecommended {
			referenced[f.EventID] = true
		}
	}

	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		if _, ok := in.Events[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	rows := make([]models.GiddEvent, 0, len(ids))
	for _, id := range ids {
		event := in.Events[id]

		iso3s := append([]string(nil), event.CountryISO3s...)
		sort.Strings(iso3s)
		names := make([]string, len(iso3s))
		for i, iso3 := range iso3s {
			names[i] = in.Countries[iso3]
		}

		codes, codeTypes, codeISO3s := eventCodeArrays(event.EventCodes, "")

		rows = append(rows, models.GiddEvent{
			ID:                    uuid.NewString(),
			EventID:               event.ID,
			Name:                  event.Name,
			Cause:                 event.Cause,
			StartDate:             event.StartDate,
			EndDate:               event.EndDate,
			CountryISO3s:          iso3s,
			CountryNames:          names,
			HazardCategoryName:    in.Taxonomy.DisasterCategoryName(event.DisasterCategoryID),
			HazardSubCategoryName: in.Taxonomy.DisasterSubCategoryName(event.DisasterSubCategoryID),
			HazardTypeName:        in.Taxonomy.DisasterTypeName(event.DisasterTypeID),
			HazardSubTypeName:     in.Taxonomy.DisasterSubTypeName(event.DisasterSubTypeID),
			ViolenceName:          in.Taxonomy.ViolenceName(event.ViolenceID),
			ViolenceSubTypeName:   in.Taxonomy.ViolenceSubTypeName(event.ViolenceSubTypeID),
			EventCodes:            codes,
			EventCodeTypes:        codeTypes,
			EventCodeISO3s:        codeISO3s,
		})
	}
	return rows
}

// GiddFigures builds the per-(figure, year) snapshot rows: flow figures land
// in their end-date year, stock figures in every year of their start-to-end
// span (open-ended spans capped at the current year). Figures on confidential
// entries keep empty publisher and source arrays.
func (b *Builder) GiddFigures(in Input) []models.GiddFigure {
	var rows []models.GiddFigure
	for _, f := range in.Figures {
		if f.Role != models.RoleRecommended {
			continue
		}
		event, ok := in.Events[f.EventID]
		if !ok {
			continue
		}
		for _, year := range figureYears(f, in.Now) {
			rows = append(rows, b.buildFigureRow(in, f, event, year))
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.CountryISO3 != b.CountryISO3 {
			return a.CountryISO3 < b.CountryISO3
		}
		return a.FigureID < b.FigureID
	})
	return rows
}

func (b *Builder) buildFigureRow(in Input, f models.Figure, event models.Event, year int) models.GiddFigure {
	row := models.GiddFigure{
		ID:                  uuid.NewString(),
		FigureID:            f.ID,
		EventID:             f.EventID,
		EntryID:             f.EntryID,
		Year:                year,
		CountryISO3:         f.CountryISO3,
		CountryName:         in.Countries[f.CountryISO3],
		Category:            f.Category,
		Cause:               f.Cause,
		Unit:                f.Unit,
		Reported:            f.Reported,
		HouseholdSize:       f.HouseholdSize,
		TotalFigures:        f.TotalFigures,
		StartDate:           f.StartDate,
		EndDate:             f.EndDate,
		HazardCategoryName:  in.Taxonomy.DisasterCategoryName(f.DisasterCategoryID),
		HazardTypeName:      in.Taxonomy.DisasterTypeName(f.DisasterTypeID),
		HazardSubTypeName:   in.Taxonomy.DisasterSubTypeName(f.DisasterSubTypeID),
		ViolenceName:        in.Taxonomy.ViolenceName(f.ViolenceID),
		ViolenceSubTypeName: in.Taxonomy.ViolenceSubTypeName(f.ViolenceSubTypeID),
		PublisherIDs:        []string{},
		PublisherNames:      []string{},
		PublisherTypes:      []string{},
		SourceIDs:           []string{},
		SourceNames:         []string{},
		SourceTypes:         []string{},
		TagIDs:              []string{},
		TagNames:            []string{},
		LocationIDs:         []string{},
		LocationNames:       []string{},
		LocationAccuracies:  []string{},
		LocationCoordinates: []string{},
	}

	if entry, ok := in.Entries[f.EntryID]; ok && !entry.IsConfidential {
		row.PublisherIDs, row.PublisherNames, row.PublisherTypes = organizationArrays(entry.PublisherIDs, in.Organizations)
		row.SourceIDs, row.SourceNames, row.SourceTypes = organizationArrays(entry.SourceIDs, in.Organizations)
	}

	row.TagIDs, row.TagNames = tagArrays(f.TagIDs, in.Tags)
	row.LocationIDs, row.LocationNames, row.LocationAccuracies, row.LocationCoordinates = locationArrays(f.Locations)
	row.EventCodes, row.EventCodeTypes, _ = eventCodeArrays(event.EventCodes, f.CountryISO3)
	return row
}

// figureYears lists the calendar years one figure contributes snapshot rows
// to. The rule mirrors the aggregation year set so a figure never shows up in
// a year it did not feed.
func figureYears(f models.Figure, now time.Time) []int {
	if f.Category.IsStock() {
		last := now.Year()
		if f.EndDate != nil {
			last = f.EndDate.Year()
		}
		var years []int
		for y := f.StartDate.Year(); y <= last; y++ {
			years = append(years, y)
		}
		return years
	}
	if f.EndDate == nil {
		return nil
	}
	return []int{f.EndDate.Year()}
}

// eventCodeArrays resolves event codes into parallel code/type/ISO3 arrays,
// deduplicated and sorted. A non-empty iso3 restricts the output to codes
// scoped to that country or unscoped.
func eventCodeArrays(codes []models.EventCode, iso3 string) ([]string, []string, []string) {
	seen := map[models.EventCode]bool{}
	kept := make([]models.EventCode, 0, len(codes))
	for _, c := range codes {
		if iso3 != "" && c.CountryISO3 != "" && c.CountryISO3 != iso3 {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Code != kept[j].Code {
			return kept[i].Code < kept[j].Code
		}
		return kept[i].Type < kept[j].Type
	})

	outCodes := make([]string, len(kept))
	outTypes := make([]string, len(kept))
	outISO3s := make([]string, len(kept))
	for i, c := range kept {
		outCodes[i] = c.Code
		outTypes[i] = c.Type
		outISO3s[i] = c.CountryISO3
	}
	return outCodes, outTypes, outISO3s
}

func organizationArrays(ids []string, orgs map[string]models.Organization) ([]string, []string, []string) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	outIDs := make([]string, 0, len(sorted))
	names := make([]string, 0, len(sorted))
	types := make([]string, 0, len(sorted))
	for _, id := range sorted {
		org, ok := orgs[id]
		if !ok {
			continue
		}
		outIDs = append(outIDs, org.ID)
		names = append(names, org.Name)
		types = append(types, org.Category)
	}
	return outIDs, names, types
}

func tagArrays(ids []string, tags map[string]models.Tag) ([]string, []string) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	outIDs := make([]string, 0, len(sorted))
	names := make([]string, 0, len(sorted))
	for _, id := range sorted {
		tag, ok := tags[id]
		if !ok {
			continue
		}
		outIDs = append(outIDs, tag.ID)
		names = append(names, tag.Name)
	}
	return outIDs, names
}

func locationArrays(locations []models.FigureLocation) ([]string, []string, []string, []string) {
	sorted := append([]models.FigureLocation(nil), locations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ids := make([]string, len(sorted))
	names := make([]string, len(sorted))
	accuracies := make([]string, len(sorted))
	coordinates := make([]string, len(sorted))
	for i, loc := range sorted {
		ids[i] = loc.ID
		names[i] = loc.Name
		accuracies[i] = loc.Accuracy
		coordinates[i] = strconv.FormatFloat(loc.Latitude, 'f', 6, 64) + ", " + strconv.FormatFloat(loc.Longitude, 'f', 6, 64)
	}
	return ids, names, accuracies, coordinates
}
