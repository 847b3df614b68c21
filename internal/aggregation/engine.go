package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/GIDD/gidd/internal/models"
)

// Engine turns eligible figures into year-bucketed country and event
// statistics. All transforms are pure and produce deterministically ordered
// rows so repeated rebuilds over unchanged input are byte-identical apart
// from generated ids.
type Engine struct{}

// NewEngine creates an aggregation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Eligible reports whether a figure feeds the aggregation for the given
// year: recommended role and an end date within that calendar year.
func Eligible(f models.Figure, year int) bool {
	if f.Role != models.RoleRecommended {
		return false
	}
	if f.EndDate == nil {
		return false
	}
	return f.EndDate.Year() == year
}

// totals accumulates stock and flow sums while tracking presence, so an
// absent value and an accumulated zero stay distinguishable.
type totals struct {
	stock    int
	flow     int
	hasStock bool
	hasFlow  bool
}

func (t *totals) add(f models.Figure) {
	switch {
	case f.Category.IsStock():
		t.stock += f.TotalFigures
		t.hasStock = true
	case f.Category.IsFlow():
		t.flow += f.TotalFigures
		t.hasFlow = true
	}
}

func (t totals) stockPtr() *int {
	if !t.hasStock {
		return nil
	}
	v := t.stock
	return &v
}

func (t totals) flowPtr() *int {
	if !t.hasFlow {
		return nil
	}
	v := t.flow
	return &v
}

// Conflicts aggregates conflict-caused figures into one row per country for
// the given year.
func (e *Engine) Conflicts(figures []models.Figure, events map[string]models.Event, countries map[string]string, year int) []models.ConflictRow {
	acc := map[string]*totals{}
	for _, f := range figures {
		if !Eligible(f, year) {
			continue
		}
		event, ok := events[f.EventID]
		if !ok || event.Cause != models.CauseConflict {
			continue
		}
		t, ok := acc[f.CountryISO3]
		if !ok {
			t = &totals{}
			acc[f.CountryISO3] = t
		}
		t.add(f)
	}

	iso3s := make([]string, 0, len(acc))
	for iso3 := range acc {
		iso3s = append(iso3s, iso3)
	}
	sort.Strings(iso3s)

	rows := make([]models.ConflictRow, 0, len(iso3s))
	for _, iso3 := range iso3s {
		t := acc[iso3]
		if !t.hasStock && !t.hasFlow {
			continue
		}
		rows = append(rows, models.ConflictRow{
			ID:                       uuid.NewString(),
			CountryISO3:              iso3,
			CountryName:              countries[iso3],
			Year:                     year,
			TotalDisplacement:        t.stockPtr(),
			NewDisplacement:          t.flowPtr(),
			TotalDisplacementRounded: RoundDisplay(t.stockPtr()),
			NewDisplacementRounded:   RoundDisplay(t.flowPtr()),
		})
	}
	return rows
}

// Disasters aggregates disaster-caused figures at event granularity: one row
// per event/country/year, carrying denormalized hazard labels and the
// event's deduplicated codes for that country.
func (e *Engine) Disasters(figures []models.Figure, events map[string]models.Event, countries map[string]string, tax models.TaxonomyIndex, year int) []models.DisasterRow {
	type key struct {
		eventID string
		iso3    string
	}

	acc := map[key]*totals{}
	for _, f := range figures {
		if !Eligible(f, year) {
			continue
		}
		event, ok := events[f.EventID]
		if !ok || event.Cause != models.CauseDisaster {
			continue
		}
		k := key{eventID: f.EventID, iso3: f.CountryISO3}
		t, ok := acc[k]
		if !ok {
			t = &totals{}
			acc[k] = t
		}
		t.add(f)
	}

	keys := make([]key, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].iso3 != keys[j].iso3 {
			return keys[i].iso3 < keys[j].iso3
		}
		return keys[i].eventID < keys[j].eventID
	})

	rows := make([]models.DisasterRow, 0, len(keys))
	for _, k := range keys {
		t := acc[k]
		event := events[k.eventID]
		codes, codeTypes := dedupeEventCodes(event.EventCodes, k.iso3)
		rows = append(rows, models.DisasterRow{
			ID:                       uuid.NewString(),
			EventID:                  event.ID,
			EventName:                event.Name,
			CountryISO3:              k.iso3,
			CountryName:              countries[k.iso3],
			Year:                     year,
			HazardCategoryName:       tax.DisasterCategoryName(event.DisasterCategoryID),
			HazardSubCategoryName:    tax.DisasterSubCategoryName(event.DisasterSubCategoryID),
			HazardTypeName:           tax.DisasterTypeName(event.DisasterTypeID),
			HazardSubTypeName:        tax.DisasterSubTypeName(event.DisasterSubTypeID),
			EventCodes:               codes,
			EventCodeTypes:           codeTypes,
			TotalDisplacement:        t.stockPtr(),
			NewDisplacement:          t.flowPtr(),
			TotalDisplacementRounded: RoundDisplay(t.stockPtr()),
			NewDisplacementRounded:   RoundDisplay(t.flowPtr()),
		})
	}
	return rows
}

// dedupeEventCodes keeps codes scoped to the given country (or unscoped),
// deduplicated on code+type and sorted, the code and type arrays staying
// index-aligned.
func dedupeEventCodes(codes []models.EventCode, iso3 string) ([]string, []string) {
	type pair struct{ code, typ string }
	seen := map[pair]bool{}
	pairs := make([]pair, 0, len(codes))
	for _, c := range codes {
		if c.CountryISO3 != "" && c.CountryISO3 != iso3 {
			continue
		}
		p := pair{code: c.Code, typ: c.Type}
		if seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].code != pairs[j].code {
			return pairs[i].code < pairs[j].code
		}
		return pairs[i].typ < pairs[j].typ
	})

	outCodes := make([]string, len(pairs))
	outTypes := make([]string, len(pairs))
	for i, p := range pairs {
		outCodes[i] = p.code
		outTypes[i] = p.typ
	}
	return outCodes, outTypes
}

// DisplacementData joins conflict and disaster rows into one row per
// country/year with four independently nullable totals. A country/year
// absent from both inputs produces no row; a present-but-zero total stays a
// zero value.
func (e *Engine) DisplacementData(conflicts []models.ConflictRow, disasters []models.DisasterRow, countries map[string]string) []models.DisplacementDataRow {
	type key struct {
		iso3 string
		year int
	}
	type joined struct {
		conflict *totals
		disaster *totals
	}

	acc := map[key]*joined{}
	get := func(k key) *joined {
		j, ok := acc[k]
		if !ok {
			j = &joined{}
			acc[k] = j
		}
		return j
	}

	for _, row := range conflicts {
		j := get(key{iso3: row.CountryISO3, year: row.Year})
		j.conflict = mergeTotals(j.conflict, row.TotalDisplacement, row.NewDisplacement)
	}
	for _, row := range disasters {
		j := get(key{iso3: row.CountryISO3, year: row.Year})
		j.disaster = mergeTotals(j.disaster, row.TotalDisplacement, row.NewDisplacement)
	}

	keys := make([]key, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].iso3 < keys[j].iso3
	})

	rows := make([]models.DisplacementDataRow, 0, len(keys))
	for _, k := range keys {
		j := acc[k]
		row := models.DisplacementDataRow{
			ID:          uuid.NewString(),
			CountryISO3: k.iso3,
			CountryName: countries[k.iso3],
			Year:        k.year,
		}
		if j.conflict != nil {
			row.ConflictTotalDisplacement = j.conflict.stockPtr()
			row.ConflictNewDisplacement = j.conflict.flowPtr()
			row.ConflictTotalDisplacementRounded = RoundDisplay(row.ConflictTotalDisplacement)
			row.ConflictNewDisplacementRounded = RoundDisplay(row.ConflictNewDisplacement)
		}
		if j.disaster != nil {
			row.DisasterTotalDisplacement = j.disaster.stockPtr()
			row.DisasterNewDisplacement = j.disaster.flowPtr()
			row.DisasterTotalDisplacementRounded = RoundDisplay(row.DisasterTotalDisplacement)
			row.DisasterNewDisplacementRounded = RoundDisplay(row.DisasterNewDisplacement)
		}
		rows = append(rows, row)
	}
	return rows
}

func mergeTotals(t *totals, stock, flow *int) *totals {
	if t == nil {
		t = &totals{}
	}
	if stock != nil {
		t.stock += *stock
		t.hasStock = true
	}
	if flow != nil {
		t.flow += *flow
		t.hasFlow = true
	}
	return t
}

// PublicFigureAnalyses materializes the public per-country/year/cause rows
// from already-aggregated conflict and disaster statistics.
func (e *Engine) PublicFigureAnalyses(conflicts []models.ConflictRow, disasters []models.DisasterRow, countries map[string]string) []models.PublicFigureAnalysisRow {
	type key struct {
		iso3     string
		year     int
		cause    models.Cause
		category models.FigureCategory
	}

	acc := map[key]int{}
	add := func(iso3 string, year int, cause models.Cause, category models.FigureCategory, v *int) {
		if v == nil {
			return
		}
		acc[key{iso3: iso3, year: year, cause: cause, category: category}] += *v
	}

	for _, row := range conflicts {
		add(row.CountryISO3, row.Year, models.CauseConflict, models.CategoryIDPs, row.TotalDisplacement)
		add(row.CountryISO3, row.Year, models.CauseConflict, models.CategoryNewDisplacement, row.NewDisplacement)
	}
	for _, row := range disasters {
		add(row.CountryISO3, row.Year, models.CauseDisaster, models.CategoryIDPs, row.TotalDisplacement)
		add(row.CountryISO3, row.Year, models.CauseDisaster, models.CategoryNewDisplacement, row.NewDisplacement)
	}

	keys := make([]key, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.iso3 != b.iso3 {
			return a.iso3 < b.iso3
		}
		if a.cause != b.cause {
			return a.cause < b.cause
		}
		return a.category < b.category
	})

	rows := make([]models.PublicFigureAnalysisRow, 0, len(keys))
	for _, k := range keys {
		v := acc[k]
		rows = append(rows, models.PublicFigureAnalysisRow{
			ID:             uuid.NewString(),
			CountryISO3:    k.iso3,
			Year:           k.year,
			Cause:          k.cause,
			Category:       k.category,
			Figures:        &v,
			FiguresRounded: RoundDisplay(&v),
			Description: fmt.Sprintf("%s (%s) in %s for %d",
				k.category.Label(), k.cause.Label(), countries[k.iso3], k.year),
		})
	}
	return rows
}

// Years returns the sorted set of calendar years the given figures cover:
// the end-date year for flow figures and the full start-to-end span for
// stock figures (capped at the current year for open-ended ones).
func Years(figures []models.Figure, now time.Time) []int {
	set := map[int]bool{}
	for _, f := range figures {
		if f.Role != models.RoleRecommended {
			continue
		}
		if f.Category.IsStock() {
			last := now.Year()
			if f.EndDate != nil {
				last = f.EndDate.Year()
			}
			for y := f.StartDate.Year(); y <= last; y++ {
				set[y] = true
			}
			continue
		}
		if f.EndDate != nil {
			set[f.EndDate.Year()] = true
		}
	}

	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
