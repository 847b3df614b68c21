package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/GIDD/gidd/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so lookup loads can run
// standalone or inside the rebuild transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TaxonomyRepository loads the lookup tables: hazard and violence chains,
// countries, organizations, tags and entries. All loads return full tables;
// the data is small and read per operation, not per row.
type TaxonomyRepository struct {
	db *sql.DB
}

// NewTaxonomyRepository creates a PostgreSQL taxonomy repository.
func NewTaxonomyRepository(db *sql.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// LoadIndex loads every taxonomy chain into one index.
func (r *TaxonomyRepository) LoadIndex(ctx context.Context) (models.TaxonomyIndex, error) {
	return loadTaxonomyIndex(ctx, r.db)
}

// Countries loads the ISO3-to-name lookup.
func (r *TaxonomyRepository) Countries(ctx context.Context) (map[string]string, error) {
	return loadCountries(ctx, r.db)
}

// Organizations loads all organizations keyed by id.
func (r *TaxonomyRepository) Organizations(ctx context.Context) (map[string]models.Organization, error) {
	return loadOrganizations(ctx, r.db)
}

// Tags loads all tags keyed by id.
func (r *TaxonomyRepository) Tags(ctx context.Context) (map[string]models.Tag, error) {
	return loadTags(ctx, r.db)
}

// Entries loads all entries keyed by id.
func (r *TaxonomyRepository) Entries(ctx context.Context) (map[string]models.Entry, error) {
	return loadEntries(ctx, r.db)
}

func loadTaxonomyIndex(ctx context.Context, q queryer) (models.TaxonomyIndex, error) {
	index := models.TaxonomyIndex{
		DisasterCategories:    map[string]models.DisasterCategory{},
		DisasterSubCategories: map[string]models.DisasterSubCategory{},
		DisasterTypes:         map[string]models.DisasterType{},
		DisasterSubTypes:      map[string]models.DisasterSubType{},
		Violences:             map[string]models.Violence{},
		ViolenceSubTypes:      map[string]models.ViolenceSubType{},
	}

	rows, err := q.QueryContext(ctx, "SELECT id, name FROM disaster_categories")
	if err != nil {
		return index, fmt.Errorf("failed to query disaster categories: %w", err)
	}
	for rows.Next() {
		var c models.DisasterCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan disaster category: %w", err)
		}
		index.DisasterCategories[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, name, category_id FROM disaster_sub_categories")
	if err != nil {
		return index, fmt.Errorf("failed to query disaster sub-categories: %w", err)
	}
	for rows.Next() {
		var c models.DisasterSubCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CategoryID); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan disaster sub-category: %w", err)
		}
		index.DisasterSubCategories[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, name, sub_category_id FROM disaster_types")
	if err != nil {
		return index, fmt.Errorf("failed to query disaster types: %w", err)
	}
	for rows.Next() {
		var t models.DisasterType
		if err := rows.Scan(&t.ID, &t.Name, &t.SubCategoryID); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan disaster type: %w", err)
		}
		index.DisasterTypes[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, name, type_id FROM disaster_sub_types")
	if err != nil {
		return index, fmt.Errorf("failed to query disaster sub-types: %w", err)
	}
	for rows.Next() {
		var t models.DisasterSubType
		if err := rows.Scan(&t.ID, &t.Name, &t.TypeID); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan disaster sub-type: %w", err)
		}
		index.DisasterSubTypes[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, name FROM violences")
	if err != nil {
		return index, fmt.Errorf("failed to query violences: %w", err)
	}
	for rows.Next() {
		var v models.Violence
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan violence: %w", err)
		}
		index.Violences[v.ID] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	rows, err = q.QueryContext(ctx, "SELECT id, name, violence_id FROM violence_sub_types")
	if err != nil {
		return index, fmt.Errorf("failed to query violence sub-types: %w", err)
	}
	for rows.Next() {
		var v models.ViolenceSubType
		if err := rows.Scan(&v.ID, &v.Name, &v.ViolenceID); err != nil {
			rows.Close()
			return index, fmt.Errorf("failed to scan violence sub-type: %w", err)
		}
		index.ViolenceSubTypes[v.ID] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return index, fmt.Errorf("row iteration error: %w", err)
	}

	return index, nil
}

func loadCountries(ctx context.Context, q queryer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT iso3, name FROM countries")
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	countries := map[string]string{}
	for rows.Next() {
		var iso3, name string
		if err := rows.Scan(&iso3, &name); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries[iso3] = name
	}
	return countries, rows.Err()
}

func loadOrganizations(ctx context.Context, q queryer) (map[string]models.Organization, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name, category FROM organizations")
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	organizations := map[string]models.Organization{}
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Category); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations[org.ID] = org
	}
	return organizations, rows.Err()
}

func loadTags(ctx context.Context, q queryer) (map[string]models.Tag, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name FROM tags")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := map[string]models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags[tag.ID] = tag
	}
	return tags, rows.Err()
}

func loadEntries(ctx context.Context, q queryer) (map[string]models.Entry, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, title, url, is_confidential, publisher_ids, source_ids FROM entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := map[string]models.Entry{}
	for rows.Next() {
		var entry models.Entry
		var url sql.NullString
		var publisherIDs, sourceIDs pq.StringArray
		if err := rows.Scan(&entry.ID, &entry.Title, &url, &entry.IsConfidential, &publisherIDs, &sourceIDs); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.URL = url.String
		entry.PublisherIDs = publisherIDs
		entry.SourceIDs = sourceIDs
		entries[entry.ID] = entry
	}
	return entries, rows.Err()
}
