package models

// Hazard taxonomy chain: sub-type → type → sub-category → category.
// Figures and events reference the sub-type; parents are always derived by
// walking the chain, never set independently.

type DisasterCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DisasterSubCategory struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type DisasterType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SubCategoryID string `json:"sub_category_id"`
}

type DisasterSubType struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TypeID string `json:"type_id"`
}

// Violence taxonomy chain: sub-type → violence.

type Violence struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ViolenceSubType struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ViolenceID string `json:"violence_id"`
}

// Organization is a publisher or source of entries.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Tag is a free-form label attached to figures.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is the source document a figure was extracted from. Confidential
// entries must not expose their publishers or sources in public snapshots.
type Entry struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	URL            string   `json:"url,omitempty"`
	IsConfidential bool     `json:"is_confidential"`
	PublisherIDs   []string `json:"publisher_ids,omitempty"`
	SourceIDs      []string `json:"source_ids,omitempty"`
}

// ReviewComment is a reviewer remark on a figure. Open comments decide where
// an unapproved figure lands in the review workflow.
type ReviewComment struct {
	ID        string `json:"id"`
	FigureID  string `json:"figure_id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	IsCleared bool   `json:"is_cleared"`
}

// TaxonomyIndex holds every taxonomy lookup table keyed by id, loaded once
// per operation so chain walks and label resolution are pure map lookups.
type TaxonomyIndex struct {
	DisasterCategories    map[string]DisasterCategory
	DisasterSubCategories map[string]DisasterSubCategory
	DisasterTypes         map[string]DisasterType
	DisasterSubTypes      map[string]DisasterSubType
	Violences             map[string]Violence
	ViolenceSubTypes      map[string]ViolenceSubType
}

// DisasterSubTypeName resolves a hazard sub-type id to its display name.
func (t TaxonomyIndex) DisasterSubTypeName(id *string) string {
	if id == nil {
		return ""
	}
	return t.DisasterSubTypes[*id].Name
}

// DisasterTypeName resolves a hazard type id to its display name.
func (t TaxonomyIndex) DisasterTypeName(id *string) string {
	if id == nil {
		return ""
	}
	return t.DisasterTypes[*id].Name
}

// DisasterSubCategoryName resolves a hazard sub-category id to its name.
func (t TaxonomyIndex) DisasterSubCategoryName(id *string) string {
	if id == nil {
		return ""
	}
	return t.DisasterSubCategories[*id].Name
}

// DisasterCategoryName resolves a hazard category id to its display name.
func (t TaxonomyIndex) DisasterCategoryName(id *string) string {
	if id == nil {
		return ""
	}
	return t.DisasterCategories[*id].Name
}

// ViolenceName resolves a violence id to its display name.
func (t TaxonomyIndex) ViolenceName(id *string) string {
	if id == nil {
		return ""
	}
	return t.Violences[*id].Name
}

// ViolenceSubTypeName resolves a violence sub-type id to its display name.
func (t TaxonomyIndex) ViolenceSubTypeName(id *string) string {
	if id == nil {
		return ""
	}
	return t.ViolenceSubTypes[*id].Name
}
