package figure

import (
	"fmt"

	"github.com/GIDD/gidd/internal/models"
)

// DisasterParents are the fields derived from a hazard sub-type by walking
// the taxonomy chain sub-type → type → sub-category → category.
type DisasterParents struct {
	TypeID        string
	SubCategoryID string
	CategoryID    string
}

// DeriveDisasterParents walks the hazard chain for the given sub-type. It is
// the only way parent fields are ever populated.
func DeriveDisasterParents(subTypeID string, tax models.TaxonomyIndex) (DisasterParents, error) {
	subType, ok := tax.DisasterSubTypes[subTypeID]
	if !ok {
		return DisasterParents{}, fmt.Errorf("unknown disaster sub-type %q", subTypeID)
	}

	typ, ok := tax.DisasterTypes[subType.TypeID]
	if !ok {
		return DisasterParents{}, fmt.Errorf("disaster sub-type %q references unknown type %q", subTypeID, subType.TypeID)
	}

	subCategory, ok := tax.DisasterSubCategories[typ.SubCategoryID]
	if !ok {
		return DisasterParents{}, fmt.Errorf("disaster type %q references unknown sub-category %q", typ.ID, typ.SubCategoryID)
	}

	if _, ok := tax.DisasterCategories[subCategory.CategoryID]; !ok {
		return DisasterParents{}, fmt.Errorf("disaster sub-category %q references unknown category %q", subCategory.ID, subCategory.CategoryID)
	}

	return DisasterParents{
		TypeID:        typ.ID,
		SubCategoryID: subCategory.ID,
		CategoryID:    subCategory.CategoryID,
	}, nil
}

// DeriveViolenceParent walks the violence chain for the given sub-type.
func DeriveViolenceParent(subTypeID string, tax models.TaxonomyIndex) (string, error) {
	subType, ok := tax.ViolenceSubTypes[subTypeID]
	if !ok {
		return "", fmt.Errorf("unknown violence sub-type %q", subTypeID)
	}
	if _, ok := tax.Violences[subType.ViolenceID]; !ok {
		return "", fmt.Errorf("violence sub-type %q references unknown violence %q", subTypeID, subType.ViolenceID)
	}
	return subType.ViolenceID, nil
}
