package api

import (
	"net/http"

	"log/slog"

	"github.com/GIDD/gidd/internal/models"
)

// ReferenceHandler serves the lookup tables editorial forms are built from.
type ReferenceHandler struct {
	taxonomy TaxonomyStore
	logger   *slog.Logger
}

// NewReferenceHandler creates a new reference data handler.
func NewReferenceHandler(taxonomy TaxonomyStore, logger *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{taxonomy: taxonomy, logger: logger}
}

// ReferenceData is the combined lookup payload. The tables are small and
// change rarely, so one round trip serves a whole editing session.
type ReferenceData struct {
	Countries             map[string]string                     `json:"countries"`
	Organizations         map[string]models.Organization        `json:"organizations"`
	Tags                  map[string]models.Tag                 `json:"tags"`
	Entries               map[string]models.Entry               `json:"entries"`
	DisasterCategories    map[string]models.DisasterCategory    `json:"disaster_categories"`
	DisasterSubCategories map[string]models.DisasterSubCategory `json:"disaster_sub_categories"`
	DisasterTypes         map[string]models.DisasterType        `json:"disaster_types"`
	DisasterSubTypes      map[string]models.DisasterSubType     `json:"disaster_sub_types"`
	Violences             map[string]models.Violence            `json:"violences"`
	ViolenceSubTypes      map[string]models.ViolenceSubType     `json:"violence_sub_types"`
}

// Handle handles GET /api/reference-data
func (h *ReferenceHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, h.logger, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	countries, err := h.taxonomy.Countries(ctx)
	if err != nil {
		h.logger.Error("failed to load countries", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load reference data")
		return
	}
	organizations, err := h.taxonomy.Organizations(ctx)
	if err != nil {
		h.logger.Error("failed to load organizations", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load reference data")
		return
	}
	tags, err := h.taxonomy.Tags(ctx)
	if err != nil {
		h.logger.Error("failed to load tags", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load reference data")
		return
	}
	entries, err := h.taxonomy.Entries(ctx)
	if err != nil {
		h.logger.Error("failed to load entries", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load reference data")
		return
	}
	tax, err := h.taxonomy.LoadIndex(ctx)
	if err != nil {
		h.logger.Error("failed to load taxonomy", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "failed to load reference data")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, ReferenceData{
		Countries:             countries,
		Organizations:         organizations,
		Tags:                  tags,
		Entries:               entries,
		DisasterCategories:    tax.DisasterCategories,
		DisasterSubCategories: tax.DisasterSubCategories,
		DisasterTypes:         tax.DisasterTypes,
		DisasterSubTypes:      tax.DisasterSubTypes,
		Violences:             tax.Violences,
		ViolenceSubTypes:      tax.ViolenceSubTypes,
	})
}
