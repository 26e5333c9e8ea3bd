package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cragcast/cragcast/internal/api/models"
	"github.com/cragcast/cragcast/internal/api/response"
	"github.com/cragcast/cragcast/internal/catalog"
)

// CatalogHandler serves the location and spot catalog.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c *catalog.Catalog, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// ListLocations handles GET /v1/locations.
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.List()
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, models.LocationList{Items: items, Total: len(items)})
}

// GetLocation handles GET /v1/locations/{locationId}.
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.catalog.Get(chi.URLParam(r, "locationId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, loc)
}

// ListSpots handles GET /v1/locations/{locationId}/spots?q=&gradeType=.
func (h *CatalogHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	locationID := chi.URLParam(r, "locationId")

	gradeType := catalog.GradeFont
	if raw := r.URL.Query().Get("gradeType"); raw != "" {
		gradeType = catalog.GradeType(raw)
		if !gradeType.Valid() {
			response.BadRequest(w, r, "invalid gradeType", []models.FieldError{
				{Field: "gradeType", Message: "must be one of: font, v", Code: "oneof"},
			})
			return
		}
	}

	spots, err := h.catalog.SearchSpots(locationID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	items := make([]models.SpotView, len(spots))
	for i, s := range spots {
		items[i] = models.SpotView{Spot: s, DisplayGrade: catalog.DisplayGrade(s, gradeType)}
	}
	response.JSON(w, r, http.StatusOK, models.SpotList{
		LocationID: locationID,
		GradeType:  string(gradeType),
		Items:      items,
		Total:      len(items),
	})
}

// ConvertGrade handles GET /v1/grades/convert?font=7C or ?v=V9.
func (h *CatalogHandler) ConvertGrade(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	font, v := q.Get("font"), q.Get("v")

	switch {
	case font != "" && v != "":
		response.BadRequest(w, r, "provide either font or v, not both", nil)
	case font != "":
		response.JSON(w, r, http.StatusOK, models.GradeConversion{Font: font, V: catalog.FontToV(font)})
	case v != "":
		response.JSON(w, r, http.StatusOK, models.GradeConversion{Font: catalog.VToFont(v), V: v})
	default:
		response.BadRequest(w, r, "font or v is required", []models.FieldError{
			{Field: "font", Message: "required if v not provided"},
			{Field: "v", Message: "required if font not provided"},
		})
	}
}
