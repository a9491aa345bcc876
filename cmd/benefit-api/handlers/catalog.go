package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/internal/offer"
	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// CatalogHandler serves catalog listings and offer ingestion.
type CatalogHandler struct {
	logger *observability.Logger
	engine *engine.Engine
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(logger *observability.Logger, eng *engine.Engine) *CatalogHandler {
	return &CatalogHandler{logger: logger, engine: eng}
}

// IngestOfferDTO is one offer in an ingestion request.
type IngestOfferDTO struct {
	ID           string  `json:"id,omitempty"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	BenefitType  string  `json:"benefitType"`
	DiscountRate float64 `json:"discountRate,omitempty"`
	Conditions   string  `json:"conditions,omitempty"`
	ValidFrom    string  `json:"validFrom,omitempty"`
	ValidTo      string  `json:"validTo,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// IngestRequestDTO is the API request for offer ingestion.
type IngestRequestDTO struct {
	Offers []IngestOfferDTO `json:"offers"`
}

// Brands handles GET /v1/brands.
func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"brands": h.engine.Brands()})
}

// Categories handles GET /v1/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": h.engine.Categories()})
}

// Ingest handles POST /v1/offers.
func (h *CatalogHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var dto IngestRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(dto.Offers) == 0 {
		writeError(w, http.StatusBadRequest, "offers are required", "")
		return
	}

	offers := make([]*offer.Offer, 0, len(dto.Offers))
	for _, d := range dto.Offers {
		o, err := toOffer(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid offer", err.Error())
			return
		}
		offers = append(offers, o)
	}

	n, err := h.engine.Ingest(r.Context(), offers)
	if err != nil {
		h.logger.Error().Err(err).Int("inserted", n).Msg("ingestion failed")
		writeError(w, http.StatusInternalServerError, "ingestion failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"inserted": n})
}

func toOffer(d IngestOfferDTO) (*offer.Offer, error) {
	id := uuid.New()
	if d.ID != "" {
		parsed, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, err
		}
		id = parsed
	}

	o := &offer.Offer{
		ID:           id,
		Brand:        d.Brand,
		Category:     d.Category,
		Title:        d.Title,
		Description:  d.Description,
		BenefitType:  offer.ParseBenefitType(d.BenefitType),
		DiscountRate: d.DiscountRate,
		Conditions:   d.Conditions,
		Active:       true,
	}
	if d.Active != nil {
		o.Active = *d.Active
	}

	if d.ValidFrom != "" {
		t, err := parseDate(d.ValidFrom)
		if err != nil {
			return nil, err
		}
		o.ValidFrom = &t
	}
	if d.ValidTo != "" {
		t, err := parseDate(d.ValidTo)
		if err != nil {
			return nil, err
		}
		o.ValidTo = &t
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	return o, nil
}

func pathParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
