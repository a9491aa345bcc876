// Package handlers provides HTTP handlers for the benefit API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benefitlab/benefit-engine/internal/observability"
	"github.com/benefitlab/benefit-engine/internal/profile"
	"github.com/benefitlab/benefit-engine/pkg/engine"
)

// ChatHandler handles recommendation chat requests.
type ChatHandler struct {
	logger *observability.Logger
	engine *engine.Engine
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, eng *engine.Engine) *ChatHandler {
	return &ChatHandler{logger: logger, engine: eng}
}

// ChatRequestDTO is the API request for a chat turn.
type ChatRequestDTO struct {
	UserID     string           `json:"userId"`
	Query      string           `json:"query"`
	History    []TransactionDTO `json:"history,omitempty"`
	ShowScores bool             `json:"showScores,omitempty"`
}

// TransactionDTO is one entry of the user's spending history.
type TransactionDTO struct {
	Brand    string  `json:"brand"`
	Category string  `json:"category,omitempty"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"` // RFC 3339 or 2006-01-02
}

// ChatResponseDTO is the API response for a chat turn.
type ChatResponseDTO struct {
	Message   string     `json:"message"`
	Strategy  string     `json:"strategy"`
	Offers    []OfferDTO `json:"offers,omitempty"`
	Cached    bool       `json:"cached,omitempty"`
	LatencyMs int64      `json:"latencyMs"`
}

// OfferDTO is one ranked offer in a chat response.
type OfferDTO struct {
	ID           string  `json:"id"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Title        string  `json:"title"`
	BenefitType  string  `json:"benefitType"`
	DiscountRate float64 `json:"discountRate,omitempty"`
	Conditions   string  `json:"conditions,omitempty"`
	ValidFrom    string  `json:"validFrom,omitempty"`
	ValidTo      string  `json:"validTo,omitempty"`
	Score        float64 `json:"score"`
}

// Chat handles POST /v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var dto ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if dto.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}

	history, err := parseHistory(dto.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid history", err.Error())
		return
	}

	resp, err := h.engine.Recommend(ctx, engine.Request{
		UserID:     dto.UserID,
		Query:      dto.Query,
		History:    history,
		ShowScores: dto.ShowScores,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("recommendation failed")
		writeError(w, http.StatusInternalServerError, "recommendation failed", err.Error())
		return
	}

	out := ChatResponseDTO{
		Message:   resp.Message,
		Strategy:  resp.Strategy,
		Cached:    resp.Cached,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for _, rec := range resp.Offers {
		o := rec.Offer
		dtoOffer := OfferDTO{
			ID:           o.ID.String(),
			Brand:        o.Brand,
			Category:     o.Category,
			Title:        o.Title,
			BenefitType:  string(o.BenefitType),
			DiscountRate: o.DiscountRate,
			Conditions:   o.Conditions,
			Score:        rec.Score,
		}
		if o.ValidFrom != nil {
			dtoOffer.ValidFrom = o.ValidFrom.Format(time.RFC3339)
		}
		if o.ValidTo != nil {
			dtoOffer.ValidTo = o.ValidTo.Format(time.RFC3339)
		}
		out.Offers = append(out.Offers, dtoOffer)
	}

	writeJSON(w, http.StatusOK, out)
}

// History handles GET /v1/sessions/{userId}.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	turns, err := h.engine.History(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session lookup failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userId": userID, "turns": turns})
}

// ClearSession handles DELETE /v1/sessions/{userId}.
func (h *ChatHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	if err := h.engine.ClearSession(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "session clear failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseHistory(dtos []TransactionDTO) ([]profile.Transaction, error) {
	if len(dtos) == 0 {
		return nil, nil
	}

	txs := make([]profile.Transaction, 0, len(dtos))
	for _, d := range dtos {
		date, err := parseDate(d.Date)
		if err != nil {
			return nil, err
		}
		txs = append(txs, profile.Transaction{
			Brand:    d.Brand,
			Category: d.Category,
			Amount:   d.Amount,
			Date:     date,
		})
	}
	return txs, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
