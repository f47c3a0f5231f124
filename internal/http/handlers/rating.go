package handlers

import (
	"net/http"

	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// RatingHandler serves order ratings.
type RatingHandler struct {
	usecase ratingUsecase
	logger  logx.Logger
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(logger logx.Logger, uc ratingUsecase) *RatingHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &RatingHandler{usecase: uc, logger: logger}
}

// Rate handles POST /orders/{id}/rating.
func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	var req rateRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	rt, err := h.usecase.Rate(r.Context(), a, domain.RateRequest{OrderID: id, Score: req.Score, Comment: req.Comment})
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, ratingToResponse(rt))
}

// Get handles GET /orders/{id}/rating.
func (h *RatingHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	rt, err := h.usecase.Get(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ratingToResponse(rt))
}

// Unrated handles GET /orders/unrated.
func (h *RatingHandler) Unrated(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(h.logger, w, r)
	if !ok {
		return
	}

	orders, err := h.usecase.Pending(r.Context(), a, page)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(orders))
}
