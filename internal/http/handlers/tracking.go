package handlers

import (
	"net/http"

	"tracknow/internal/logx"
)

// TrackingHandler serves courier positions.
type TrackingHandler struct {
	usecase trackingUsecase
	logger  logx.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(logger logx.Logger, uc trackingUsecase) *TrackingHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &TrackingHandler{usecase: uc, logger: logger}
}

// Report handles POST /orders/{id}/location.
func (h *TrackingHandler) Report(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	var req locationRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	loc, err := h.usecase.ReportLocation(r.Context(), a, req.toModel(id))
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusAccepted, locationToResponse(loc))
}

// Get handles GET /orders/{id}/location.
func (h *TrackingHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	loc, err := h.usecase.GetLocation(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, locationToResponse(*loc))
}

// Route handles GET /orders/{id}/route.
func (h *TrackingHandler) Route(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	route, err := h.usecase.Route(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, routeToResponse(route))
}
