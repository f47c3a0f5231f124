package handlers

import (
	"net/http"
	"strconv"

	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	orders     orderUsecase
	assignment assignmentUsecase
	logger     logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, orders orderUsecase, assignment assignmentUsecase) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{orders: orders, assignment: assignment, logger: logger}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	o, err := h.orders.Create(r.Context(), a, req.toModel())
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+strconv.FormatInt(o.ID, 10))
	writeJSON(h.logger, w, r, http.StatusCreated, orderToResponse(o))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.orders.ListForActor(r.Context(), a, page)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}

// Available handles GET /orders/available.
func (h *OrderHandler) Available(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.assignment.ListAvailable(r.Context(), a, page)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}

// Claim handles POST /orders/{id}/claim.
func (h *OrderHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(a domain.Actor, id int64) (*domain.Order, error) {
		return h.assignment.Claim(r.Context(), a, id)
	})
}

// Assign handles POST /orders/{id}/assign.
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	o, err := h.assignment.Assign(r.Context(), a, domain.AssignRequest{OrderID: id, CourierID: req.CourierID})
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}

// Depart handles POST /orders/{id}/depart. The response carries the
// delivery QR, which is the only place the token is revealed.
func (h *OrderHandler) Depart(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	o, qr, err := h.orders.Depart(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, departResponse{Order: orderToResponse(o), QR: qrToResponse(qr)})
}

// Deliver handles POST /orders/{id}/deliver.
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	var req deliverRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	o, err := h.orders.Deliver(r.Context(), a, domain.DeliverRequest{OrderID: id, Token: req.Token})
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(a domain.Actor, id int64) (*domain.Order, error) {
		return h.orders.Cancel(r.Context(), a, id)
	})
}

// Refund handles POST /orders/{id}/refund.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(a domain.Actor, id int64) (*domain.Order, error) {
		return h.orders.Refund(r.Context(), a, id)
	})
}

// TransitionTo handles PUT /orders/{id}/status.
func (h *OrderHandler) TransitionTo(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	o, err := h.orders.TransitionTo(r.Context(), a, id, req.Status, req.Token)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}

func (h *OrderHandler) act(w http.ResponseWriter, r *http.Request, fn func(domain.Actor, int64) (*domain.Order, error)) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	o, err := fn(a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}
