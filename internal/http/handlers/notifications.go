package handlers

import (
	"net/http"
	"strconv"

	"tracknow/internal/logx"
)

// NotificationHandler lists the caller's in-app notifications.
type NotificationHandler struct {
	usecase notificationUsecase
	logger  logx.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(logger logx.Logger, uc notificationUsecase) *NotificationHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &NotificationHandler{usecase: uc, logger: logger}
}

// List handles GET /notifications?limit=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	list, err := h.usecase.List(r.Context(), a, limit)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, notificationsToResponse(list))
}
