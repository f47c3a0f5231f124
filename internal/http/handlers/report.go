package handlers

import (
	"net/http"
	"strconv"

	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// ReportHandler serves admin reports.
type ReportHandler struct {
	usecase reportUsecase
	logger  logx.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(logger logx.Logger, uc reportUsecase) *ReportHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &ReportHandler{usecase: uc, logger: logger}
}

// Performance handles GET /reports/performance?from=&to=&courier_id=.
func (h *ReportHandler) Performance(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var (
		f   domain.PerformanceFilter
		err error
	)
	if f.From, err = parseTimeParam(q.Get("from")); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid from")
		return
	}
	if f.To, err = parseTimeParam(q.Get("to")); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid to")
		return
	}
	if s := q.Get("courier_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid courier_id")
			return
		}
		f.CourierID = &id
	}

	rep, err := h.usecase.Performance(r.Context(), a, f)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, performanceToResponse(rep))
}
