package handlers

import (
	"net/http"

	"tracknow/internal/logx"
)

// ProofHandler serves the delivery QR and its public verification link.
type ProofHandler struct {
	usecase proofUsecase
	logger  logx.Logger
}

// NewProofHandler creates a new ProofHandler.
func NewProofHandler(logger logx.Logger, uc proofUsecase) *ProofHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &ProofHandler{usecase: uc, logger: logger}
}

// QR handles GET /orders/{id}/qr.
func (h *ProofHandler) QR(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}

	qr, err := h.usecase.QR(r.Context(), a, id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, qrToResponse(qr))
}

// Verify handles GET /orders/{id}/verify?token=. It is public: the link is
// printed in the QR the recipient scans.
func (h *ProofHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(h.logger, w, r)
	if !ok {
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "token is required")
		return
	}

	valid, err := h.usecase.Verify(r.Context(), id, token)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, verifyResponse{OrderID: id, Valid: valid})
}
