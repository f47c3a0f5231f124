package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tracknow/internal/apperr"
	"tracknow/internal/auth"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil && logger != nil {
		logger.Warn("json encode error",
			logx.String("req_id", reqID(r.Context())),
			logx.Err(err),
		)
	}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	if logger != nil {
		logger.Debug("http error",
			logx.String("req_id", reqID(r.Context())),
			logx.Int("status", status),
			logx.String("msg", msg),
		)
	}
	writeJSON(logger, w, r, status, ErrorResponse{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses. Client errors
// carry the wrapped message; anything unclassified is a 500.
func writeDomainError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.Kind(err) {
	case apperr.ErrInvalid:
		writeError(logger, w, r, http.StatusBadRequest, err.Error())
	case apperr.ErrNotFound:
		writeError(logger, w, r, http.StatusNotFound, err.Error())
	case apperr.ErrConflict:
		writeError(logger, w, r, http.StatusConflict, err.Error())
	case apperr.ErrForbidden:
		writeError(logger, w, r, http.StatusForbidden, err.Error())
	case apperr.ErrInvalidToken:
		writeError(logger, w, r, http.StatusUnauthorized, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				logx.String("req_id", reqID(r.Context())),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Err(err),
			)
		}
		writeError(logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

const (
	bodyLimit = 1 << 20
)

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

func idFromURL(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// orderID reads {id} and answers 400 itself when it is malformed.
func orderID(logger logx.Logger, w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// actor returns the authenticated caller, answering 401 when there is none.
func actor(logger logx.Logger, w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(logger, w, r, http.StatusUnauthorized, "unauthorized")
		return domain.Actor{}, false
	}
	return a, true
}

func pageFromQuery(logger logx.Logger, w http.ResponseWriter, r *http.Request) (domain.Page, bool) {
	q := r.URL.Query()
	var page domain.Page
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(logger, w, r, http.StatusBadRequest, "invalid limit")
			return page, false
		}
		page.Limit = &v
	}
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(logger, w, r, http.StatusBadRequest, "invalid offset")
			return page, false
		}
		page.Offset = &v
	}
	return page, true
}
