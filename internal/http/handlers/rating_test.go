package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/http/handlers"
)

type stubRatings struct {
	rated map[int64]*domain.Rating
}

func (s *stubRatings) Rate(_ context.Context, a domain.Actor, req domain.RateRequest) (*domain.Rating, error) {
	if a.Role != domain.RoleClient {
		return nil, apperr.ErrForbidden
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", apperr.ErrInvalid)
	}
	if _, ok := s.rated[req.OrderID]; ok {
		return nil, fmt.Errorf("%w: order already rated", apperr.ErrConflict)
	}
	rt := &domain.Rating{
		ID: int64(len(s.rated) + 1), OrderID: req.OrderID, ClientID: a.ID, CourierID: 7,
		Score: req.Score, Comment: req.Comment, CreatedAt: time.Now().UTC(),
	}
	s.rated[req.OrderID] = rt
	return rt, nil
}

func (s *stubRatings) Get(_ context.Context, _ domain.Actor, orderID int64) (*domain.Rating, error) {
	rt, ok := s.rated[orderID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return rt, nil
}

func (s *stubRatings) Pending(_ context.Context, a domain.Actor, page domain.Page) ([]domain.Order, error) {
	if a.Role != domain.RoleClient {
		return nil, apperr.ErrForbidden
	}
	out := make([]domain.Order, 0)
	for _, id := range []int64{50, 51, 52} {
		if _, ok := s.rated[id]; !ok {
			out = append(out, domain.Order{ID: id, ClientID: a.ID, Status: domain.StatusDelivered})
		}
	}
	if page.Limit != nil && *page.Limit < len(out) {
		out = out[:*page.Limit]
	}
	return out, nil
}

func TestRatingHandler_Unrated(t *testing.T) {
	t.Parallel()

	h := handlers.NewRatingHandler(testLogger(), &stubRatings{rated: map[int64]*domain.Rating{51: {ID: 1}}})

	rr := httptest.NewRecorder()
	h.Unrated(rr, request(http.MethodGet, "/orders/unrated", "", &client, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]map[string]any](t, rr)
	require.Len(t, list, 2)
	require.EqualValues(t, 50, list[0]["id"])
	require.EqualValues(t, 52, list[1]["id"])

	rr = httptest.NewRecorder()
	h.Unrated(rr, request(http.MethodGet, "/orders/unrated?limit=1", "", &client, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]map[string]any](t, rr), 1)

	rr = httptest.NewRecorder()
	h.Unrated(rr, request(http.MethodGet, "/orders/unrated", "", &courier, nil))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Unrated(rr, request(http.MethodGet, "/orders/unrated?limit=abc", "", &client, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRatingHandler(t *testing.T) {
	t.Parallel()

	h := handlers.NewRatingHandler(testLogger(), &stubRatings{rated: map[int64]*domain.Rating{}})
	params := map[string]string{"id": "42"}

	rr := httptest.NewRecorder()
	h.Rate(rr, request(http.MethodPost, "/orders/42/rating", `{"score":5,"comment":"fast"}`, &client, params))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeBody[map[string]any](t, rr)
	require.EqualValues(t, 42, created["order_id"])
	require.EqualValues(t, 5, created["score"])
	require.Equal(t, "fast", created["comment"])

	rr = httptest.NewRecorder()
	h.Rate(rr, request(http.MethodPost, "/orders/42/rating", `{"score":1}`, &client, params))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	h.Rate(rr, request(http.MethodPost, "/orders/43/rating", `{"score":9}`, &client, map[string]string{"id": "43"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Rate(rr, request(http.MethodPost, "/orders/43/rating", `{"score":4}`, &courier, map[string]string{"id": "43"}))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Rate(rr, request(http.MethodPost, "/orders/42/rating", `{"score":4}`, nil, params))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.Get(rr, request(http.MethodGet, "/orders/42/rating", "", &admin, params))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Get(rr, request(http.MethodGet, "/orders/99/rating", "", &admin, map[string]string{"id": "99"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
