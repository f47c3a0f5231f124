package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/http/handlers"
	"tracknow/internal/service/proof"
)

type stubTracking struct {
	reportFn func(ctx context.Context, a domain.Actor, r domain.LocationReport) (domain.Location, error)
	getFn    func(ctx context.Context, a domain.Actor, id int64) (*domain.Location, error)
	routeFn  func(ctx context.Context, a domain.Actor, id int64) ([]domain.Location, error)
}

func (s *stubTracking) ReportLocation(ctx context.Context, a domain.Actor, r domain.LocationReport) (domain.Location, error) {
	return s.reportFn(ctx, a, r)
}

func (s *stubTracking) GetLocation(ctx context.Context, a domain.Actor, id int64) (*domain.Location, error) {
	return s.getFn(ctx, a, id)
}

func (s *stubTracking) Route(ctx context.Context, a domain.Actor, id int64) ([]domain.Location, error) {
	return s.routeFn(ctx, a, id)
}

func TestTrackingHandler(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := &stubTracking{
		reportFn: func(_ context.Context, a domain.Actor, r domain.LocationReport) (domain.Location, error) {
			if a.Role != domain.RoleCourier {
				return domain.Location{}, apperr.ErrForbidden
			}
			require.Equal(t, int64(42), r.OrderID)
			require.Equal(t, at, r.Timestamp)
			return domain.Location{OrderID: 42, Lat: r.Lat, Lon: r.Lon, RecordedAt: r.Timestamp}, nil
		},
		getFn: func(context.Context, domain.Actor, int64) (*domain.Location, error) {
			return nil, fmt.Errorf("location of order 42: %w", apperr.ErrNotFound)
		},
		routeFn: func(context.Context, domain.Actor, int64) ([]domain.Location, error) {
			return []domain.Location{{OrderID: 42, Lat: 1, Lon: 2, RecordedAt: at}}, nil
		},
	}
	h := handlers.NewTrackingHandler(testLogger(), uc)
	params := map[string]string{"id": "42"}
	body := `{"lat":-12.1,"lon":-77.0,"timestamp":"2025-03-01T12:00:00Z"}`

	rr := httptest.NewRecorder()
	h.Report(rr, request(http.MethodPost, "/orders/42/location", body, &courier, params))
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	h.Report(rr, request(http.MethodPost, "/orders/42/location", body, &client, params))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Get(rr, request(http.MethodGet, "/orders/42/location", "", &client, params))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Route(rr, request(http.MethodGet, "/orders/42/route", "", &client, params))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decodeBody[[]map[string]any](t, rr), 1)
}

type stubProof struct {
	qrFn     func(ctx context.Context, a domain.Actor, id int64) (proof.QR, error)
	verifyFn func(ctx context.Context, id int64, token string) (bool, error)
}

func (s *stubProof) QR(ctx context.Context, a domain.Actor, id int64) (proof.QR, error) {
	return s.qrFn(ctx, a, id)
}

func (s *stubProof) Verify(ctx context.Context, id int64, token string) (bool, error) {
	return s.verifyFn(ctx, id, token)
}

func TestProofHandler(t *testing.T) {
	t.Parallel()

	uc := &stubProof{
		qrFn: func(_ context.Context, a domain.Actor, _ int64) (proof.QR, error) {
			if a.Role == domain.RoleSeller {
				return proof.QR{}, apperr.ErrForbidden
			}
			return proof.QR{OrderID: 42, URL: "u"}, nil
		},
		verifyFn: func(_ context.Context, _ int64, token string) (bool, error) {
			return token == "good", nil
		},
	}
	h := handlers.NewProofHandler(testLogger(), uc)
	params := map[string]string{"id": "42"}

	rr := httptest.NewRecorder()
	h.QR(rr, request(http.MethodGet, "/orders/42/qr", "", &client, params))
	require.Equal(t, http.StatusOK, rr.Code)

	seller := domain.Actor{ID: 5, Role: domain.RoleSeller}
	rr = httptest.NewRecorder()
	h.QR(rr, request(http.MethodGet, "/orders/42/qr", "", &seller, params))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Verify(rr, request(http.MethodGet, "/orders/42/verify?token=good", "", nil, params))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, decodeBody[map[string]any](t, rr)["valid"])

	rr = httptest.NewRecorder()
	h.Verify(rr, request(http.MethodGet, "/orders/42/verify?token=bad", "", nil, params))
	require.Equal(t, false, decodeBody[map[string]any](t, rr)["valid"])

	rr = httptest.NewRecorder()
	h.Verify(rr, request(http.MethodGet, "/orders/42/verify", "", nil, params))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

type stubPayments struct {
	handleFn func(ctx context.Context, out domain.PaymentOutcome) (*domain.Order, error)
}

func (s *stubPayments) Handle(ctx context.Context, out domain.PaymentOutcome) (*domain.Order, error) {
	return s.handleFn(ctx, out)
}

func TestPaymentHandler_Webhook(t *testing.T) {
	t.Parallel()

	calls := 0
	uc := &stubPayments{
		handleFn: func(_ context.Context, out domain.PaymentOutcome) (*domain.Order, error) {
			calls++
			require.Equal(t, domain.PaymentOutcome{OrderID: 42, TransactionID: "tx-1", Result: "approved"}, out)
			return &domain.Order{ID: 42, Status: domain.StatusPending, PaymentStatus: domain.PaymentPaid}, nil
		},
	}
	h := handlers.NewPaymentHandler(testLogger(), uc, "shh")
	body := `{"order_id":42,"transaction_id":"tx-1","outcome":"approved"}`

	rr := httptest.NewRecorder()
	h.Webhook(rr, request(http.MethodPost, "/payments/webhook", body, nil, nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, 0, calls)

	req := request(http.MethodPost, "/payments/webhook", body, nil, nil)
	req.Header.Set(handlers.WebhookSecretHeader, "shh")
	rr = httptest.NewRecorder()
	h.Webhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "pending", decodeBody[map[string]any](t, rr)["status"])
	require.Equal(t, 1, calls)
}

type stubReport struct {
	fn func(ctx context.Context, a domain.Actor, f domain.PerformanceFilter) (domain.PerformanceReport, error)
}

func (s *stubReport) Performance(ctx context.Context, a domain.Actor, f domain.PerformanceFilter) (domain.PerformanceReport, error) {
	return s.fn(ctx, a, f)
}

func TestReportHandler_Performance(t *testing.T) {
	t.Parallel()

	uc := &stubReport{
		fn: func(_ context.Context, a domain.Actor, f domain.PerformanceFilter) (domain.PerformanceReport, error) {
			if a.Role != domain.RoleAdmin {
				return domain.PerformanceReport{}, apperr.ErrForbidden
			}
			require.NotNil(t, f.From)
			require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *f.From)
			require.Nil(t, f.To)
			require.Equal(t, int64(7), *f.CourierID)
			return domain.PerformanceReport{
				Total: 3, Delivered: 2,
				Couriers: []domain.CourierPerformance{{CourierID: 7, Name: "rider", Total: 3, Delivered: 2}},
			}, nil
		},
	}
	h := handlers.NewReportHandler(testLogger(), uc)

	rr := httptest.NewRecorder()
	h.Performance(rr, request(http.MethodGet, "/reports/performance?from=2025-01-01&courier_id=7", "", &admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[map[string]any](t, rr)
	require.EqualValues(t, 2, resp["delivered"])
	require.Len(t, resp["couriers"], 1)

	rr = httptest.NewRecorder()
	h.Performance(rr, request(http.MethodGet, "/reports/performance", "", &client, nil))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Performance(rr, request(http.MethodGet, "/reports/performance?to=yesterday", "", &admin, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

type stubNotifications struct{}

func (stubNotifications) List(_ context.Context, a domain.Actor, limit int) ([]domain.Notification, error) {
	if limit > 200 {
		return nil, fmt.Errorf("%w: limit must be between 0 and 200", apperr.ErrInvalid)
	}
	return []domain.Notification{{ID: uuid.New(), UserID: a.ID, OrderID: 42, Type: domain.NotifyOrderCreated}}, nil
}

func TestNotificationHandler_List(t *testing.T) {
	t.Parallel()

	h := handlers.NewNotificationHandler(testLogger(), stubNotifications{})

	rr := httptest.NewRecorder()
	h.List(rr, request(http.MethodGet, "/notifications", "", &client, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]map[string]any](t, rr)
	require.Len(t, list, 1)
	require.Equal(t, "order_created", list[0]["type"])

	rr = httptest.NewRecorder()
	h.List(rr, request(http.MethodGet, "/notifications?limit=500", "", &client, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
