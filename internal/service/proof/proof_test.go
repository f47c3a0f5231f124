package proof

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
	testlog "tracknow/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestIssuer_MintIsUniqueAndURLSafe(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("http://example.test/")
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		tok, err := iss.Mint()
		require.NoError(t, err)
		require.Len(t, tok, 43)
		require.NotContains(t, tok, "+")
		require.NotContains(t, tok, "/")
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestIssuer_MintReadError(t *testing.T) {
	t.Parallel()

	iss := &Issuer{rand: bytes.NewReader(nil)}
	_, err := iss.Mint()
	require.Error(t, err)
}

func TestIssuer_VerificationURL(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("https://track.example/")
	raw := iss.VerificationURL(42, "a b")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/orders/42/verify", u.Path)
	assert.Equal(t, "a b", u.Query().Get("token"))
	assert.True(t, strings.HasPrefix(raw, "https://track.example/orders/42"))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, Equal(ptr("abc"), "abc"))
	assert.False(t, Equal(ptr("abc"), "abd"))
	assert.False(t, Equal(ptr("abc"), ""))
	assert.False(t, Equal(nil, "abc"))
}

func newTestService(t *testing.T) (*Service, *MockorderReader, *MockRenderer, *testlog.Recorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	orders := NewMockorderReader(ctrl)
	renderer := NewMockRenderer(ctrl)
	rec := testlog.New()
	svc := NewService(orders, NewIssuer("http://localhost:8080"), renderer, time.Second, rec.Logger())
	return svc, orders, renderer, rec
}

func inTransit() *domain.Order {
	return &domain.Order{
		ID:            42,
		ClientID:      1,
		CourierID:     ptr(int64(7)),
		Status:        domain.StatusInTransit,
		DeliveryToken: ptr("tok"),
	}
}

func TestNewService_TimeoutDefault(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, NewIssuer(""), nil, 0, logx.Nop())
	require.Equal(t, 3*time.Second, svc.operationTimeout)
}

func TestNewService_NilLoggerSurvivesRenderFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	renderer := NewMockRenderer(ctrl)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return("", errors.New("encoder broke"))

	svc := NewService(nil, NewIssuer("http://localhost:8080"), renderer, time.Second, nil)
	require.NotNil(t, svc.logger)

	var qr QR
	require.NotPanics(t, func() { qr = svc.Build(context.Background(), 42, "tok") })
	assert.Equal(t, "http://localhost:8080/orders/42/verify?token=tok", qr.URL)
	assert.Empty(t, qr.Image)
}

func TestService_QR_ForParties(t *testing.T) {
	t.Parallel()

	for _, actor := range []domain.Actor{
		{ID: 1, Role: domain.RoleClient},
		{ID: 7, Role: domain.RoleCourier},
		{ID: 99, Role: domain.RoleAdmin},
	} {
		svc, orders, renderer, _ := newTestService(t)
		orders.EXPECT().Get(gomock.Any(), int64(42)).Return(inTransit(), nil)
		renderer.EXPECT().
			Render(gomock.Any(), "http://localhost:8080/orders/42/verify?token=tok").
			Return("data:image/png;base64,AAAA", nil)

		qr, err := svc.QR(context.Background(), actor, 42)
		require.NoError(t, err, actor.Role)
		assert.Equal(t, "data:image/png;base64,AAAA", qr.Image)
		assert.Equal(t, int64(42), qr.OrderID)
	}
}

func TestService_QR_Forbidden(t *testing.T) {
	t.Parallel()

	for _, actor := range []domain.Actor{
		{ID: 2, Role: domain.RoleClient},
		{ID: 8, Role: domain.RoleCourier},
		{ID: 5, Role: domain.RoleSeller},
	} {
		svc, orders, _, _ := newTestService(t)
		orders.EXPECT().Get(gomock.Any(), int64(42)).Return(inTransit(), nil)

		_, err := svc.QR(context.Background(), actor, 42)
		require.ErrorIs(t, err, apperr.ErrForbidden, actor.Role)
	}
}

func TestService_QR_NoActiveToken(t *testing.T) {
	t.Parallel()

	svc, orders, _, _ := newTestService(t)
	o := inTransit()
	o.Status, o.DeliveryToken = domain.StatusDelivered, nil
	orders.EXPECT().Get(gomock.Any(), int64(42)).Return(o, nil)

	_, err := svc.QR(context.Background(), domain.Actor{ID: 1, Role: domain.RoleClient}, 42)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_QR_MissingOrder(t *testing.T) {
	t.Parallel()

	svc, orders, _, _ := newTestService(t)
	orders.EXPECT().Get(gomock.Any(), int64(42)).Return(nil, nil)

	_, err := svc.QR(context.Background(), domain.Actor{ID: 1, Role: domain.RoleAdmin}, 42)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_QR_RenderFailureKeepsURL(t *testing.T) {
	t.Parallel()

	svc, orders, renderer, rec := newTestService(t)
	orders.EXPECT().Get(gomock.Any(), int64(42)).Return(inTransit(), nil)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return("", errors.New("encoder down"))

	qr, err := svc.QR(context.Background(), domain.Actor{ID: 1, Role: domain.RoleClient}, 42)
	require.NoError(t, err)
	assert.Empty(t, qr.Image)
	assert.Contains(t, qr.URL, "token=tok")
	_, logged := rec.Find("qr render failed")
	require.True(t, logged)
}

func TestService_Verify(t *testing.T) {
	t.Parallel()

	svc, orders, _, _ := newTestService(t)
	orders.EXPECT().Get(gomock.Any(), int64(42)).Return(inTransit(), nil).Times(2)

	ok, err := svc.Verify(context.Background(), 42, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(context.Background(), 42, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Verify_RepoError(t *testing.T) {
	t.Parallel()

	svc, orders, _, _ := newTestService(t)
	wantErr := errors.New("db down")
	orders.EXPECT().Get(gomock.Any(), int64(42)).Return(nil, wantErr)

	_, err := svc.Verify(context.Background(), 42, "tok")
	require.ErrorIs(t, err, wantErr)
}
