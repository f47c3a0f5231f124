package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.Status{
		"in_transit": domain.StatusInTransit,
		"En camino":  domain.StatusInTransit,
		" entregado": domain.StatusDelivered,
		"No pagado":  domain.StatusUnpaid,
		"canceled":   domain.StatusCancelled,
		"PENDING":    domain.StatusPending,
	}
	for in, want := range cases {
		got, ok := domain.ParseStatus(in)
		require.Truef(t, ok, "parse %q", in)
		require.Equal(t, want, got)
	}

	_, ok := domain.ParseStatus("Perdido")
	require.False(t, ok)
	_, ok = domain.ParseStatus("")
	require.False(t, ok)
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	require.True(t, domain.StatusDelivered.Terminal())
	require.True(t, domain.StatusCancelled.Terminal())
	require.False(t, domain.StatusInTransit.Terminal())
	require.False(t, domain.Status(42).Valid())
}

func TestNewStatusCatalog(t *testing.T) {
	t.Parallel()

	rows := map[string]int{
		"No pagado": 1, "Pendiente": 2, "Asignado": 3,
		"En camino": 4, "Entregado": 5, "Cancelado": 6, "Legacy": 7,
	}
	c, err := domain.NewStatusCatalog(rows)
	require.NoError(t, err)
	require.Equal(t, 4, c.ID(domain.StatusInTransit))
	s, ok := c.Status(5)
	require.True(t, ok)
	require.Equal(t, domain.StatusDelivered, s)
	require.Equal(t, []int{2, 3}, c.IDs([]domain.Status{domain.StatusPending, domain.StatusAssigned}))

	delete(rows, "Entregado")
	_, err = domain.NewStatusCatalog(rows)
	require.ErrorContains(t, err, "Entregado")
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, ok := domain.ParseRole("Repartidor")
	require.True(t, ok)
	require.Equal(t, domain.RoleCourier, r)

	_, ok = domain.ParseRole("root")
	require.False(t, ok)
	require.False(t, domain.Role("root").Valid())
}

func ptr[T any](v T) *T { return &v }

func TestTransition_AllowsAndExplain(t *testing.T) {
	t.Parallel()

	claim := domain.Transition{
		Name:             "claim",
		OrderID:          7,
		From:             []domain.Status{domain.StatusPending},
		To:               domain.StatusAssigned,
		RequireNoCourier: true,
		SetCourier:       ptr(int64(3)),
	}

	o := &domain.Order{ID: 7, Status: domain.StatusPending}
	require.True(t, claim.Allows(o))
	claim.ApplyTo(o)
	require.Equal(t, domain.StatusAssigned, o.Status)
	require.True(t, o.IsCourier(3))

	require.False(t, claim.Allows(o))
	require.ErrorIs(t, claim.Explain(o), apperr.ErrConflict)
	require.ErrorContains(t, claim.Explain(o), "already assigned")
	require.ErrorIs(t, claim.Explain(nil), apperr.ErrNotFound)

	deliver := domain.Transition{
		Name:        "deliver",
		OrderID:     7,
		From:        []domain.Status{domain.StatusInTransit},
		To:          domain.StatusDelivered,
		ExpectToken: ptr("good"),
		ClearToken:  true,
	}
	o.Status = domain.StatusInTransit
	o.DeliveryToken = ptr("other")
	require.False(t, deliver.Allows(o))
	require.ErrorIs(t, deliver.Explain(o), apperr.ErrInvalidToken)

	o.DeliveryToken = nil
	require.ErrorIs(t, deliver.Explain(o), apperr.ErrInvalidToken)

	o.DeliveryToken = ptr("good")
	require.True(t, deliver.Allows(o))
	deliver.ApplyTo(o)
	require.Nil(t, o.DeliveryToken)
}

func TestOrder_VisibleTo(t *testing.T) {
	t.Parallel()

	o := &domain.Order{ID: 1, ClientID: 10, Status: domain.StatusPending}
	require.True(t, o.VisibleTo(domain.Actor{ID: 10, Role: domain.RoleClient}))
	require.False(t, o.VisibleTo(domain.Actor{ID: 11, Role: domain.RoleClient}))
	require.True(t, o.VisibleTo(domain.Actor{ID: 5, Role: domain.RoleCourier}))
	require.True(t, o.VisibleTo(domain.Actor{ID: 1, Role: domain.RoleAdmin}))

	o.CourierID = ptr(int64(6))
	o.Status = domain.StatusAssigned
	require.False(t, o.VisibleTo(domain.Actor{ID: 5, Role: domain.RoleCourier}))
	require.True(t, o.VisibleTo(domain.Actor{ID: 6, Role: domain.RoleCourier}))
}
