package kafka_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tracknow/internal/domain"
	"tracknow/internal/transport/kafka"
)

func TestToDomain_TrimsAndNormalizes(t *testing.T) {
	t.Parallel()

	got := kafka.ToDomain(kafka.PaymentDTO{OrderID: 5, TransactionID: "  tx-9 ", Outcome: " REJECTED "})
	require.Equal(t, domain.PaymentOutcome{
		OrderID:       5,
		TransactionID: "tx-9",
		Result:        domain.PaymentRejected,
	}, got)
}
