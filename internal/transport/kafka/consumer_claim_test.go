package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	testlog "tracknow/internal/testutil"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked int
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(*sarama.ConsumerMessage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked++
}

func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "" }
func (s *fakeSession) GenerationID() int32                      { return 0 }

func (s *fakeSession) MarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string              { return "payments" }
func (c fakeClaim) Partition() int32           { return 0 }
func (c fakeClaim) InitialOffset() int64       { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

func claimOf(values ...[]byte) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for _, v := range values {
		ch <- &sarama.ConsumerMessage{Value: v}
	}
	close(ch)
	return fakeClaim{ch: ch}
}

func encode(t *testing.T, dto PaymentDTO) []byte {
	t.Helper()
	b, err := json.Marshal(dto)
	require.NoError(t, err)
	return b
}

func TestConsumeClaim_BadJSON_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, domain.PaymentOutcome) error {
			t.Fatal("handler must not be called")
			return nil
		},
	}
	h := &groupHandler{c: c}

	sess := &fakeSession{ctx: context.Background()}
	err := h.ConsumeClaim(sess, claimOf([]byte("not-json")))
	require.NoError(t, err)
	require.Equal(t, 1, sess.MarkedCount())
	require.True(t, hasMsg(rec.Entries(), "kafka bad json"))
}

func TestConsumeClaim_EmptyOrderID_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	calls := 0
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, domain.PaymentOutcome) error {
			calls++
			return nil
		},
	}
	h := &groupHandler{c: c}

	sess := &fakeSession{ctx: context.Background()}
	err := h.ConsumeClaim(sess, claimOf(encode(t, PaymentDTO{Outcome: "approved"})))
	require.NoError(t, err)
	require.Equal(t, 1, sess.MarkedCount())
	require.Equal(t, 0, calls)
	require.True(t, hasMsg(rec.Entries(), "kafka empty order_id"))
}

func TestConsumeClaim_PermanentError_SkipsButMarks(t *testing.T) {
	t.Parallel()

	for _, handlerErr := range []error{
		Permanent(errors.New("boom")),
		fmt.Errorf("confirm payment 7: %w", apperr.ErrNotFound),
		fmt.Errorf("%w: payment already confirmed", apperr.ErrConflict),
	} {
		rec := testlog.New()
		c := &Consumer{
			logger:  rec.Logger(),
			handler: func(context.Context, domain.PaymentOutcome) error { return handlerErr },
		}
		h := &groupHandler{c: c}

		sess := &fakeSession{ctx: context.Background()}
		err := h.ConsumeClaim(sess, claimOf(encode(t, PaymentDTO{OrderID: 7, Outcome: "rejected"})))
		require.NoError(t, err)
		require.Equal(t, 1, sess.MarkedCount())
		require.True(t, hasMsg(rec.Entries(), "kafka handle failed, skipping message"))
	}
}

func TestConsumeClaim_TransientError_ReturnsWithoutMarking(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	sentinel := errors.New("db down")
	c := &Consumer{
		logger:  rec.Logger(),
		handler: func(context.Context, domain.PaymentOutcome) error { return sentinel },
	}
	h := &groupHandler{c: c}

	sess := &fakeSession{ctx: context.Background()}
	err := h.ConsumeClaim(sess, claimOf(encode(t, PaymentDTO{OrderID: 7, Outcome: "approved"})))
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, sess.MarkedCount())
	require.True(t, hasMsg(rec.Entries(), "kafka handle failed, retry"))
}

func TestConsumeClaim_Success_Marks(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	var got []domain.PaymentOutcome
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(_ context.Context, p domain.PaymentOutcome) error {
			got = append(got, p)
			return nil
		},
	}
	h := &groupHandler{c: c}

	sess := &fakeSession{ctx: context.Background()}
	err := h.ConsumeClaim(sess, claimOf(
		encode(t, PaymentDTO{OrderID: 42, TransactionID: " tx-1 ", Outcome: " Approved "}),
		encode(t, PaymentDTO{OrderID: 43, Outcome: "pending"}),
	))
	require.NoError(t, err)
	require.Equal(t, 2, sess.MarkedCount())
	require.Equal(t, []domain.PaymentOutcome{
		{OrderID: 42, TransactionID: "tx-1", Result: domain.PaymentApproved},
		{OrderID: 43, Result: domain.PaymentWaiting},
	}, got)
}

func hasMsg(entries []testlog.Entry, msg string) bool {
	for _, e := range entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}
