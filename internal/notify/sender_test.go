package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracknow/internal/domain"
	"tracknow/internal/notify"
)

func TestEmailSender_PostsSendGridPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := notify.NewEmailSender(srv.Client(), srv.URL, "key-1", "no-reply@example.com")
	require.NotNil(t, s)

	err := s.Send(context.Background(), notify.Message{
		OrderID: 42,
		Type:    domain.NotifyOrderDelivered,
		User:    domain.User{ID: 1, Name: "Ana", Email: "ana@example.com"},
		Subject: "Order #42 delivered",
		Body:    "Order #42 has been delivered.",
	})
	require.NoError(t, err)

	require.Equal(t, "Order #42 delivered", got["subject"])
	from := got["from"].(map[string]any)
	require.Equal(t, "no-reply@example.com", from["email"])
	p := got["personalizations"].([]any)[0].(map[string]any)
	to := p["to"].([]any)[0].(map[string]any)
	require.Equal(t, "ana@example.com", to["email"])
	require.Equal(t, "42", got["custom_args"].(map[string]any)["order_id"])
}

func TestEmailSender_DisabledAndNoAddress(t *testing.T) {
	t.Parallel()

	require.Nil(t, notify.NewEmailSender(nil, "http://unused", "  ", "x@example.com"))

	s := notify.NewEmailSender(nil, "http://127.0.0.1:1", "key", "x@example.com")
	require.NoError(t, s.Send(context.Background(), notify.Message{User: domain.User{ID: 1}}))
}

func TestPushSender_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ExponentPushToken[abc]", body["to"])
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := notify.NewPushSender(srv.Client(), srv.URL)
	err := s.Send(context.Background(), notify.Message{
		OrderID: 7,
		User:    domain.User{ID: 2, PushToken: "ExponentPushToken[abc]"},
	})

	var se *notify.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "expo", se.Provider)
	require.Equal(t, http.StatusServiceUnavailable, se.Code)

	require.NoError(t, s.Send(context.Background(), notify.Message{User: domain.User{ID: 3}}))
	require.Nil(t, notify.NewPushSender(nil, ""))
}
