package notify

import (
	"context"
	"net/http"
	"strings"
)

// PushSender sends mobile push notifications through the Expo push API.
type PushSender struct {
	client *http.Client
	url    string
}

// NewPushSender returns nil when no endpoint is configured.
func NewPushSender(client *http.Client, url string) *PushSender {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PushSender{client: client, url: url}
}

// Name implements Sender.
func (s *PushSender) Name() string { return "push" }

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send implements Sender.
func (s *PushSender) Send(ctx context.Context, m Message) error {
	if m.User.PushToken == "" {
		return nil
	}
	body := expoMessage{
		To:    m.User.PushToken,
		Title: m.Subject,
		Body:  m.Body,
		Sound: "default",
		Data:  orderData(m),
	}
	return postJSON(ctx, s.client, "expo", s.url, body, nil)
}
