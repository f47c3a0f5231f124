package notify

import (
	"context"
	"net/http"
	"strings"
)

// EmailSender sends mail through the SendGrid v3 API.
type EmailSender struct {
	client *http.Client
	url    string
	apiKey string
	from   string
}

// NewEmailSender returns nil when no API key is configured.
func NewEmailSender(client *http.Client, url, apiKey, from string) *EmailSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailSender{client: client, url: url, apiKey: apiKey, from: from}
}

// Name implements Sender.
func (s *EmailSender) Name() string { return "email" }

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridMail struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
	CustomArgs       map[string]string         `json:"custom_args,omitempty"`
}

// Send implements Sender.
func (s *EmailSender) Send(ctx context.Context, m Message) error {
	if m.User.Email == "" {
		return nil
	}
	body := sendgridMail{
		Personalizations: []sendgridPersonalization{{
			To: []sendgridAddress{{Email: m.User.Email, Name: m.User.Name}},
		}},
		From:       sendgridAddress{Email: s.from},
		Subject:    m.Subject,
		Content:    []sendgridContent{{Type: "text/plain", Value: m.Body}},
		CustomArgs: orderData(m),
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.apiKey)
	return postJSON(ctx, s.client, "sendgrid", s.url, body, h)
}
