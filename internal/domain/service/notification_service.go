package service

import (
	"context"

	"kinwatch/internal/domain/entity"
)

// EndpointResult is the provider outcome for one push token.
type EndpointResult struct {
	Token     string
	MessageID string
	Err       error
	// Invalid marks tokens the provider reports as permanently unusable.
	Invalid bool
}

// MulticastResult summarises a multicast push send.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
	PerEndpoint  []EndpointResult
}

// InvalidTokens returns the tokens flagged invalid.
func (r *MulticastResult) InvalidTokens() []string {
	var out []string
	for _, e := range r.PerEndpoint {
		if e.Invalid {
			out = append(out, e.Token)
		}
	}

	return out
}

// FirstMessageID returns the first successful provider message id.
func (r *MulticastResult) FirstMessageID() string {
	for _, e := range r.PerEndpoint {
		if e.Err == nil && e.MessageID != "" {
			return e.MessageID
		}
	}

	return ""
}

// PushService defines the interface for push notification providers.
type PushService interface {
	// SendMulticast sends one message to several tokens. A returned error means
	// the request as a whole failed; per-token failures are in the result.
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*MulticastResult, error)
}

// EmailMessage is one outbound email.
type EmailMessage struct {
	To        string
	Category  entity.Category
	Subject   string
	Body      string
	ActionURL string
}

// SMSMessage is one outbound text message.
type SMSMessage struct {
	To       string
	Category entity.Category
	Body     string
}

// SendResult is the provider acknowledgement for a single message.
type SendResult struct {
	MessageID string
}

// EmailService defines the interface for transactional email providers.
type EmailService interface {
	Send(ctx context.Context, msg EmailMessage) (*SendResult, error)
}

// SMSService defines the interface for SMS providers.
type SMSService interface {
	Send(ctx context.Context, msg SMSMessage) (*SendResult, error)
}

// Content is the rendered text of a notification.
type Content struct {
	Title string
	Body  string
	Data  map[string]string
}

// ContentBuilder maps event parameters to display text.
type ContentBuilder interface {
	Build(event *entity.NotificationEvent) Content
}
