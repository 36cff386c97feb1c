package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	// DefaultSendGridHost is the SendGrid API host.
	DefaultSendGridHost = "https://api.sendgrid.com"

	mailSendPath = "/v3/mail/send"
)

// SendGrid delivers messages through the SendGrid v3 mail API.
type SendGrid struct {
	apiKey string
	host   string
	from   *mail.Email
	client *rest.Client
	logger *slog.Logger
}

// SendGridOption configures a SendGrid sender.
type SendGridOption func(*SendGrid)

// WithHost overrides the API host.
func WithHost(host string) SendGridOption {
	return func(s *SendGrid) {
		if host != "" {
			s.host = host
		}
	}
}

// WithHTTPClient sets the HTTP client. Default has a 10s timeout.
func WithHTTPClient(client *http.Client) SendGridOption {
	return func(s *SendGrid) {
		if client != nil {
			s.client = &rest.Client{HTTPClient: client}
		}
	}
}

// WithSenderLogger sets a custom logger.
func WithSenderLogger(logger *slog.Logger) SendGridOption {
	return func(s *SendGrid) {
		if logger != nil {
			s.logger = logger.With("component", "sendgrid")
		}
	}
}

// NewSendGrid creates a sender. An empty apiKey yields a sender whose Send
// always fails with ErrSenderNotConfigured.
func NewSendGrid(apiKey, fromEmail, fromName string, opts ...SendGridOption) *SendGrid {
	s := &SendGrid{
		apiKey: apiKey,
		host:   DefaultSendGridHost,
		from:   mail.NewEmail(fromName, fromEmail),
		client: &rest.Client{HTTPClient: &http.Client{Timeout: 10 * time.Second}},
		logger: slog.Default().With("component", "sendgrid"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts msg to SendGrid. Any non-2xx status is reported as
// ErrDeliveryFailed.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if s.apiKey == "" {
		return ErrSenderNotConfigured
	}

	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, msg.HTML)
	request := sendgrid.GetRequest(s.apiKey, mailSendPath, s.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(email)

	resp, err := s.client.SendWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("sendgrid rejected message", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}
	s.logger.Debug("message accepted", "status", resp.StatusCode)
	return nil
}
