package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

// Default Resend settings.
const (
	DefaultResendEndpoint = "https://api.resend.com/emails"
	defaultSendTimeout    = 10 * time.Second
	maxErrorBody          = 512
)

// ResendMailer sends mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// ResendOption applies a configuration option to the ResendMailer.
type ResendOption func(*ResendMailer)

// WithEndpoint overrides the API URL.
func WithEndpoint(url string) ResendOption {
	return func(m *ResendMailer) {
		if url != "" {
			m.endpoint = url
		}
	}
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) ResendOption {
	return func(m *ResendMailer) {
		if c != nil {
			m.client = c
		}
	}
}

// NewResendMailer creates a mailer sending as from.
func NewResendMailer(apiKey, from string, opts ...ResendOption) *ResendMailer {
	m := &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: DefaultResendEndpoint,
		client:   &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send implements Mailer.
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	start := time.Now()
	defer func() {
		metrics.RecordSendLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()

	body, err := json.Marshal(resendRequest{From: m.from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrSend, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer creates a mailer that logs through l.
func NewLogMailer(l logger.Logger) *LogMailer {
	if l == nil {
		l = logger.Nop()
	}
	return &LogMailer{logger: l.Named("mail")}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "mail not sent, no provider configured",
		logger.Email("to", msg.To),
		logger.String("subject", msg.Subject),
		logger.Int("bytes", len(msg.HTML)))
	return nil
}
