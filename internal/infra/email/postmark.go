// Package email sends transactional notification email through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kinwatch/config"
	"kinwatch/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.postmarkapp.com"

// ErrNotConfigured is returned when no server token is set.
var ErrNotConfigured = errors.New("email client not configured: missing server token")

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(perSec int) Option {
	return func(cl *Client) {
		if perSec > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSec), perSec)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Params defines the dependencies of the fx constructor.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// New builds the email provider from config.
func New(params Params) service.EmailService {
	cfg := params.Config.Email
	if cfg == nil {
		cfg = &config.EmailConfig{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return NewClient(cfg.ServerToken, cfg.FromAddress, cfg.BaseURL,
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithRateLimit(cfg.RatePerSec),
		WithLogger(params.Logger),
	)
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	Tag           string `json:"Tag,omitempty"`
	MessageStream string `json:"MessageStream"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

// Send delivers one notification email. The category becomes the Postmark tag.
func (c *Client) Send(ctx context.Context, msg service.EmailMessage) (*service.SendResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "email rate limiter")
		}
	}

	textBody, htmlBody := renderBodies(msg)
	payload := postmarkEmail{
		From:          c.fromEmail,
		To:            msg.To,
		Subject:       msg.Subject,
		HtmlBody:      htmlBody,
		TextBody:      textBody,
		Tag:           string(msg.Category),
		MessageStream: "outbound",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send email")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, errors.Wrap(err, "read postmark response")
	}

	var out postmarkResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 400 || out.ErrorCode != 0 {
		c.logger.WarnContext(ctx, "Postmark rejected email",
			slog.Int("status", resp.StatusCode),
			slog.Int("errorCode", out.ErrorCode),
			slog.String("category", string(msg.Category)),
		)

		return nil, errors.Errorf("postmark API error: status %d code %d: %s", resp.StatusCode, out.ErrorCode, out.Message)
	}

	return &service.SendResult{MessageID: out.MessageID}, nil
}

func renderBodies(msg service.EmailMessage) (textBody, htmlBody string) {
	textBody = msg.Body
	htmlBody = fmt.Sprintf("<p>%s</p>", html.EscapeString(msg.Body))
	if msg.ActionURL != "" {
		textBody += "\n\nOpen: " + msg.ActionURL
		htmlBody += fmt.Sprintf(`<p><a href="%s">Open in app</a></p>`, html.EscapeString(msg.ActionURL))
	}

	return textBody, htmlBody
}
