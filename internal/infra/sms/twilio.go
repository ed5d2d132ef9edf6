// Package sms sends text messages through the Twilio REST API.
package sms

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kinwatch/config"
	"kinwatch/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	// maxBodyRunes keeps a message within a few concatenated segments.
	maxBodyRunes = 320
)

// ErrNotConfigured is returned when account credentials are missing.
var ErrNotConfigured = errors.New("sms client not configured: missing account credentials")

type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
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

func NewClient(accountSID, authToken, fromNumber, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
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

// New builds the SMS provider from config.
func New(params Params) service.SMSService {
	cfg := params.Config.SMS
	if cfg == nil {
		cfg = &config.SMSConfig{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return NewClient(cfg.AccountSID, cfg.AuthToken, cfg.FromNumber, cfg.BaseURL,
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithRateLimit(cfg.RatePerSec),
		WithLogger(params.Logger),
	)
}

// Configured returns true if credentials and a sender are set.
func (c *Client) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers one text message.
func (c *Client) Send(ctx context.Context, msg service.SMSMessage) (*service.SendResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "sms rate limiter")
		}
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", c.fromNumber)
	form.Set("Body", truncate(msg.Body, maxBodyRunes))

	endpoint := c.baseURL + "/2010-04-01/Accounts/" + url.PathEscape(c.accountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send sms")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, errors.Wrap(err, "read twilio response")
	}

	var out twilioResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 400 {
		c.logger.WarnContext(ctx, "Twilio rejected message",
			slog.Int("status", resp.StatusCode),
			slog.Int("errorCode", out.Code),
			slog.String("category", string(msg.Category)),
		)

		return nil, errors.Errorf("twilio API error: status %d code %d: %s", resp.StatusCode, out.Code, out.Message)
	}

	return &service.SendResult{MessageID: out.SID}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-1]) + "…"
}
