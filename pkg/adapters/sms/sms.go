// Package sms sends outbound text messages through an Africa's Talking
// compatible messaging API.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/google/uuid"
)

const (
	// DefaultURL is the production messaging endpoint.
	DefaultURL = "https://api.africastalking.com/version1/messaging"
	// DefaultSenderID is the approved alphanumeric sender.
	DefaultSenderID = "MotherLink"
	// DefaultTimeout bounds a single send.
	DefaultTimeout = 10 * time.Second
)

// ErrNoRecipients is returned when a send has nobody to deliver to.
var ErrNoRecipients = errors.New("sms: no recipients")

// Config holds the gateway credentials.
type Config struct {
	URL      string
	APIKey   string
	Username string
	SenderID string
}

// Client implements ports.Notifier.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a gateway client. Empty URL and sender fall back to the defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.SenderID == "" {
		cfg.SenderID = DefaultSenderID
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recipient struct {
	StatusCode int    `json:"statusCode"`
	Number     string `json:"number"`
	Status     string `json:"status"`
	MessageID  string `json:"messageId"`
}

type sendResponse struct {
	SMSMessageData struct {
		Message    string      `json:"Message"`
		Recipients []recipient `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send delivers message to a single number.
func (c *Client) Send(ctx context.Context, to, message string) (domain.Delivery, error) {
	return c.SendBulk(ctx, []string{to}, message)
}

// SendBulk delivers the same message to every number in one request.
func (c *Client) SendBulk(ctx context.Context, to []string, message string) (domain.Delivery, error) {
	numbers := make([]string, 0, len(to))
	for _, n := range to {
		if n = strings.TrimSpace(n); n != "" {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return domain.Delivery{}, ErrNoRecipients
	}

	form := url.Values{
		"username": {c.cfg.Username},
		"to":       {strings.Join(numbers, ",")},
		"message":  {message},
		"from":     {c.cfg.SenderID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Delivery{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("sms: send: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("sms: read response: %w", err)
	}
	if res.StatusCode >= 300 {
		return domain.Delivery{}, fmt.Errorf("sms: gateway returned %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var body sendResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.Delivery{}, fmt.Errorf("sms: decode response: %w", err)
	}

	d := domain.Delivery{Response: body.SMSMessageData.Message}
	for _, r := range body.SMSMessageData.Recipients {
		if r.MessageID != "" && r.MessageID != "None" {
			d.MessageID = r.MessageID
			break
		}
	}
	if d.MessageID == "" {
		d.MessageID = uuid.NewString()
	}

	c.logger.Info("SMS sent", "recipients", len(numbers), "message_id", d.MessageID, "response", d.Response)
	return d, nil
}

// LogNotifier writes messages to the log instead of sending them.
// It backs the simulator and deployments without gateway credentials.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, message string) (domain.Delivery, error) {
	return n.SendBulk(ctx, []string{to}, message)
}

func (n *LogNotifier) SendBulk(_ context.Context, to []string, message string) (domain.Delivery, error) {
	if len(to) == 0 {
		return domain.Delivery{}, ErrNoRecipients
	}
	id := uuid.NewString()
	n.logger.Info("SMS (not sent)", "to", strings.Join(to, ","), "message_id", id, "message", message)
	return domain.Delivery{MessageID: id, Response: "logged"}, nil
}
