// Package backend talks to the MotherLink backend API: the user registry and
// the emergency and distress intake.
package backend

import (
	"bytes"
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
	"github.com/mitchellh/mapstructure"
)

// Endpoints, relative to the base URL.
const (
	pathRegisterPregnant = "/ussd/register/pregnant"
	pathRegisterMother   = "/ussd/register/mother"
	pathUser             = "/ussd/user"
	pathUpdateInfo       = "/ussd/update-info"
	pathReportEmergency  = "/ussd/report-emergency"
	pathDistress         = "/ussd/distress"
)

// DefaultTimeout matches the backend's own request budget.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Client implements ports.UserRegistry and ports.EmergencyReporter over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The caller's client is
// used as is; WithTimeout does not touch it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Register creates a pregnant or mother user.
func (c *Client) Register(ctx context.Context, kind domain.UserKind, user domain.User) (*domain.User, error) {
	path := pathRegisterPregnant
	if kind == domain.UserKindMother {
		path = pathRegisterMother
	}

	env, err := c.do(ctx, http.MethodPost, path, user)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("%w: %v", domain.ErrAlreadyRegistered, err)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	created := user
	created.Kind = kind
	if err := decode(env.Data, &created); err != nil {
		return nil, fmt.Errorf("failed to decode registered user: %w", err)
	}
	return &created, nil
}

// GetByPhone loads a user by phone number.
func (c *Client) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	env, err := c.do(ctx, http.MethodGet, pathUser+"?"+url.Values{"phoneNumber": {phoneNumber}}.Encode(), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if env.Data == nil {
		return nil, domain.ErrUserNotFound
	}

	var user domain.User
	if err := decode(env.Data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// UpdateField changes one column of the user's profile.
func (c *Client) UpdateField(ctx context.Context, phoneNumber string, field domain.UserField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	body := map[string]string{
		"phoneNumber": phoneNumber,
		"field":       string(field),
		"value":       value,
	}
	if _, err := c.do(ctx, http.MethodPut, pathUpdateInfo, body); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// ReportEmergency forwards an emergency and returns the backend ID, if any.
func (c *Client) ReportEmergency(ctx context.Context, record domain.EmergencyRecord) (string, error) {
	env, err := c.do(ctx, http.MethodPost, pathReportEmergency, record)
	if err != nil {
		return "", fmt.Errorf("failed to report emergency: %w", err)
	}
	return idOf(env.Data), nil
}

// TriggerDistress forwards a distress alert and returns the backend ID, if any.
func (c *Client) TriggerDistress(ctx context.Context, record domain.DistressRecord) (string, error) {
	env, err := c.do(ctx, http.MethodPost, pathDistress, record)
	if err != nil {
		return "", fmt.Errorf("failed to trigger distress: %w", err)
	}
	return idOf(env.Data), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", "method", method, "path", path, "err", err)
		return nil, err
	}
	defer res.Body.Close()
	c.logger.Debug("Backend response", "method", method, "path", path, "status", res.StatusCode, "duration", time.Since(start))

	var env envelope
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && res.StatusCode < 300 {
			return nil, fmt.Errorf("invalid backend response: %w", err)
		}
	}

	if res.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &APIError{Status: res.StatusCode, Message: msg}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &APIError{Status: res.StatusCode, Message: msg}
	}
	return &env, nil
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// decode maps loosely typed JSON (numeric IDs, numeric months) onto out.
func decode(data any, out any) error {
	if data == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

func idOf(data any) string {
	var ref struct {
		ID string `mapstructure:"id"`
	}
	if err := decode(data, &ref); err != nil {
		return ""
	}
	return ref.ID
}
