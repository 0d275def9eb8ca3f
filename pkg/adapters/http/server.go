// Package http exposes the USSD service and the SMS gateway webhooks over HTTP.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Canned replies for failures outside the menu engine.
const (
	replyServerError = domain.EndPrefix + "Habaye ikosa. Ongera ugerageze nyuma."
	replyNotFound    = domain.EndPrefix + "Serivisi ntabwo yabonetse."
)

// maxFormBytes bounds gateway payloads.
const maxFormBytes = 64 << 10

// RequestIDHeader carries the per-request correlation id. An incoming value
// is kept, otherwise chi generates one.
var RequestIDHeader = middleware.RequestIDHeader

// USSD answers one gateway request.
type USSD interface {
	Handle(ctx context.Context, req domain.Request) string
}

type server struct {
	ussd     USSD
	version  string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *server) { s.version = v }
}

// WithGatherer selects the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *server) { s.gatherer = g }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) { s.logger = logger }
}

// NewHandler creates the HTTP handler for the service.
func NewHandler(ussd USSD, opts ...Option) http.Handler {
	s := &server{
		ussd:     ussd,
		version:  "dev",
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, s.requestLogger, s.recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("Not found", "method", r.Method, "path", r.URL.Path)
		writeText(w, http.StatusNotFound, replyNotFound)
	})

	r.Get("/health", s.health)
	r.Post("/ussd", s.handleUSSD)
	r.Route("/sms", func(r chi.Router) {
		r.Post("/incoming", s.incomingSMS)
		r.Post("/delivery-report", s.deliveryReport)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger echoes the request id and logs the outcome.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		w.Header().Set(RequestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("HTTP request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	})
}

// recoverer turns a panic into a USSD-shaped server error.
func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeText(w, http.StatusInternalServerError, replyServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleUSSD reads the gateway form (sessionId, serviceCode, phoneNumber,
// text) and answers with a CON or END text.
func (s *server) handleUSSD(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("USSD: invalid form", "err", err)
		writeText(w, http.StatusBadRequest, replyServerError)
		return
	}

	path, err := SanitizePath(r.PostForm.Get("text"))
	if err != nil {
		s.logger.Warn("USSD: text rejected", "session_id", r.PostForm.Get("sessionId"), "err", err)
		writeText(w, http.StatusBadRequest, replyServerError)
		return
	}

	req := domain.Request{
		SessionID:   strings.TrimSpace(r.PostForm.Get("sessionId")),
		ServiceCode: r.PostForm.Get("serviceCode"),
		PhoneNumber: strings.TrimSpace(r.PostForm.Get("phoneNumber")),
		Path:        path,
	}
	if req.SessionID == "" {
		s.logger.Warn("USSD: missing session id", "phone", req.PhoneNumber)
		writeText(w, http.StatusBadRequest, replyServerError)
		return
	}

	s.logger.Debug("USSD request", "session_id", req.SessionID, "phone", req.PhoneNumber, "text", req.Path)
	writeText(w, http.StatusOK, s.ussd.Handle(r.Context(), req))
}

type healthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, healthResponse{
		Status:  "success",
		Message: "MotherLink USSD & SMS server is running",
		Version: strings.TrimSpace(s.version),
		Endpoints: map[string]string{
			"ussd":         "/ussd",
			"sms_incoming": "/sms/incoming",
			"sms_delivery": "/sms/delivery-report",
			"metrics":      "/metrics",
		},
	})
}

func (s *server) incomingSMS(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseWebhook(w, r)
	if !ok {
		return
	}
	s.logger.Info("Incoming SMS",
		"from", form.Get("from"),
		"to", form.Get("to"),
		"text", form.Get("text"),
		"date", form.Get("date"),
		"id", form.Get("id"),
	)
	writeText(w, http.StatusOK, "SMS received")
}

func (s *server) deliveryReport(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseWebhook(w, r)
	if !ok {
		return
	}
	logger := s.logger.With(
		"id", form.Get("id"),
		"status", form.Get("status"),
		"phone", form.Get("phoneNumber"),
		"network_code", form.Get("networkCode"),
	)
	if reason := form.Get("failureReason"); reason != "" {
		logger.Warn("SMS delivery failed", "reason", reason)
	} else {
		logger.Info("SMS delivery report")
	}
	writeText(w, http.StatusOK, "Delivery report received")
}

// parseWebhook accepts both form and JSON bodies, as gateways send either.
func (s *server) parseWebhook(w http.ResponseWriter, r *http.Request) (webhookValues, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	values := webhookValues{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("Webhook: invalid JSON", "path", r.URL.Path, "err", err)
			writeText(w, http.StatusBadRequest, "Invalid request body")
			return nil, false
		}
		for k, v := range body {
			if v != nil {
				values[k] = strings.TrimSpace(toString(v))
			}
		}
		return values, true
	}

	if err := r.ParseForm(); err != nil {
		s.logger.Warn("Webhook: invalid form", "path", r.URL.Path, "err", err)
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values, true
}

type webhookValues map[string]string

func (v webhookValues) Get(key string) string { return v[key] }

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
