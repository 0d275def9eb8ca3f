// Package actions implements the handlers the menu catalog dispatches to:
// language switches, registration, info updates, emergency and distress
// reporting, and health guidance.
//
// Handlers never return downstream error text to the user. Each one owns its
// fallback message and logs the underlying cause.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/ports"
	"github.com/aretw0/motherlink/pkg/registry"
)

// Sessions is the part of the session store handlers write through.
type Sessions interface {
	Set(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error)
	SetLanguage(ctx context.Context, sessionID string, locale domain.Locale) error
	Clear(ctx context.Context, sessionID string) error
}

// Handlers bundles the collaborators every action needs.
type Handlers struct {
	sessions Sessions
	catalogs *menu.Catalogs
	tr       ports.Translator

	users       ports.UserRegistry
	emergencies ports.EmergencyReporter
	notifier    ports.Notifier
	guidance    ports.GuidanceProvider

	rescueTeam []string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithUsers sets the user registry.
func WithUsers(users ports.UserRegistry) Option {
	return func(h *Handlers) { h.users = users }
}

// WithEmergencies sets the emergency and distress reporter.
func WithEmergencies(r ports.EmergencyReporter) Option {
	return func(h *Handlers) { h.emergencies = r }
}

// WithNotifier sets the outbound SMS channel. Without one no SMS is sent.
func WithNotifier(n ports.Notifier) Option {
	return func(h *Handlers) { h.notifier = n }
}

// WithGuidance sets the guidance provider.
func WithGuidance(g ports.GuidanceProvider) Option {
	return func(h *Handlers) { h.guidance = g }
}

// WithRescueTeam sets the phone numbers notified of every emergency.
func WithRescueTeam(numbers ...string) Option {
	return func(h *Handlers) { h.rescueTeam = append([]string(nil), numbers...) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) { h.logger = logger }
}

// WithClock overrides time.Now. Reference IDs derive from it.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// New creates the handler set.
func New(sessions Sessions, catalogs *menu.Catalogs, tr ports.Translator, opts ...Option) *Handlers {
	h := &Handlers{
		sessions: sessions,
		catalogs: catalogs,
		tr:       tr,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds every handler to r under the IDs the catalog references.
func (h *Handlers) Register(r *registry.Registry) {
	r.RegisterImmediate(domain.ActionSwitchKinyarwanda, h.switchLanguage(domain.LocaleKinyarwanda))
	r.RegisterImmediate(domain.ActionSwitchEnglish, h.switchLanguage(domain.LocaleEnglish))

	r.RegisterTerminal(domain.ActionRegistrationComplete, h.CompleteRegistration)
	r.RegisterTerminal(domain.ActionUpdateInfo, h.UpdateInfo)
	r.RegisterTerminal(domain.ActionSubmitEmergency, h.SubmitEmergency)
	r.RegisterTerminal(domain.ActionConfirmDistress, h.ConfirmDistress)
	r.RegisterTerminal(domain.ActionAIGuidance, h.Guidance)
}

func (h *Handlers) end(locale domain.Locale, key string, vars map[string]any) string {
	return domain.EndPrefix + h.tr.Translate(key, vars, locale)
}

func (h *Handlers) t(locale domain.Locale, key string, vars map[string]any) string {
	return h.tr.Translate(key, vars, locale)
}

// notify sends one SMS. Failures are logged only.
func (h *Handlers) notify(ctx context.Context, to, message string) {
	if h.notifier == nil || to == "" {
		return
	}
	if _, err := safeCall(func() (domain.Delivery, error) { return h.notifier.Send(ctx, to, message) }); err != nil {
		h.logger.Warn("Failed to send SMS", "phone", to, "err", err)
	}
}

func (h *Handlers) notifyMany(ctx context.Context, to []string, message string) {
	if h.notifier == nil || len(to) == 0 {
		return
	}
	if _, err := safeCall(func() (domain.Delivery, error) { return h.notifier.SendBulk(ctx, to, message) }); err != nil {
		h.logger.Warn("Failed to send bulk SMS", "recipients", len(to), "err", err)
	}
}

// safeCall turns a panicking collaborator into an error.
func safeCall[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collaborator panicked: %v", r)
		}
	}()
	return fn()
}
