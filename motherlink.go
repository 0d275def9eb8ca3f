package motherlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/internal/runtime"
	"github.com/aretw0/motherlink/pkg/actions"
	"github.com/aretw0/motherlink/pkg/adapters/memory"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/i18n"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/ports"
	"github.com/aretw0/motherlink/pkg/registry"
	"github.com/aretw0/motherlink/pkg/session"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Service is the entry point: it maps a carrier request to a reply.
type Service struct {
	store      ports.SessionStore
	locker     ports.DistributedLocker
	translator ports.Translator

	users       ports.UserRegistry
	emergencies ports.EmergencyReporter
	notifier    ports.Notifier
	guidance    ports.GuidanceProvider
	rescueTeam  []string

	hooks          domain.LifecycleHooks
	onEvict        func(n int)
	logger         *slog.Logger
	handlerTimeout time.Duration
	idleTimeout    time.Duration
	defaultLocale  domain.Locale
	now            func() time.Time

	catalogs *menu.Catalogs
	actions  *registry.Registry
	sessions *session.Manager
	engine   *runtime.Engine
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets the session store. Defaults to in-memory.
func WithStore(store ports.SessionStore) Option {
	return func(s *Service) { s.store = store }
}

// WithLocker serializes requests for one session across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithTranslator replaces the embedded message bundles.
func WithTranslator(tr ports.Translator) Option {
	return func(s *Service) { s.translator = tr }
}

// WithUsers sets the user registry used by registration and updates.
func WithUsers(users ports.UserRegistry) Option {
	return func(s *Service) { s.users = users }
}

// WithEmergencies sets the emergency and distress reporter.
func WithEmergencies(r ports.EmergencyReporter) Option {
	return func(s *Service) { s.emergencies = r }
}

// WithNotifier sets the outbound SMS channel.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithGuidance sets the health guidance provider.
func WithGuidance(g ports.GuidanceProvider) Option {
	return func(s *Service) { s.guidance = g }
}

// WithRescueTeam sets the numbers alerted on every emergency.
func WithRescueTeam(numbers ...string) Option {
	return func(s *Service) { s.rescueTeam = numbers }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) { s.hooks = hooks }
}

// WithEvictionCallback is told how many sessions each sweep removed.
func WithEvictionCallback(fn func(n int)) Option {
	return func(s *Service) { s.onEvict = fn }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithHandlerTimeout bounds each action handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(s *Service) { s.handlerTimeout = d }
}

// WithIdleTimeout sets how long an untouched session survives.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) { s.idleTimeout = d }
}

// WithDefaultLocale sets the language of new sessions.
func WithDefaultLocale(l domain.Locale) Option {
	return func(s *Service) { s.defaultLocale = l }
}

// WithClock overrides time.Now across the service.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires the catalog, handlers, session manager and engine.
// It fails fast on a catalog with dangling references.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		handlerTimeout: runtime.DefaultHandlerTimeout,
		idleTimeout:    session.DefaultIdleTimeout,
		defaultLocale:  domain.DefaultLocale,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if !s.defaultLocale.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLocale, s.defaultLocale)
	}
	if s.translator == nil {
		tr, err := i18n.New(i18n.WithFallback(s.defaultLocale))
		if err != nil {
			return nil, fmt.Errorf("failed to load translations: %w", err)
		}
		s.translator = tr
	}

	var missing []error
	if s.users == nil {
		missing = append(missing, errors.New("user registry is required"))
	}
	if s.emergencies == nil {
		missing = append(missing, errors.New("emergency reporter is required"))
	}
	if s.notifier == nil {
		missing = append(missing, errors.New("notifier is required"))
	}
	if s.guidance == nil {
		missing = append(missing, errors.New("guidance provider is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	catalogs, err := menu.DefineAll(s.translator)
	if err != nil {
		return nil, err
	}
	s.catalogs = catalogs

	managerOpts := []session.Option{
		session.WithLogger(s.logger),
		session.WithClock(s.now),
		session.WithDefaultLocale(s.defaultLocale),
	}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, managerOpts...)

	s.actions = registry.NewRegistry()
	actions.New(s.sessions, catalogs, s.translator,
		actions.WithUsers(s.users),
		actions.WithEmergencies(s.emergencies),
		actions.WithNotifier(s.notifier),
		actions.WithGuidance(s.guidance),
		actions.WithRescueTeam(s.rescueTeam...),
		actions.WithLogger(s.logger),
		actions.WithClock(s.now),
	).Register(s.actions)

	if err := menu.ValidateAll(catalogs, s.actions); err != nil {
		return nil, fmt.Errorf("invalid menu catalog: %w", err)
	}

	s.engine = runtime.NewEngine(catalogs, s.actions, s.sessions, s.translator,
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithHandlerTimeout(s.handlerTimeout),
		runtime.WithClock(s.now),
	)
	s.logger.Debug("Service ready", "engine", s.engine.String())

	return s, nil
}

// Handle answers one carrier request. It never fails: every problem is
// logged and turned into a localized END message.
func (s *Service) Handle(ctx context.Context, req domain.Request) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Request panicked", "session_id", req.SessionID, "panic", r)
			reply = s.failure()
		}
	}()

	if req.SessionID == "" {
		s.logger.Warn("Request without session id", "phone", req.PhoneNumber)
		return s.failure()
	}

	err := s.sessions.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
		sess, err := s.sessions.LoadOrStart(ctx, req.SessionID)
		if err != nil {
			return err
		}
		reply = s.engine.Resolve(ctx, req, sess)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to handle request", "session_id", req.SessionID, "err", err)
		return s.failure()
	}
	return reply
}

func (s *Service) failure() string {
	return domain.EndPrefix + s.translator.Translate("responses.failure", nil, s.defaultLocale)
}

// Sweeper builds the idle-session sweeper for this service.
func (s *Service) Sweeper() *session.Sweeper {
	opts := []session.SweeperOption{
		session.WithSweepLogger(s.logger),
		session.WithSweepClock(s.now),
	}
	if s.onEvict != nil {
		opts = append(opts, session.WithEvictCallback(s.onEvict))
	}
	return session.NewSweeper(s.sessions, s.idleTimeout, opts...)
}

// StartSweeper evicts idle sessions in the background until ctx is done.
// The returned channel closes once the sweeper has stopped.
func (s *Service) StartSweeper(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	sw := s.Sweeper()
	go func() {
		defer close(done)
		_ = sw.Run(ctx)
	}()
	return done
}

// Sessions exposes the session manager.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// Catalogs exposes the validated menu catalogs.
func (s *Service) Catalogs() *menu.Catalogs {
	return s.catalogs
}

// Actions exposes the action registry.
func (s *Service) Actions() *registry.Registry {
	return s.actions
}

// Translator exposes the message catalog in use.
func (s *Service) Translator() ports.Translator {
	return s.translator
}
