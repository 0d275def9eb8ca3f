package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/ports"
	"github.com/aretw0/motherlink/pkg/registry"
)

// DefaultHandlerTimeout leaves headroom under the carrier's response deadline.
const DefaultHandlerTimeout = 4 * time.Second

// Sessions is the slice of the session store the engine writes through.
type Sessions interface {
	Set(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error)
	SetLanguage(ctx context.Context, sessionID string, locale domain.Locale) error
}

// Engine walks a choice path against the menu catalog.
// It is stateless between calls; everything it learns is written through Sessions.
type Engine struct {
	catalogs   *menu.Catalogs
	actions    *registry.Registry
	sessions   Sessions
	translator ports.Translator

	timeout time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithHandlerTimeout bounds every action handler invocation.
func WithHandlerTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine with dependencies.
func NewEngine(catalogs *menu.Catalogs, actions *registry.Registry, sessions Sessions, tr ports.Translator, opts ...EngineOption) *Engine {
	e := &Engine{
		catalogs:   catalogs,
		actions:    actions,
		sessions:   sessions,
		translator: tr,
		timeout:    DefaultHandlerTimeout,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve consumes every token of req's path starting at the root node and
// returns the response text, always prefixed with CON or END.
//
// sess must be the current stored session for req.SessionID. Callers are
// expected to serialize Resolve per session.
//
// Store failures and panics outside handlers end the request with the
// generic failure text in the locale reached so far.
func (e *Engine) Resolve(ctx context.Context, req domain.Request, sess *domain.Session) (out string) {
	locale := domain.DefaultLocale
	logger := e.logger.With("session_id", req.SessionID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Traversal panicked", "panic", r, "path", req.Path)
			out = e.fail(ctx, req, locale)
		}
	}()

	if sess.Language.Valid() {
		locale = sess.Language
	}

	catalog, err := e.catalogs.For(locale)
	if err != nil {
		logger.Error("No catalog for session locale", "locale", locale, "err", err)
		return e.fail(ctx, req, locale)
	}

	node := catalog.Root()
	tokens := req.Tokens()
	if len(tokens) == 0 {
		return e.reply(ctx, req, domain.OutcomeScreen, node.Prompt)
	}

	var trail domain.Trail
	for i, token := range tokens {
		next, ok := node.Next(token)
		if !ok {
			logger.Debug("Unmatched choice", "node_id", node.ID, "token", token)
			return e.invalid(ctx, req, locale)
		}

		trail = append(trail, domain.Step{NodeID: node.ID, Token: token})
		e.emitStep(ctx, req.SessionID, node.ID, next)

		if node.AcceptsFreeText {
			sess, err = e.capture(ctx, sess, node.CaptureKey(), token)
			if err != nil {
				logger.Error("Failed to persist captured input", "node_id", node.ID, "err", err)
				return e.fail(ctx, req, locale)
			}
		}

		switch next.Kind {
		case domain.SuccessorImmediate, domain.SuccessorTerminal:
			call := registry.Call{
				Request: req,
				Session: sess,
				Locale:  locale,
				NodeID:  node.ID,
				Trail:   trail,
			}
			return e.dispatch(ctx, next, call)

		case domain.SuccessorMenu:
			if next.Locale != "" && next.Locale != locale {
				if err := e.sessions.SetLanguage(ctx, req.SessionID, next.Locale); err != nil {
					logger.Error("Failed to switch language", "locale", next.Locale, "err", err)
					return e.fail(ctx, req, locale)
				}
				sess = sess.Clone()
				sess.Language = next.Locale
				locale = next.Locale

				if catalog, err = e.catalogs.For(locale); err != nil {
					logger.Error("No catalog for selected locale", "locale", locale, "err", err)
					return e.fail(ctx, req, locale)
				}
			}

			target, ok := catalog.Node(next.Target)
			if !ok {
				// Unreachable with a validated catalog.
				logger.Error("Dangling menu reference", "node_id", node.ID, "target", next.Target)
				return e.invalid(ctx, req, locale)
			}
			node = target

			if i == len(tokens)-1 {
				return e.reply(ctx, req, domain.OutcomeScreen, node.Prompt)
			}

		default:
			logger.Error("Invalid successor", "node_id", node.ID, "token", token)
			return e.invalid(ctx, req, locale)
		}
	}

	return e.invalid(ctx, req, locale)
}

// capture records token under key and makes it the last captured key.
// The write completes before the next token is considered.
func (e *Engine) capture(ctx context.Context, sess *domain.Session, key, token string) (*domain.Session, error) {
	captured := make(map[string]string, len(sess.CapturedInputs)+1)
	maps.Copy(captured, sess.CapturedInputs)
	captured[key] = token

	return e.sessions.Set(ctx, sess.ID, domain.SessionPatch{
		CapturedInputs: captured,
		LastCaptureKey: &key,
	})
}

// dispatch runs an action handler under the handler timeout. Errors and
// panics become the generic localized failure; details only reach the log.
func (e *Engine) dispatch(ctx context.Context, next domain.Successor, call registry.Call) (out string) {
	logger := e.logger.With("session_id", call.Request.SessionID, "handler", next.Target)

	hctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.now()
	e.emitAction(ctx, call.Request.SessionID, next)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Action handler panicked", "panic", r)
			e.emitActionReturn(ctx, call.Request.SessionID, next, e.now().Sub(start), true)
			out = e.fail(ctx, call.Request, call.Locale)
		}
	}()

	out, err := e.actions.Execute(hctx, next, call)
	e.emitActionReturn(ctx, call.Request.SessionID, next, e.now().Sub(start), err != nil)
	if errors.Is(err, domain.ErrActionNotFound) {
		logger.Error("Action not registered", "err", err)
		return e.fail(ctx, call.Request, call.Locale)
	}
	if err != nil {
		logger.Error("Action handler failed", "err", err)
		return e.fail(ctx, call.Request, call.Locale)
	}

	return e.reply(ctx, call.Request, domain.OutcomeAction, out)
}

func (e *Engine) invalid(ctx context.Context, req domain.Request, locale domain.Locale) string {
	msg := domain.EndPrefix + e.translator.Translate("responses.invalid_option", nil, locale)
	return e.reply(ctx, req, domain.OutcomeInvalid, msg)
}

func (e *Engine) fail(ctx context.Context, req domain.Request, locale domain.Locale) string {
	msg := domain.EndPrefix + e.translator.Translate("responses.failure", nil, locale)
	return e.reply(ctx, req, domain.OutcomeFailure, msg)
}

func (e *Engine) reply(ctx context.Context, req domain.Request, outcome, text string) string {
	e.emitReply(ctx, req.SessionID, outcome)
	return text
}

// String describes the engine for debug logs.
func (e *Engine) String() string {
	imm, term := e.actions.Names()
	return fmt.Sprintf("engine(locales=%d immediate=%v terminal=%v timeout=%s)", len(e.catalogs.All()), imm, term, e.timeout)
}
