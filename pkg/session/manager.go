package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access on top of a ports.SessionStore.
// It uses Reference Counting to garbage collect unused locks.
//
// Individual operations do not lock. One request for a session runs inside
// WithLock, and every read-modify-write it performs happens under that lock.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker        ports.DistributedLocker // Optional distributed locker
	lockTTL       time.Duration
	defaultLocale domain.Locale
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithDefaultLocale sets the language of synthesized sessions.
func WithDefaultLocale(locale domain.Locale) Option {
	return func(m *Manager) {
		m.defaultLocale = locale
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		locks:         make(map[string]*lockEntry),
		lockTTL:       30 * time.Second,
		defaultLocale: domain.DefaultLocale,
		now:           time.Now,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultLocale is the language new sessions start in.
func (m *Manager) DefaultLocale() domain.Locale {
	return m.defaultLocale
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Get returns the stored session or domain.ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.store.Load(ctx, sessionID)
}

// LoadOrStart loads a session, synthesizing and persisting a default one if absent.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	s = domain.NewSession(sessionID, m.defaultLocale)
	s.LastActivity = m.now()

	// Persist immediately so the first write establishes the locale.
	if err := m.store.Save(ctx, sessionID, s); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return s, nil
}

// Set shallow-merges patch into the stored session (creating it if needed),
// refreshes LastActivity and returns the merged value.
func (m *Manager) Set(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		s = domain.NewSession(sessionID, m.defaultLocale)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s.Apply(patch)
	s.LastActivity = m.now()

	if err := m.store.Save(ctx, sessionID, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// SetLanguage switches the session locale.
func (m *Manager) SetLanguage(ctx context.Context, sessionID string, locale domain.Locale) error {
	if !locale.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidLocale, locale)
	}
	_, err := m.Set(ctx, sessionID, domain.SessionPatch{Language: &locale})
	return err
}

// Clear removes the session from the store.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

// EvictIdleSince deletes every session whose LastActivity is before threshold.
// Sessions currently held by WithLock are skipped; they are active by definition.
func (m *Manager) EvictIdleSince(ctx context.Context, threshold time.Time) (int, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	evicted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}

		entry := m.acquire(id)
		if !entry.mu.TryLock() {
			m.release(id)
			continue
		}

		removed, err := m.evictOne(ctx, id, threshold)

		entry.mu.Unlock()
		m.release(id)

		if err != nil {
			m.logger.Warn("Failed to evict session", "session_id", id, "err", err)
			continue
		}
		if removed {
			evicted++
		}
	}
	return evicted, nil
}

func (m *Manager) evictOne(ctx context.Context, id string, threshold time.Time) (bool, error) {
	s, err := m.store.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !s.LastActivity.Before(threshold) {
		return false, nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
