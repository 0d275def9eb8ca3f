package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/motherlink/pkg/adapters/memory"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, sessionID)
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, sessionID, sess)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestManager_SetCreatesSession(t *testing.T) {
	clock := newClock()
	m := session.NewManager(memory.NewStore(), session.WithClock(clock.Now))
	ctx := context.Background()

	s, err := m.Set(ctx, "s1", domain.SessionPatch{LastCaptureKey: domain.Ref("regStepName")})
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleKinyarwanda, s.Language)
	assert.Equal(t, "regStepName", s.LastCaptureKey)
	assert.Equal(t, clock.Now(), s.LastActivity)

	stored, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, stored)
}

func TestManager_SetShallowMerges(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := m.Set(ctx, "s1", domain.SessionPatch{
		CapturedInputs: map[string]string{"regStepName": "Jane"},
		LastCaptureKey: domain.Ref("regStepName"),
	})
	require.NoError(t, err)

	s, err := m.Set(ctx, "s1", domain.SessionPatch{Language: domain.Ref(domain.LocaleEnglish)})
	require.NoError(t, err)

	assert.Equal(t, domain.LocaleEnglish, s.Language)
	assert.Equal(t, "Jane", s.CapturedInputs["regStepName"])
	assert.Equal(t, "regStepName", s.LastCaptureKey)
}

func TestManager_SetRefreshesLastActivity(t *testing.T) {
	clock := newClock()
	m := session.NewManager(memory.NewStore(), session.WithClock(clock.Now))
	ctx := context.Background()

	first, err := m.Set(ctx, "s1", domain.SessionPatch{})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	second, err := m.Set(ctx, "s1", domain.SessionPatch{})
	require.NoError(t, err)

	assert.True(t, second.LastActivity.After(first.LastActivity))
}

func TestManager_GetMissing(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	m := session.NewManager(memory.NewStore(), session.WithDefaultLocale(domain.LocaleEnglish))
	ctx := context.Background()

	s, err := m.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleEnglish, s.Language)

	require.NoError(t, m.SetLanguage(ctx, "s1", domain.LocaleKinyarwanda))

	again, err := m.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleKinyarwanda, again.Language)
}

func TestManager_SetLanguageRejectsUnknownLocale(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	err := m.SetLanguage(context.Background(), "s1", domain.Locale("fr"))
	assert.ErrorIs(t, err, domain.ErrInvalidLocale)
}

func TestManager_Clear(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := m.Set(ctx, "s1", domain.SessionPatch{})
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx, "s1"))

	_, err = m.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_WithLockSerializes(t *testing.T) {
	m := session.NewManager(&SlowStore{Store: memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	workers := 10
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, id, func(ctx context.Context) error {
				s, err := m.LoadOrStart(ctx, id)
				if err != nil {
					return err
				}
				captured := map[string]string{"count": s.CapturedInputs["count"] + "x"}
				_, err = m.Set(ctx, id, domain.SessionPatch{CapturedInputs: captured})
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.CapturedInputs["count"], workers, "read-modify-write must not lose updates")
}

func TestManager_EvictIdleSince(t *testing.T) {
	clock := newClock()
	m := session.NewManager(memory.NewStore(), session.WithClock(clock.Now))
	ctx := context.Background()

	_, err := m.Set(ctx, "old", domain.SessionPatch{})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = m.Set(ctx, "fresh", domain.SessionPatch{})
	require.NoError(t, err)

	n, err := m.EvictIdleSince(ctx, clock.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestManager_EvictSkipsBusySessions(t *testing.T) {
	clock := newClock()
	m := session.NewManager(memory.NewStore(), session.WithClock(clock.Now))
	ctx := context.Background()

	_, err := m.Set(ctx, "busy", domain.SessionPatch{})
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	err = m.WithLock(ctx, "busy", func(ctx context.Context) error {
		n, err := m.EvictIdleSince(ctx, clock.Now().Add(-time.Hour))
		assert.Equal(t, 0, n)
		return err
	})
	require.NoError(t, err)

	_, err = m.Get(ctx, "busy")
	assert.NoError(t, err)
}
