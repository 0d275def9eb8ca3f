package motherlink_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/motherlink"
	"github.com/aretw0/motherlink/pkg/adapters/memory"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (s *stubUsers) Register(ctx context.Context, kind domain.UserKind, u domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.User)
	}
	if _, ok := s.users[u.PhoneNumber]; ok {
		return nil, domain.ErrAlreadyRegistered
	}
	u.Kind = kind
	s.users[u.PhoneNumber] = u
	return &u, nil
}

func (s *stubUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *stubUsers) UpdateField(ctx context.Context, phone string, field domain.UserField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return domain.ErrUserNotFound
	}
	if field == domain.FieldLocation {
		u.Location = value
	}
	s.users[phone] = u
	return nil
}

type stubReporter struct{}

func (stubReporter) ReportEmergency(ctx context.Context, r domain.EmergencyRecord) (string, error) {
	return "1", nil
}

func (stubReporter) TriggerDistress(ctx context.Context, r domain.DistressRecord) (string, error) {
	return "2", nil
}

type stubNotifier struct{}

func (stubNotifier) Send(ctx context.Context, to, message string) (domain.Delivery, error) {
	return domain.Delivery{}, nil
}

func (stubNotifier) SendBulk(ctx context.Context, to []string, message string) (domain.Delivery, error) {
	return domain.Delivery{}, nil
}

type stubGuidance struct{}

func (stubGuidance) Guidance(ctx context.Context, req domain.GuidanceRequest) (domain.Guidance, error) {
	return domain.Guidance{Text: "Rest well."}, nil
}

func newService(t *testing.T, opts ...motherlink.Option) (*motherlink.Service, *stubUsers) {
	t.Helper()
	users := &stubUsers{}
	base := []motherlink.Option{
		motherlink.WithUsers(users),
		motherlink.WithEmergencies(stubReporter{}),
		motherlink.WithNotifier(stubNotifier{}),
		motherlink.WithGuidance(stubGuidance{}),
	}
	svc, err := motherlink.New(append(base, opts...)...)
	require.NoError(t, err)
	return svc, users
}

func request(id, path string) domain.Request {
	return domain.Request{SessionID: id, ServiceCode: "*662*800#", PhoneNumber: "+250788000001", Path: path}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := motherlink.New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user registry is required")
	assert.Contains(t, err.Error(), "guidance provider is required")
}

func TestNew_RejectsUnknownDefaultLocale(t *testing.T) {
	_, err := motherlink.New(motherlink.WithDefaultLocale("fr"))
	assert.ErrorIs(t, err, domain.ErrInvalidLocale)
}

func TestHandle_FirstRequestCreatesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	out := svc.Handle(ctx, request("s1", ""))
	assert.True(t, strings.HasPrefix(out, "CON "))
	assert.Contains(t, out, "1. Kinyarwanda")
	assert.Contains(t, out, "2. English")

	sess, err := svc.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleKinyarwanda, sess.Language)
	assert.Empty(t, sess.CapturedInputs)
}

func TestHandle_RegistrationRoundTrips(t *testing.T) {
	svc, users := newService(t)
	ctx := context.Background()

	// Each carrier round trip resends the whole path.
	steps := []string{"2", "1", "1", "Jane", "1199", "RSSB", "Kigali", "3", "Muhima"}
	path := ""
	for _, step := range steps {
		if path == "" {
			path = step
		} else {
			path += "*" + step
		}
		out := svc.Handle(ctx, request("s1", path))
		require.True(t, strings.HasPrefix(out, "CON "), "path %q -> %q", path, out)
	}

	out := svc.Handle(ctx, request("s1", path+"*1"))
	assert.Equal(t, "END Thank you! Your registration was successful.", out)
	assert.Equal(t, "Jane", users.users["+250788000001"].Name)
	assert.Equal(t, domain.UserKindPregnant, users.users["+250788000001"].Kind)

	_, err := svc.Sessions().Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Same phone on a new session hits the uniqueness conflict.
	out = svc.Handle(ctx, request("s2", path+"*1"))
	assert.Equal(t, "END You are already registered. Thank you!", out)
	sess, err := svc.Sessions().Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "Jane", sess.CapturedInputs["regStepName"])
}

func TestHandle_UpdateLocation(t *testing.T) {
	svc, users := newService(t)
	ctx := context.Background()
	users.users = map[string]domain.User{"+250788000001": {Name: "Jane", PhoneNumber: "+250788000001"}}

	out := svc.Handle(ctx, request("s1", "2*2*1*Kigali"))
	assert.Equal(t, "END Your information was updated. Thank you!", out)
	assert.Equal(t, "Kigali", users.users["+250788000001"].Location)

	sess, err := svc.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, sess.CapturedInputs, "updateLocation")
}

func TestHandle_InvalidOption(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, "END Invalid option. Please try again.", svc.Handle(context.Background(), request("s1", "2*1*9")))
}

func TestHandle_MissingSessionID(t *testing.T) {
	svc, _ := newService(t)
	out := svc.Handle(context.Background(), request("", ""))
	tr := i18n.MustNew()
	assert.Equal(t, "END "+tr.Translate("responses.failure", nil, domain.LocaleKinyarwanda), out)
}

func TestHandle_ConcurrentSessions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			out := svc.Handle(ctx, request(id, "2*1*1*Name"+id))
			assert.True(t, strings.HasPrefix(out, "CON "))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("s%d", i)
		sess, err := svc.Sessions().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Name"+id, sess.CapturedInputs["regStepName"])
	}
}

func TestSweeper_EvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	var evicted int
	svc, _ := newService(t,
		motherlink.WithStore(memory.NewStore()),
		motherlink.WithClock(clock),
		motherlink.WithIdleTimeout(time.Hour),
		motherlink.WithEvictionCallback(func(n int) { evicted += n }),
	)
	ctx := context.Background()

	svc.Handle(ctx, request("s1", ""))
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	n, err := svc.Sweeper().Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, evicted)

	n, err = svc.Sweeper().Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartSweeper_StopsWithContext(t *testing.T) {
	svc, _ := newService(t, motherlink.WithIdleTimeout(40*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := svc.StartSweeper(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper still running")
	}
}

// explodingStore panics on Save once any input has been captured.
type explodingStore struct {
	*memory.Store
	onLoad bool
}

func (s *explodingStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	if len(sess.CapturedInputs) > 0 {
		panic("store blew up")
	}
	return s.Store.Save(ctx, id, sess)
}

func (s *explodingStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	if s.onLoad {
		panic("load blew up")
	}
	return s.Store.Load(ctx, id)
}

func TestHandle_StorePanicDuringCaptureBecomesFailureText(t *testing.T) {
	svc, _ := newService(t, motherlink.WithStore(&explodingStore{Store: memory.NewStore()}))
	tr := i18n.MustNew()

	var out string
	require.NotPanics(t, func() { out = svc.Handle(context.Background(), request("s1", "1*1*2*Jane")) })
	assert.Equal(t, "END "+tr.Translate("responses.failure", nil, domain.LocaleKinyarwanda), out)

	// The lock was released: the next request for the session is served.
	out = svc.Handle(context.Background(), request("s1", "1*1"))
	assert.True(t, strings.HasPrefix(out, "CON "), out)
}

func TestHandle_StorePanicOnLoadBecomesFailureText(t *testing.T) {
	svc, _ := newService(t, motherlink.WithStore(&explodingStore{Store: memory.NewStore(), onLoad: true}))
	tr := i18n.MustNew()

	var out string
	require.NotPanics(t, func() { out = svc.Handle(context.Background(), request("s1", "")) })
	assert.Equal(t, "END "+tr.Translate("responses.failure", nil, domain.LocaleKinyarwanda), out)
}
