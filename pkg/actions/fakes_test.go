package actions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/motherlink/pkg/actions"
	"github.com/aretw0/motherlink/pkg/adapters/memory"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/i18n"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
	"github.com/aretw0/motherlink/pkg/session"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	mu         sync.Mutex
	registered []domain.User
	updates    map[domain.UserField]string
	err        error
}

func (f *fakeUsers) Register(ctx context.Context, kind domain.UserKind, u domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u.Kind = kind
	f.registered = append(f.registered, u)
	return &u, nil
}

func (f *fakeUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) UpdateField(ctx context.Context, phone string, field domain.UserField, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[domain.UserField]string)
	}
	f.updates[field] = value
	return nil
}

type fakeReporter struct {
	mu          sync.Mutex
	emergencies []domain.EmergencyRecord
	distress    []domain.DistressRecord
	err         error
	panics      bool
}

func (f *fakeReporter) ReportEmergency(ctx context.Context, r domain.EmergencyRecord) (string, error) {
	if f.panics {
		panic("reporter exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emergencies = append(f.emergencies, r)
	return "em-1", f.err
}

func (f *fakeReporter) TriggerDistress(ctx context.Context, r domain.DistressRecord) (string, error) {
	if f.panics {
		panic("reporter exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distress = append(f.distress, r)
	return "ds-1", f.err
}

type sms struct {
	to      []string
	message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sms
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, to, message string) (domain.Delivery, error) {
	return f.SendBulk(ctx, []string{to}, message)
}

func (f *fakeNotifier) SendBulk(ctx context.Context, to []string, message string) (domain.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sms{to: to, message: message})
	return domain.Delivery{MessageID: "m1"}, f.err
}

type fakeGuidance struct {
	got    domain.GuidanceRequest
	answer domain.Guidance
	err    error
}

func (f *fakeGuidance) Guidance(ctx context.Context, req domain.GuidanceRequest) (domain.Guidance, error) {
	f.got = req
	return f.answer, f.err
}

type fixture struct {
	handlers *actions.Handlers
	sessions *session.Manager
	tr       *i18n.Translator
	catalogs *menu.Catalogs
	users    *fakeUsers
	reporter *fakeReporter
	notifier *fakeNotifier
	guidance *fakeGuidance
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := i18n.MustNew()
	catalogs, err := menu.DefineAll(tr)
	require.NoError(t, err)

	f := &fixture{
		sessions: session.NewManager(memory.NewStore()),
		tr:       tr,
		catalogs: catalogs,
		users:    &fakeUsers{},
		reporter: &fakeReporter{},
		notifier: &fakeNotifier{},
		guidance: &fakeGuidance{},
		now:      time.UnixMilli(1767225600123),
	}
	f.handlers = actions.New(f.sessions, catalogs, tr,
		actions.WithUsers(f.users),
		actions.WithEmergencies(f.reporter),
		actions.WithNotifier(f.notifier),
		actions.WithGuidance(f.guidance),
		actions.WithRescueTeam("+250788111111", "+250788222222"),
		actions.WithClock(func() time.Time { return f.now }),
	)
	return f
}

// call builds a handler call after persisting captures into the session.
func (f *fixture) call(t *testing.T, path, nodeID string, captures map[string]string, lastKey string, trail domain.Trail) registry.Call {
	t.Helper()
	ctx := context.Background()
	patch := domain.SessionPatch{CapturedInputs: captures}
	if lastKey != "" {
		patch.LastCaptureKey = &lastKey
	}
	sess, err := f.sessions.Set(ctx, "s1", patch)
	require.NoError(t, err)

	return registry.Call{
		Request: domain.Request{SessionID: "s1", PhoneNumber: "+250788000001", Path: path},
		Session: sess,
		Locale:  domain.LocaleEnglish,
		NodeID:  nodeID,
		Trail:   trail,
	}
}

func (f *fixture) text(key string, vars map[string]any) string {
	return f.tr.Translate(key, vars, domain.LocaleEnglish)
}
