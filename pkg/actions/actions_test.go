package actions_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/motherlink/pkg/actions"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registrationCaptures = map[string]string{
	menu.NodeRegName:         "Jane",
	menu.NodeRegID:           "1199080012345678",
	menu.NodeRegInsurance:    "RSSB",
	menu.NodeRegLocation:     "Kigali",
	menu.NodeRegPregnancy:    "3",
	menu.NodeRegHealthCenter: "Muhima",
}

func TestRegister_AddsEveryHandler(t *testing.T) {
	f := newFixture(t)
	r := registry.NewRegistry()
	f.handlers.Register(r)

	assert.NoError(t, menu.ValidateAll(f.catalogs, r))
}

func TestSwitchLanguage(t *testing.T) {
	f := newFixture(t)
	r := registry.NewRegistry()
	f.handlers.Register(r)
	ctx := context.Background()

	out, err := r.Execute(ctx, domain.Immediate(domain.ActionSwitchKinyarwanda), f.call(t, "2*6*1*2", menu.NodeLanguages, nil, "", nil))
	require.NoError(t, err)

	rw, _ := f.catalogs.For(domain.LocaleKinyarwanda)
	mainMenu, _ := rw.Node(menu.NodeMain)
	assert.Equal(t, mainMenu.Prompt, out)

	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.LocaleKinyarwanda, sess.Language)
}

func TestCompleteRegistration_Success(t *testing.T) {
	f := newFixture(t)
	trail := domain.Trail{{NodeID: menu.NodeRegistration, Token: "2"}}

	out, err := f.handlers.CompleteRegistration(context.Background(), f.call(t, "", menu.NodeRegConsent, registrationCaptures, menu.NodeRegHealthCenter, trail))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("registration.registration_complete", nil), out)

	require.Len(t, f.users.registered, 1)
	u := f.users.registered[0]
	assert.Equal(t, domain.UserKindMother, u.Kind)
	assert.Equal(t, "Jane", u.Name)
	assert.Equal(t, "Muhima", u.HealthCenter)
	assert.Equal(t, "+250788000001", u.PhoneNumber)

	_, err = f.sessions.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "session cleared")

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].message, "Jane")
}

func TestCompleteRegistration_AlreadyRegisteredKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.users.err = domain.ErrAlreadyRegistered

	out, err := f.handlers.CompleteRegistration(context.Background(), f.call(t, "", menu.NodeRegConsent, registrationCaptures, menu.NodeRegHealthCenter, nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("registration.already_registered", nil), out)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", sess.CapturedInputs[menu.NodeRegName])
	assert.Empty(t, f.notifier.sent)
}

func TestCompleteRegistration_OtherFailure(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("pq: connection reset")

	out, err := f.handlers.CompleteRegistration(context.Background(), f.call(t, "", menu.NodeRegConsent, registrationCaptures, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("registration.save_failed", nil), out)
	assert.NotContains(t, out, "pq:")
}

func TestUpdateInfo_Success(t *testing.T) {
	f := newFixture(t)
	captures := map[string]string{menu.NodeUpdateLocation: "Kigali", menu.NodeRegName: "Jane"}

	out, err := f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeUpdateLocation, captures, menu.NodeUpdateLocation, nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("update_info.update_success", nil), out)
	assert.Equal(t, "Kigali", f.users.updates[domain.FieldLocation])

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotContains(t, sess.CapturedInputs, menu.NodeUpdateLocation)
	assert.Equal(t, "Jane", sess.CapturedInputs[menu.NodeRegName])
	assert.Empty(t, sess.LastCaptureKey)
}

func TestUpdateInfo_FieldTable(t *testing.T) {
	cases := map[string]domain.UserField{
		menu.NodeUpdateLocation:  domain.FieldLocation,
		menu.NodeUpdateInsurance: domain.FieldInsurance,
		menu.NodeUpdateID:        domain.FieldNationalID,
		menu.NodeUpdateHealth:    domain.FieldHealthCenter,
		menu.NodeUpdatePregnancy: domain.FieldPregnancyMonths,
	}
	for node, field := range cases {
		t.Run(node, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handlers.UpdateInfo(context.Background(), f.call(t, "", node, map[string]string{node: "v"}, node, nil))
			require.NoError(t, err)
			assert.Equal(t, map[domain.UserField]string{field: "v"}, f.users.updates)
		})
	}
}

func TestUpdateInfo_Invalid(t *testing.T) {
	f := newFixture(t)
	invalid := "END " + f.text("responses.invalid_option", nil)

	out, err := f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeUpdateLocation, nil, "", nil))
	require.NoError(t, err)
	assert.Equal(t, invalid, out, "no last capture key")

	out, err = f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeRegName, map[string]string{menu.NodeRegName: "Jane"}, menu.NodeRegName, nil))
	require.NoError(t, err)
	assert.Equal(t, invalid, out, "key outside the table")

	out, err = f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeUpdateID, map[string]string{}, menu.NodeUpdateID, nil))
	require.NoError(t, err)
	assert.Equal(t, invalid, out, "no captured value")
	assert.Empty(t, f.users.updates)
}

func TestUpdateInfo_Failures(t *testing.T) {
	f := newFixture(t)
	captures := map[string]string{menu.NodeUpdateID: "119"}

	f.users.err = domain.ErrUserNotFound
	out, err := f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeUpdateID, captures, menu.NodeUpdateID, nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("responses.unable_to_load", map[string]any{"item": "user"}), out)

	f.users.err = errors.New("timeout")
	out, err = f.handlers.UpdateInfo(context.Background(), f.call(t, "", menu.NodeUpdateID, captures, menu.NodeUpdateID, nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("responses.unable_to_load", map[string]any{"item": "update"}), out)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "119", sess.CapturedInputs[menu.NodeUpdateID], "capture survives a failed update")
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "child", actions.CategoryFor([]string{"x", "3", "1"}).Type)
	assert.Equal(t, "pregnant", actions.CategoryFor([]string{"1", "7", "3"}).Type, "first match wins")
	assert.Equal(t, "mother", actions.CategoryFor([]string{"2", "7", "3", "bleeding"}).Type, "welcome choice is scanned first")

	def := actions.CategoryFor([]string{"7", "9"})
	assert.Equal(t, "other", def.Type)
	assert.Equal(t, "emergency.category.default", def.Key)
}

func TestReferenceID(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "ML25600123", f.handlers.ReferenceID())
}

func TestSubmitEmergency_Success(t *testing.T) {
	f := newFixture(t)
	captures := map[string]string{menu.NodeEmergencyDetails: "Heavy bleeding"}

	out, err := f.handlers.SubmitEmergency(context.Background(), f.call(t, "7*3*Heavy bleeding", menu.NodeEmergencyDetails, captures, menu.NodeEmergencyDetails, nil))
	require.NoError(t, err)

	label := f.text("emergency.category.child", nil)
	assert.Equal(t, "END "+f.text("emergency.submitted", map[string]any{"label": label, "reference": "ML25600123"}), out)

	require.Len(t, f.reporter.emergencies, 1)
	rec := f.reporter.emergencies[0]
	assert.Equal(t, "child", rec.EmergencyType)
	assert.Equal(t, "Heavy bleeding", rec.Description)
	assert.Equal(t, "Unknown", rec.Location)
	assert.Equal(t, "pending", rec.Status)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.LastEmergency)
	assert.Equal(t, "em-1", sess.LastEmergency.BackendID)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, []string{"+250788000001"}, f.notifier.sent[0].to)
	assert.Equal(t, []string{"+250788111111", "+250788222222"}, f.notifier.sent[1].to)
}

func TestSubmitEmergency_DefaultDescription(t *testing.T) {
	f := newFixture(t)

	_, err := f.handlers.SubmitEmergency(context.Background(), f.call(t, "9", menu.NodeEmergencyDetails, nil, "", nil))
	require.NoError(t, err)

	require.Len(t, f.reporter.emergencies, 1)
	assert.Equal(t, f.text("emergency.category.default", nil)+" reported", f.reporter.emergencies[0].Description)
}

func TestSubmitEmergency_FailuresStillAcknowledge(t *testing.T) {
	for name, setup := range map[string]func(*fakeReporter){
		"error": func(r *fakeReporter) { r.err = errors.New("502 bad gateway") },
		"panic": func(r *fakeReporter) { r.panics = true },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			setup(f.reporter)

			out, err := f.handlers.SubmitEmergency(context.Background(), f.call(t, "7*1*x", menu.NodeEmergencyDetails, nil, "", nil))
			require.NoError(t, err)
			assert.Equal(t, "END "+f.text("emergency.acknowledged", map[string]any{"reference": "ML25600123"}), out)
			assert.NotContains(t, out, "502")
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestConfirmDistress(t *testing.T) {
	f := newFixture(t)

	out, err := f.handlers.ConfirmDistress(context.Background(), f.call(t, "4*1", menu.NodeDistress, nil, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("distress.activated", map[string]any{"reference": "ML25600123"}), out)

	require.Len(t, f.reporter.distress, 1)
	assert.Equal(t, "Akaga gakomeye!", f.reporter.distress[0].Message)
	assert.Equal(t, "Unknown", f.reporter.distress[0].Location)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.DistressAlert)
	require.Len(t, f.notifier.sent, 1)
}

func TestConfirmDistress_FailureIsSuccessShaped(t *testing.T) {
	f := newFixture(t)
	f.reporter.err = errors.New("down")

	out, err := f.handlers.ConfirmDistress(context.Background(), f.call(t, "4*1", menu.NodeDistress, nil, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "END "+f.text("distress.activated", map[string]any{"reference": "ML25600123"}), out)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, sess.DistressAlert)
}

func TestGuidance_Topic(t *testing.T) {
	f := newFixture(t)
	f.guidance.answer = domain.Guidance{Text: "Eat beans."}
	trail := domain.Trail{{NodeID: menu.NodeMain, Token: "5"}, {NodeID: menu.NodeAIAssistance, Token: "1"}}

	out, err := f.handlers.Guidance(context.Background(), f.call(t, "", menu.NodeAIAssistance, nil, "", trail))
	require.NoError(t, err)

	assert.Equal(t, actions.TopicDiet, f.guidance.got.Topic)
	assert.Empty(t, f.guidance.got.Question)
	assert.Equal(t, domain.LocaleEnglish, f.guidance.got.Locale)
	assert.Equal(t, "END "+strings.Join([]string{
		f.text("ai_assistance.guidance_title", nil),
		"Eat beans.",
		f.text("ai_assistance.guidance_closing", nil),
	}, "\n\n"), out)
}

func TestGuidance_Question(t *testing.T) {
	f := newFixture(t)
	f.guidance.answer = domain.Guidance{Text: "Rest."}
	captures := map[string]string{menu.NodeAskQuestion: "Is fever normal?"}

	_, err := f.handlers.Guidance(context.Background(), f.call(t, "", menu.NodeAskQuestion, captures, menu.NodeAskQuestion, nil))
	require.NoError(t, err)
	assert.Equal(t, "Is fever normal?", f.guidance.got.Question)
	assert.Empty(t, f.guidance.got.Topic)
}

func TestGuidance_Failure(t *testing.T) {
	f := newFixture(t)
	f.guidance.answer = domain.Guidance{Text: "Drink water.", Fallback: true}
	f.guidance.err = errors.New("429 rate limited")

	out, err := f.handlers.Guidance(context.Background(), f.call(t, "", menu.NodeAIAssistance, nil, "", nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "END "+f.text("ai_assistance.guidance_title", nil)))
	assert.Contains(t, out, f.text("ai_assistance.guidance_unavailable", nil))
	assert.Contains(t, out, "Drink water.")
	assert.NotContains(t, out, "429")
}
