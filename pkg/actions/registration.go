package actions

import (
	"context"
	"errors"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
)

// CompleteRegistration submits the captured registration steps.
// The flow (pregnant or mother) is the token chosen at the registration menu.
func (h *Handlers) CompleteRegistration(ctx context.Context, call registry.Call) (string, error) {
	sess := call.Session
	capture := func(key string) string {
		v, _ := sess.Capture(key)
		return v
	}

	kind := domain.UserKindPregnant
	if tok, _ := call.Trail.TokenAt(menu.NodeRegistration); tok == "2" {
		kind = domain.UserKindMother
	}

	user := domain.User{
		Kind:            kind,
		Name:            capture(menu.NodeRegName),
		NationalID:      capture(menu.NodeRegID),
		Insurance:       capture(menu.NodeRegInsurance),
		Location:        capture(menu.NodeRegLocation),
		PregnancyMonths: capture(menu.NodeRegPregnancy),
		HealthCenter:    capture(menu.NodeRegHealthCenter),
		PhoneNumber:     call.Request.PhoneNumber,
	}

	logger := h.logger.With("session_id", call.Request.SessionID, "phone", user.PhoneNumber, "kind", kind)

	_, err := safeCall(func() (*domain.User, error) { return h.users.Register(ctx, kind, user) })
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		logger.Info("User already registered")
		return h.end(call.Locale, "registration.already_registered", nil), nil
	case err != nil:
		logger.Error("Failed to save registration", "err", err)
		return h.end(call.Locale, "registration.save_failed", nil), nil
	}

	logger.Info("User registered")

	if err := h.sessions.Clear(ctx, call.Request.SessionID); err != nil {
		logger.Warn("Failed to clear session after registration", "err", err)
	}

	name := user.Name
	if name == "" {
		name = "User"
	}
	h.notify(ctx, user.PhoneNumber, h.t(call.Locale, "sms.welcome", map[string]any{"name": name}))

	return h.end(call.Locale, "registration.registration_complete", nil), nil
}
