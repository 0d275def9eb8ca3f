package actions

import (
	"context"
	"errors"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
)

// updateFields maps the node that asked for the value to the column it updates.
var updateFields = map[string]domain.UserField{
	menu.NodeUpdateLocation:  domain.FieldLocation,
	menu.NodeUpdateInsurance: domain.FieldInsurance,
	menu.NodeUpdateID:        domain.FieldNationalID,
	menu.NodeUpdateHealth:    domain.FieldHealthCenter,
	menu.NodeUpdatePregnancy: domain.FieldPregnancyMonths,
}

// UpdateInfo persists the last captured value to its column. On success only
// the consumed capture is dropped from the session.
func (h *Handlers) UpdateInfo(ctx context.Context, call registry.Call) (string, error) {
	sess := call.Session
	key := sess.LastCaptureKey

	field, ok := updateFields[key]
	if !ok {
		return h.end(call.Locale, "responses.invalid_option", nil), nil
	}
	value, ok := sess.Capture(key)
	if !ok {
		return h.end(call.Locale, "responses.invalid_option", nil), nil
	}

	logger := h.logger.With("session_id", call.Request.SessionID, "phone", call.Request.PhoneNumber, "field", field)

	_, err := safeCall(func() (struct{}, error) {
		return struct{}{}, h.users.UpdateField(ctx, call.Request.PhoneNumber, field, value)
	})
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		logger.Info("Update for unknown user")
		return h.end(call.Locale, "responses.unable_to_load", map[string]any{"item": "user"}), nil
	case err != nil:
		logger.Error("Failed to update user", "err", err)
		return h.end(call.Locale, "responses.unable_to_load", map[string]any{"item": "update"}), nil
	}

	remaining := make(map[string]string, len(sess.CapturedInputs))
	for k, v := range sess.CapturedInputs {
		if k != key {
			remaining[k] = v
		}
	}
	if _, err := h.sessions.Set(ctx, call.Request.SessionID, domain.SessionPatch{
		CapturedInputs: remaining,
		LastCaptureKey: domain.Ref(""),
	}); err != nil {
		logger.Warn("Failed to drop consumed capture", "err", err)
	}

	return h.end(call.Locale, "update_info.update_success", nil), nil
}
