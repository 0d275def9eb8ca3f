package actions

import (
	"context"
	"strconv"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
)

const (
	referencePrefix  = "ML"
	referenceDigits  = 8
	unknownLocation  = "Unknown"
	statusPending    = "pending"
	distressMessage  = "Akaga gakomeye!"
	defaultEmergency = "other"
)

// Category is an emergency type with its translation key.
type Category struct {
	Type string
	Key  string
}

// categories are matched against path tokens.
var categories = map[string]Category{
	"1": {Type: "pregnant", Key: "emergency.category.pregnant"},
	"2": {Type: "mother", Key: "emergency.category.mother"},
	"3": {Type: "child", Key: "emergency.category.child"},
	"4": {Type: "other", Key: "emergency.category.other"},
}

// CategoryFor scans tokens left to right and returns the first category code found.
// Every token of the path is considered, including those taken at earlier menus.
// Full paths start with the welcome language choice (1 or 2), so a submission
// from the menu is always reported as pregnant or mother, whatever category
// the user picked. For example "2*7*3*bleeding" is reported as mother.
func CategoryFor(tokens []string) Category {
	for _, tok := range tokens {
		if c, ok := categories[tok]; ok {
			return c
		}
	}
	return Category{Type: defaultEmergency, Key: "emergency.category.default"}
}

// ReferenceID is "ML" followed by the last eight digits of the Unix millisecond clock.
func (h *Handlers) ReferenceID() string {
	ms := strconv.FormatInt(h.now().UnixMilli(), 10)
	if len(ms) > referenceDigits {
		ms = ms[len(ms)-referenceDigits:]
	}
	return referencePrefix + ms
}

// SubmitEmergency reports an emergency. The user always gets an
// acknowledgement carrying a reference, whatever the backend did.
func (h *Handlers) SubmitEmergency(ctx context.Context, call registry.Call) (out string, err error) {
	logger := h.logger.With("session_id", call.Request.SessionID, "phone", call.Request.PhoneNumber)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Emergency submission panicked", "panic", r)
			out, err = h.acknowledgeEmergency(call.Locale), nil
		}
	}()

	ref := h.ReferenceID()
	category := CategoryFor(call.Request.Tokens())
	label := h.t(call.Locale, category.Key, nil)

	description, ok := call.Session.Capture(menu.NodeEmergencyDetails)
	if !ok {
		description = label + " reported"
	}

	record := domain.EmergencyRecord{
		ReferenceID:   ref,
		PhoneNumber:   call.Request.PhoneNumber,
		EmergencyType: category.Type,
		Description:   description,
		Location:      unknownLocation,
		Status:        statusPending,
		ReportedAt:    h.now().UTC(),
	}

	backendID, err := safeCall(func() (string, error) { return h.emergencies.ReportEmergency(ctx, record) })
	if err != nil {
		logger.Error("Failed to report emergency", "reference", ref, "err", err)
		return h.acknowledgeEmergency(call.Locale), nil
	}

	logger.Info("Emergency reported", "reference", ref, "type", category.Type, "backend_id", backendID)

	if _, err := h.sessions.Set(ctx, call.Request.SessionID, domain.SessionPatch{
		LastEmergency: &domain.EmergencySummary{
			ReferenceID: ref,
			Type:        category.Type,
			PhoneNumber: call.Request.PhoneNumber,
			BackendID:   backendID,
		},
	}); err != nil {
		logger.Warn("Failed to remember emergency", "err", err)
	}

	h.notify(ctx, call.Request.PhoneNumber, h.t(call.Locale, "sms.emergency_confirmation", map[string]any{
		"type":      label,
		"reference": ref,
	}))
	h.notifyMany(ctx, h.rescueTeam, h.t(call.Locale, "sms.rescue_dispatch", map[string]any{
		"type":     label,
		"location": record.Location,
		"phone":    record.PhoneNumber,
	}))

	return h.end(call.Locale, "emergency.submitted", map[string]any{"label": label, "reference": ref}), nil
}

func (h *Handlers) acknowledgeEmergency(locale domain.Locale) string {
	return h.end(locale, "emergency.acknowledged", map[string]any{"reference": h.ReferenceID()})
}

// ConfirmDistress triggers a distress alert. Like emergencies, the reply is
// success-shaped regardless of the backend outcome.
func (h *Handlers) ConfirmDistress(ctx context.Context, call registry.Call) (out string, err error) {
	logger := h.logger.With("session_id", call.Request.SessionID, "phone", call.Request.PhoneNumber)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Distress confirmation panicked", "panic", r)
			out, err = h.end(call.Locale, "distress.activated", map[string]any{"reference": h.ReferenceID()}), nil
		}
	}()

	ref := h.ReferenceID()
	record := domain.DistressRecord{
		ReferenceID: ref,
		PhoneNumber: call.Request.PhoneNumber,
		Message:     distressMessage,
		Location:    unknownLocation,
		TriggeredAt: h.now().UTC(),
	}

	if _, err := safeCall(func() (string, error) { return h.emergencies.TriggerDistress(ctx, record) }); err != nil {
		logger.Error("Failed to trigger distress alert", "reference", ref, "err", err)
		return h.end(call.Locale, "distress.activated", map[string]any{"reference": h.ReferenceID()}), nil
	}

	logger.Info("Distress alert triggered", "reference", ref)

	if _, err := h.sessions.Set(ctx, call.Request.SessionID, domain.SessionPatch{
		DistressAlert: &domain.DistressSummary{ReferenceID: ref, PhoneNumber: call.Request.PhoneNumber},
	}); err != nil {
		logger.Warn("Failed to remember distress alert", "err", err)
	}

	h.notify(ctx, call.Request.PhoneNumber, h.t(call.Locale, "sms.distress_alert", map[string]any{"location": unknownLocation}))

	return h.end(call.Locale, "distress.activated", map[string]any{"reference": ref}), nil
}
