package actions

import (
	"context"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/aretw0/motherlink/pkg/registry"
)

// Guidance topics, keyed by the choice taken at the AI assistance menu.
const (
	TopicDiet          = "diet"
	TopicMental        = "mental"
	TopicChild         = "child"
	TopicConsultations = "consultations"
)

var topics = map[string]string{
	"1": TopicDiet,
	"2": TopicMental,
	"3": TopicChild,
	"4": TopicConsultations,
}

// Guidance asks the provider for advice on a topic or on the typed question.
func (h *Handlers) Guidance(ctx context.Context, call registry.Call) (string, error) {
	req := domain.GuidanceRequest{Locale: call.Locale}
	if call.NodeID == menu.NodeAskQuestion {
		req.Question, _ = call.Session.Capture(menu.NodeAskQuestion)
	} else if tok, ok := call.Trail.TokenAt(menu.NodeAIAssistance); ok {
		req.Topic = topics[tok]
	}

	title := h.t(call.Locale, "ai_assistance.guidance_title", nil)
	logger := h.logger.With("session_id", call.Request.SessionID, "topic", req.Topic)

	g, err := safeCall(func() (domain.Guidance, error) { return h.guidance.Guidance(ctx, req) })
	if err != nil || g.Fallback || strings.TrimSpace(g.Text) == "" {
		if err != nil {
			logger.Warn("Guidance unavailable", "err", err)
		}
		parts := []string{title, h.t(call.Locale, "ai_assistance.guidance_unavailable", nil)}
		if g.Text != "" {
			parts = append(parts, g.Text)
		}
		return domain.EndPrefix + strings.Join(parts, "\n\n"), nil
	}

	closing := h.t(call.Locale, "ai_assistance.guidance_closing", nil)
	return domain.EndPrefix + strings.Join([]string{title, g.Text, closing}, "\n\n"), nil
}
