package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/registry"
)

// switchLanguage persists locale and shows the main menu rendered in it.
func (h *Handlers) switchLanguage(locale domain.Locale) registry.Handler {
	return func(ctx context.Context, call registry.Call) (string, error) {
		if err := h.sessions.SetLanguage(ctx, call.Request.SessionID, locale); err != nil {
			return "", fmt.Errorf("failed to switch language: %w", err)
		}

		catalog, err := h.catalogs.For(locale)
		if err != nil {
			return "", err
		}
		mainMenu, ok := catalog.Node(domain.MainNodeID)
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrDanglingReference, domain.MainNodeID)
		}
		return mainMenu.Prompt, nil
	}
}
