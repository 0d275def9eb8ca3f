package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/motherlink/pkg/domain"
)

// RunSessionStoreContract verifies that a store honors the SessionStore contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()
	id := "contract-session"

	if _, err := store.Load(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	s := domain.NewSession(id, domain.LocaleEnglish)
	s.CapturedInputs["regStepName"] = "Jane"
	s.LastCaptureKey = "regStepName"
	s.LastActivity = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save(ctx, id, s); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	s.CapturedInputs["regStepName"] = "mutated"

	loaded, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Language != domain.LocaleEnglish {
		t.Errorf("language = %q, want en", loaded.Language)
	}
	if got := loaded.CapturedInputs["regStepName"]; got != "Jane" {
		t.Errorf("capture = %q, want Jane", got)
	}
	if loaded.LastCaptureKey != "regStepName" {
		t.Errorf("last capture key = %q", loaded.LastCaptureKey)
	}
	if !loaded.LastActivity.Equal(s.LastActivity) {
		t.Errorf("last activity = %v, want %v", loaded.LastActivity, s.LastActivity)
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := false
	for _, got := range ids {
		if got == id {
			found = true
		}
	}
	if !found {
		t.Errorf("list %v does not contain %q", ids, id)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Errorf("deleting a missing session should not fail: %v", err)
	}
}
