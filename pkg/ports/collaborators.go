package ports

import (
	"context"

	"github.com/aretw0/motherlink/pkg/domain"
)

// Translator resolves a message key for a locale.
// Missing keys fall back to the default locale, then to the key itself.
type Translator interface {
	Translate(key string, vars map[string]any, locale domain.Locale) string
}

// UserRegistry is the remote store of registered users.
type UserRegistry interface {
	// Register creates a user. Returns domain.ErrAlreadyRegistered on a uniqueness conflict.
	Register(ctx context.Context, kind domain.UserKind, user domain.User) (*domain.User, error)

	// GetByPhone returns domain.ErrUserNotFound when no user matches.
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)

	// UpdateField sets one column for the user identified by phone number.
	UpdateField(ctx context.Context, phoneNumber string, field domain.UserField, value string) error
}

// EmergencyReporter forwards emergencies and distress alerts. Both return the
// identifier assigned by the backend, which may be empty.
type EmergencyReporter interface {
	ReportEmergency(ctx context.Context, record domain.EmergencyRecord) (string, error)
	TriggerDistress(ctx context.Context, record domain.DistressRecord) (string, error)
}

// Notifier delivers outbound text messages.
type Notifier interface {
	Send(ctx context.Context, to, message string) (domain.Delivery, error)
	SendBulk(ctx context.Context, to []string, message string) (domain.Delivery, error)
}

// GuidanceProvider produces short health guidance for USSD display.
type GuidanceProvider interface {
	Guidance(ctx context.Context, req domain.GuidanceRequest) (domain.Guidance, error)
}
