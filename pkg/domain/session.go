package domain

import (
	"maps"
	"time"
)

// Session is the per-interaction state keyed by the carrier session ID.
type Session struct {
	ID string `json:"id"`

	// Language is the locale every prompt of this session is rendered in.
	Language Locale `json:"language"`

	// CapturedInputs maps a capture key to the raw text entered at that node.
	CapturedInputs map[string]string `json:"captured_inputs"`

	// LastCaptureKey is the capture key written most recently.
	LastCaptureKey string `json:"last_capture_key,omitempty"`

	// LastActivity is refreshed on every write and drives eviction.
	LastActivity time.Time `json:"last_activity"`

	LastEmergency *EmergencySummary `json:"last_emergency,omitempty"`
	DistressAlert *DistressSummary  `json:"distress_alert,omitempty"`
}

// EmergencySummary is what the session remembers about a submitted emergency.
type EmergencySummary struct {
	ReferenceID string `json:"reference_id"`
	Type        string `json:"type"`
	PhoneNumber string `json:"phone_number"`
	BackendID   string `json:"backend_id,omitempty"`
}

// DistressSummary is what the session remembers about a triggered distress alert.
type DistressSummary struct {
	ReferenceID string `json:"reference_id"`
	PhoneNumber string `json:"phone_number"`
}

// NewSession creates an empty session in the given locale.
func NewSession(id string, language Locale) *Session {
	return &Session{
		ID:             id,
		Language:       language,
		CapturedInputs: make(map[string]string),
	}
}

// Clone returns a deep copy so stores never share maps with callers.
func (s *Session) Clone() *Session {
	c := *s
	c.CapturedInputs = make(map[string]string, len(s.CapturedInputs))
	maps.Copy(c.CapturedInputs, s.CapturedInputs)
	if s.LastEmergency != nil {
		e := *s.LastEmergency
		c.LastEmergency = &e
	}
	if s.DistressAlert != nil {
		d := *s.DistressAlert
		c.DistressAlert = &d
	}
	return &c
}

// Capture returns the text captured under key, if any.
func (s *Session) Capture(key string) (string, bool) {
	v, ok := s.CapturedInputs[key]
	return v, ok && v != ""
}

// SessionPatch is a partial update. Nil fields are left untouched.
// CapturedInputs replaces the whole map when non-nil.
type SessionPatch struct {
	Language       *Locale
	CapturedInputs map[string]string
	LastCaptureKey *string
	LastEmergency  *EmergencySummary
	DistressAlert  *DistressSummary
}

// Apply shallow-merges p into s.
func (s *Session) Apply(p SessionPatch) {
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.CapturedInputs != nil {
		s.CapturedInputs = make(map[string]string, len(p.CapturedInputs))
		maps.Copy(s.CapturedInputs, p.CapturedInputs)
	}
	if p.LastCaptureKey != nil {
		s.LastCaptureKey = *p.LastCaptureKey
	}
	if p.LastEmergency != nil {
		e := *p.LastEmergency
		s.LastEmergency = &e
	}
	if p.DistressAlert != nil {
		d := *p.DistressAlert
		s.DistressAlert = &d
	}
}

// Ref returns a pointer to v. Handy for building patches.
func Ref[T any](v T) *T {
	return &v
}
