package domain

import "time"

// UserKind selects the registration endpoint.
type UserKind string

const (
	UserKindPregnant UserKind = "pregnant"
	UserKindMother   UserKind = "mother"
)

// User is a registered mother or pregnant woman.
type User struct {
	ID              string   `json:"id,omitempty" mapstructure:"id"`
	Kind            UserKind `json:"kind,omitempty" mapstructure:"kind"`
	Name            string   `json:"name" mapstructure:"name"`
	NationalID      string   `json:"nationalId" mapstructure:"nationalId"`
	Insurance       string   `json:"insurance" mapstructure:"insurance"`
	Location        string   `json:"location" mapstructure:"location"`
	PregnancyMonths string   `json:"pregnancyMonths" mapstructure:"pregnancyMonths"`
	HealthCenter    string   `json:"healthCenter" mapstructure:"healthCenter"`
	PhoneNumber     string   `json:"phoneNumber" mapstructure:"phoneNumber"`
}

// UserField is a column of the user registry that can be updated on its own.
type UserField string

const (
	FieldLocation        UserField = "location"
	FieldInsurance       UserField = "insurance"
	FieldNationalID      UserField = "nationalid"
	FieldHealthCenter    UserField = "healthcenter"
	FieldPregnancyMonths UserField = "pregnancymonths"
)

// Valid reports whether f is one of the updatable columns.
func (f UserField) Valid() bool {
	switch f {
	case FieldLocation, FieldInsurance, FieldNationalID, FieldHealthCenter, FieldPregnancyMonths:
		return true
	}
	return false
}

// EmergencyRecord is handed to the emergency report API. Not persisted locally.
type EmergencyRecord struct {
	ReferenceID   string    `json:"referenceId"`
	PhoneNumber   string    `json:"phoneNumber"`
	EmergencyType string    `json:"emergencyType"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Status        string    `json:"status"`
	ReportedAt    time.Time `json:"reportedAt"`
}

// DistressRecord is handed to the distress alert API.
type DistressRecord struct {
	ReferenceID string    `json:"referenceId"`
	PhoneNumber string    `json:"phoneNumber"`
	Message     string    `json:"message"`
	Location    string    `json:"location"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// GuidanceRequest asks the guidance collaborator for advice.
type GuidanceRequest struct {
	Topic    string
	Question string
	Locale   Locale
}

// Guidance is the collaborator's answer. On failure Text may carry a canned tip.
type Guidance struct {
	Text     string
	Fallback bool
}

// Delivery is the outcome of an outbound SMS.
type Delivery struct {
	MessageID string
	Response  string
}
