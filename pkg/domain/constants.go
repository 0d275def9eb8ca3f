package domain

// Protocol markers. Every response starts with exactly one of them.
const (
	// ContinuePrefix marks a response that expects more input.
	ContinuePrefix = "CON "
	// EndPrefix marks a response that terminates the session.
	EndPrefix = "END "
)

const (
	// PathDelimiter separates choices in the full path resubmitted by the carrier.
	PathDelimiter = "*"

	// WildcardKey is the choice key matched by any non-empty free text.
	WildcardKey = "*"

	// RootNodeID is the fixed entry point of every traversal.
	RootNodeID = "welcome"

	// MainNodeID is the main menu, re-rendered after a language switch.
	MainNodeID = "main"
)

// Action identifiers referenced by the menu catalog.
const (
	ActionSwitchKinyarwanda    = "rw"
	ActionSwitchEnglish        = "en"
	ActionRegistrationComplete = "registrationComplete"
	ActionUpdateInfo           = "updateSuccess"
	ActionSubmitEmergency      = "submitEmergency"
	ActionConfirmDistress      = "confirmDistress"
	ActionAIGuidance           = "getAIGuidance"
)
