package menu

import (
	"fmt"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/ports"
)

// Node IDs that handlers read back from the trail or the captured inputs.
const (
	NodeWelcome          = domain.RootNodeID
	NodeMain             = domain.MainNodeID
	NodeRegistration     = "registration"
	NodeRegName          = "regStepName"
	NodeRegID            = "regStepId"
	NodeRegInsurance     = "regStepInsurance"
	NodeRegLocation      = "regStepLocation"
	NodeRegPregnancy     = "regStepPregnancyMonths"
	NodeRegHealthCenter  = "regStepHealthCenter"
	NodeRegConsent       = "regStepConsent"
	NodeUpdateInfo       = "updateInfo"
	NodeUpdateLocation   = "updateLocation"
	NodeUpdateInsurance  = "updateInsurance"
	NodeUpdateID         = "updateId"
	NodeUpdateHealth     = "updateHealthCenter"
	NodeUpdatePregnancy  = "updatePregnancyMonths"
	NodeAskQuestion      = "askQuestion"
	NodeAIAssistance     = "aiAssistance"
	NodeDistress         = "distress"
	NodeSettings         = "settings"
	NodeTerms            = "terms"
	NodePrivacy          = "privacy"
	NodeLanguages        = "languages"
	NodeEmergency        = "emergency"
	NodeEmergencyDetails = "emergencyDetails"
)

// Define builds the MotherLink catalog with every prompt rendered in locale.
func Define(locale domain.Locale, tr ports.Translator) (*Catalog, error) {
	if !locale.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLocale, locale)
	}
	t := func(key string) string {
		return tr.Translate(key, nil, locale)
	}
	back := t("common.go_back")

	b := NewBuilder(locale)

	b.Add(NodeWelcome).
		Title(t("welcome.title"), t("welcome.select_language")).
		Option("1", t("welcome.kinyarwanda"), domain.MenuIn(NodeMain, domain.LocaleKinyarwanda)).
		Option("2", t("welcome.english"), domain.MenuIn(NodeMain, domain.LocaleEnglish))

	b.Add(NodeMain).
		Title(t("main.title")).
		Option("1", t("main.registration"), domain.Menu(NodeRegistration)).
		Option("2", t("main.update_info"), domain.Menu(NodeUpdateInfo)).
		Option("3", t("main.ask_question"), domain.Menu(NodeAskQuestion)).
		Option("4", t("main.distress"), domain.Menu(NodeDistress)).
		Option("5", t("main.ai_assistance"), domain.Menu(NodeAIAssistance)).
		Option("6", t("main.settings"), domain.Menu(NodeSettings)).
		Option("7", t("main.emergency"), domain.Menu(NodeEmergency)).
		Option("0", back, domain.Menu(NodeWelcome))

	// Registration: both flows share the same steps; the handler reads the
	// flow back from the token taken at this node.
	b.Add(NodeRegistration).
		Title(t("registration.title")).
		Option("1", t("registration.pregnant"), domain.Menu(NodeRegName)).
		Option("2", t("registration.mother"), domain.Menu(NodeRegName)).
		Option("0", back, domain.Menu(NodeMain))

	steps := []struct{ id, key, next string }{
		{NodeRegName, "registration.step_name", NodeRegID},
		{NodeRegID, "registration.step_id", NodeRegInsurance},
		{NodeRegInsurance, "registration.step_insurance", NodeRegLocation},
		{NodeRegLocation, "registration.step_location", NodeRegPregnancy},
		{NodeRegPregnancy, "registration.step_pregnancy_months", NodeRegHealthCenter},
		{NodeRegHealthCenter, "registration.step_health_center", NodeRegConsent},
	}
	for _, s := range steps {
		b.Add(s.id).Title(t(s.key)).Input(domain.Menu(s.next))
	}

	b.Add(NodeRegConsent).
		Title(t("registration.confirm_consent")).
		Option("1", t("common.confirm"), domain.Terminal(domain.ActionRegistrationComplete)).
		Option("2", t("common.cancel"), domain.Menu(NodeMain))

	b.Add(NodeUpdateInfo).
		Title(t("update_info.title")).
		Option("1", t("update_info.location"), domain.Menu(NodeUpdateLocation)).
		Option("2", t("update_info.insurance"), domain.Menu(NodeUpdateInsurance)).
		Option("3", t("update_info.id"), domain.Menu(NodeUpdateID)).
		Option("4", t("update_info.health_center"), domain.Menu(NodeUpdateHealth)).
		Option("5", t("update_info.pregnancy_months"), domain.Menu(NodeUpdatePregnancy)).
		Option("6", back, domain.Menu(NodeMain))

	updates := []struct{ id, key string }{
		{NodeUpdateLocation, "update_info.update_location"},
		{NodeUpdateInsurance, "update_info.update_insurance"},
		{NodeUpdateID, "update_info.update_id"},
		{NodeUpdateHealth, "update_info.update_health_center"},
		{NodeUpdatePregnancy, "update_info.update_pregnancy_months"},
	}
	for _, u := range updates {
		b.Add(u.id).Title(t(u.key)).Input(domain.Terminal(domain.ActionUpdateInfo))
	}

	b.Add(NodeAskQuestion).
		Title(t("ai_assistance.custom_prompt")).
		Input(domain.Terminal(domain.ActionAIGuidance))

	b.Add(NodeAIAssistance).
		Title(t("ai_assistance.select_category")).
		Option("1", t("ai_assistance.diet"), domain.Terminal(domain.ActionAIGuidance)).
		Option("2", t("ai_assistance.mental"), domain.Terminal(domain.ActionAIGuidance)).
		Option("3", t("ai_assistance.child"), domain.Terminal(domain.ActionAIGuidance)).
		Option("4", t("ai_assistance.consultations"), domain.Terminal(domain.ActionAIGuidance)).
		Option("5", t("ai_assistance.custom"), domain.Menu(NodeAskQuestion)).
		Option("0", back, domain.Menu(NodeMain))

	b.Add(NodeDistress).
		Title(t("distress.message")).
		Option("1", t("distress.confirm"), domain.Terminal(domain.ActionConfirmDistress)).
		Option("0", t("distress.cancel"), domain.Menu(NodeMain))

	b.Add(NodeSettings).
		Title(t("settings.title")).
		Option("1", t("settings.change_language"), domain.Menu(NodeLanguages)).
		Option("2", t("settings.terms_of_service"), domain.Menu(NodeTerms)).
		Option("3", t("settings.privacy_policy"), domain.Menu(NodePrivacy)).
		Option("0", back, domain.Menu(NodeMain))

	b.Add(NodeTerms).Title(t("settings.terms_of_service"), t("settings.terms_text")).End()
	b.Add(NodePrivacy).Title(t("settings.privacy_policy"), t("settings.privacy_text")).End()

	b.Add(NodeLanguages).
		Title(t("languages.title")).
		Option("1", t("languages.english"), domain.Immediate(domain.ActionSwitchEnglish)).
		Option("2", t("languages.kinyarwanda"), domain.Immediate(domain.ActionSwitchKinyarwanda)).
		Option("0", back, domain.Menu(NodeSettings))

	b.Add(NodeEmergency).
		Title(t("emergency.title")).
		Option("1", t("emergency.category.pregnant"), domain.Menu(NodeEmergencyDetails)).
		Option("2", t("emergency.category.mother"), domain.Menu(NodeEmergencyDetails)).
		Option("3", t("emergency.category.child"), domain.Menu(NodeEmergencyDetails)).
		Option("4", t("emergency.category.other"), domain.Menu(NodeEmergencyDetails)).
		Option("0", back, domain.Menu(NodeMain))

	b.Add(NodeEmergencyDetails).
		Title(t("emergency.details_prompt")).
		Input(domain.Terminal(domain.ActionSubmitEmergency))

	return b.Build()
}

// DefineAll builds the catalog for every supported locale.
func DefineAll(tr ports.Translator) (*Catalogs, error) {
	built := make([]*Catalog, 0, len(domain.SupportedLocales))
	for _, l := range domain.SupportedLocales {
		c, err := Define(l, tr)
		if err != nil {
			return nil, fmt.Errorf("failed to define %s catalog: %w", l, err)
		}
		built = append(built, c)
	}
	return NewCatalogs(built...), nil
}
