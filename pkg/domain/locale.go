package domain

import "fmt"

// Locale is a supported language code.
type Locale string

const (
	LocaleKinyarwanda Locale = "rw"
	LocaleEnglish     Locale = "en"

	// DefaultLocale is used for new sessions and as translation fallback.
	DefaultLocale = LocaleKinyarwanda
)

// SupportedLocales is the closed set of locales the service renders.
var SupportedLocales = []Locale{LocaleKinyarwanda, LocaleEnglish}

// Valid reports whether l belongs to SupportedLocales.
func (l Locale) Valid() bool {
	for _, s := range SupportedLocales {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLocale validates a raw locale code.
func ParseLocale(code string) (Locale, error) {
	l := Locale(code)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, code)
	}
	return l, nil
}
