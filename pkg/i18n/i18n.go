// Package i18n translates message keys into the supported locales.
//
// Bundles are nested YAML documents embedded in the binary. Nested keys are
// addressed with dots ("main.title") and values may reference variables as %{name}.
package i18n

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var bundled embed.FS

var placeholder = regexp.MustCompile(`%\{(\w+)\}`)

// Translator holds flattened message tables per locale.
type Translator struct {
	fallback domain.Locale
	messages map[domain.Locale]map[string]string
}

// Option configures the Translator.
type Option func(*Translator)

// WithFallback sets the locale used when a key is missing.
func WithFallback(locale domain.Locale) Option {
	return func(t *Translator) {
		t.fallback = locale
	}
}

// WithBundle adds (or overrides) messages for a locale from a YAML document.
func WithBundle(locale domain.Locale, data []byte) Option {
	return func(t *Translator) {
		flat, err := parse(data)
		if err != nil {
			panic(fmt.Sprintf("i18n: invalid bundle for %s: %v", locale, err))
		}
		if t.messages[locale] == nil {
			t.messages[locale] = make(map[string]string)
		}
		for k, v := range flat {
			t.messages[locale][k] = v
		}
	}
}

// New loads the embedded bundles for every supported locale.
func New(opts ...Option) (*Translator, error) {
	t := &Translator{
		fallback: domain.DefaultLocale,
		messages: make(map[domain.Locale]map[string]string),
	}

	for _, l := range domain.SupportedLocales {
		data, err := bundled.ReadFile("locales/" + string(l) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read bundle %s: %w", l, err)
		}
		flat, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bundle %s: %w", l, err)
		}
		t.messages[l] = flat
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(opts ...Option) *Translator {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Translate resolves key in locale, then in the fallback locale, then returns key.
func (t *Translator) Translate(key string, vars map[string]any, locale domain.Locale) string {
	msg, ok := t.lookup(key, locale)
	if !ok {
		msg, ok = t.lookup(key, t.fallback)
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return msg
	}
	return placeholder.ReplaceAllStringFunc(msg, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}

// Has reports whether key exists in locale without falling back.
func (t *Translator) Has(key string, locale domain.Locale) bool {
	_, ok := t.lookup(key, locale)
	return ok
}

// Keys returns every key known for locale.
func (t *Translator) Keys(locale domain.Locale) []string {
	keys := make([]string, 0, len(t.messages[locale]))
	for k := range t.messages[locale] {
		keys = append(keys, k)
	}
	return keys
}

func (t *Translator) lookup(key string, locale domain.Locale) (string, bool) {
	table, ok := t.messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}

func parse(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	flatten("", root, flat)
	return flat, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = strings.TrimRight(val, "\n")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
