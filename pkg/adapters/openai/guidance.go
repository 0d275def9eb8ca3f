// Package openai produces short health guidance through the OpenAI chat
// completions API, formatted for USSD screens.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/aretw0/motherlink/internal/logging"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// MaxLength is the longest guidance text handed back for display.
	MaxLength = 480
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("openai: API key not configured")

const systemPrompt = `You are MotherLink, a maternal and child health assistant for mothers in Rwanda using basic phones.
Give safe, practical advice. Never diagnose. Point to a health center or the emergency numbers 112 and 114 when symptoms sound serious.
Make responses short, friendly, and easy to understand for USSD users.`

var languageInstruction = map[domain.Locale]string{
	domain.LocaleKinyarwanda: "Subiza mu Kinyarwanda, ukoreshe amagambo asanzwe yoroheje kumvwa n'abantu bose.",
	domain.LocaleEnglish:     "Respond in English, clearly and simply.",
}

var topicPrompts = map[string]string{
	"diet":          "A pregnant woman or new mother wants quick advice on healthy eating and nutrition. Give short, specific tips.",
	"mental":        "A mother feels stressed, sad or overwhelmed. Give brief words of comfort and tell her where to find support.",
	"child":         "A mother wants advice on caring for her newborn or young child. Give the most important tips briefly.",
	"consultations": "A pregnant woman asks when and why to attend antenatal and postnatal consultations. Answer briefly.",
	"other":         "Give short, basic advice about maternal health and safety.",
}

var defaultGuidance = map[domain.Locale]map[string]string{
	domain.LocaleKinyarwanda: {
		"diet":          "Kurya neza, gukora imyitozo, no gusinzira neza ni ingenzi. Gerageza kubaho utuje kandi urinde umubiri wawe.",
		"mental":        "Uri umuntu ukomeye. Vugana n'inshuti cyangwa umuryango. Ushobora no guhamagara 112 niba ubabaye cyane.",
		"child":         "Wite ku isuku yawe n'iy'umwana. Niba ubabara cyangwa utagira ibyishimo, saba ubufasha kwa muganga cyangwa umujyanama.",
		"consultations": "Gerageza kuruhuka bihagije, unywe amazi menshi, kandi ujye kwa muganga buri gihe. Niba ubabara, hamagara 114 cyangwa 112.",
		"other":         "Ibibazo byose bifite ibisubizo. Kurikiza inama z'ubuzima kandi ushake ubufasha igihe bikomeye.",
	},
	domain.LocaleEnglish: {
		"diet":          "Eat healthy, stay active, and rest well. Stay calm and take care of your body.",
		"mental":        "You are strong. Talk to someone you trust or call 112 for help.",
		"child":         "Take care of your hygiene and your baby's. If you feel unwell or sad, talk to a doctor or counselor.",
		"consultations": "Get enough rest, drink water, and visit the clinic regularly. If you feel pain, call 114 or 112.",
		"other":         "Every problem has a solution. Stay hopeful and seek help when needed.",
	},
}

// Config holds the API settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider implements ports.GuidanceProvider.
type Provider struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// Option configures the Provider.
type Option func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// WithHTTPClient replaces the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *providerOptions) { o.httpClient = hc }
}

// WithMaxRetries sets how often the SDK retries a failed request.
func WithMaxRetries(n int) Option {
	return func(o *providerOptions) { o.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *providerOptions) { o.logger = logger }
}

// New creates a Provider. Without an API key every call answers with the
// default guidance and ErrNotConfigured.
func New(cfg Config, opts ...Option) *Provider {
	o := providerOptions{maxRetries: 1, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Provider{model: cfg.Model, logger: o.logger}
	if p.model == "" {
		p.model = DefaultModel
	}
	if cfg.APIKey == "" {
		return p
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(o.maxRetries),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	client := openai.NewClient(reqOpts...)
	p.client = &client
	return p
}

// Configured reports whether the provider can reach the API.
func (p *Provider) Configured() bool {
	return p.client != nil
}

// Guidance asks the model for advice. On failure the result carries the
// default guidance for the topic and Fallback is set.
func (p *Provider) Guidance(ctx context.Context, req domain.GuidanceRequest) (domain.Guidance, error) {
	fallback := domain.Guidance{Text: DefaultGuidance(req.Topic, req.Locale), Fallback: true}
	if p.client == nil {
		return fallback, ErrNotConfigured
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(Prompt(req)),
		},
		Temperature: openai.Float(0.5),
	})
	if err != nil {
		p.logger.Warn("Guidance request failed", "topic", req.Topic, "err", err)
		return fallback, fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return fallback, errors.New("openai: no response choices returned")
	}

	text := Format(completion.Choices[0].Message.Content)
	if text == "" {
		return fallback, errors.New("openai: empty response content")
	}
	p.logger.Debug("Guidance received", "topic", req.Topic, "length", len(text))
	return domain.Guidance{Text: text}, nil
}

// Prompt builds the user message: the language instruction followed by the
// typed question or the topic prompt.
func Prompt(req domain.GuidanceRequest) string {
	lang, ok := languageInstruction[req.Locale]
	if !ok {
		lang = languageInstruction[domain.LocaleKinyarwanda]
	}
	if q := strings.TrimSpace(req.Question); q != "" {
		return fmt.Sprintf("%s A mother in Rwanda asked the following question: %q. Give a short, clear, helpful and kind answer, like a community health worker would.", lang, q)
	}
	prompt, ok := topicPrompts[req.Topic]
	if !ok {
		prompt = topicPrompts["other"]
	}
	return lang + " " + prompt
}

// DefaultGuidance returns the canned tip for a topic. Unknown locales read
// Kinyarwanda and unknown topics the general tip.
func DefaultGuidance(topic string, locale domain.Locale) string {
	texts, ok := defaultGuidance[locale]
	if !ok {
		texts = defaultGuidance[domain.LocaleKinyarwanda]
	}
	if t, ok := texts[topic]; ok {
		return t
	}
	return texts["other"]
}

var (
	markup     = regexp.MustCompile(`[*_#]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Format strips markdown markers, collapses whitespace and bounds the text
// to MaxLength characters.
func Format(text string) string {
	text = markup.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if r := []rune(text); len(r) > MaxLength {
		text = string(r[:MaxLength-3]) + "..."
	}
	return text
}
