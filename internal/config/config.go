// Package config loads service settings from .env files, the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// User registry backends.
const (
	UserStoreBackend = "backend"
	UserStoreSQLite  = "sqlite"
)

// Config is the typed view of every setting.
type Config struct {
	Port           int           `mapstructure:"port"`
	BackendURL     string        `mapstructure:"backend_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	UserStore      string        `mapstructure:"user_store"`
	DatabasePath   string        `mapstructure:"database_path"`

	// SessionEncryptionKey encrypts stored sessions when set. It holds
	// comma-separated base64 AES-256 keys, active key first.
	SessionEncryptionKey string `mapstructure:"session_encryption_key"`

	Redis  RedisConfig  `mapstructure:"redis"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	SMS    SMSConfig    `mapstructure:"sms"`

	RescueTeam         []string      `mapstructure:"rescue_team"`
	DefaultLanguage    string        `mapstructure:"default_language"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	HandlerTimeout     time.Duration `mapstructure:"handler_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// RedisConfig enables the Redis session store when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type SMSConfig struct {
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
	SenderID string `mapstructure:"sender_id"`
}

// Locale returns the validated default language.
func (c *Config) Locale() (domain.Locale, error) {
	return domain.ParseLocale(c.DefaultLanguage)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if _, err := c.Locale(); err != nil {
		errs = append(errs, fmt.Errorf("default_language: %w", err))
	}
	switch c.UserStore {
	case UserStoreBackend:
		if c.BackendURL == "" {
			errs = append(errs, errors.New("backend_url is required for the backend user store"))
		}
	case UserStoreSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("database_path is required for the sqlite user store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown user_store %q", c.UserStore))
	}
	if c.SessionEncryptionKey != "" {
		if _, err := middleware.ParseKeys(c.SessionEncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("session_encryption_key: %w", err))
		}
	}
	for name, d := range map[string]time.Duration{
		"backend_timeout":      c.BackendTimeout,
		"session_idle_timeout": c.SessionIdleTimeout,
		"handler_timeout":      c.HandlerTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// env maps setting keys onto environment variables.
var env = map[string]string{
	"port":                   "PORT",
	"backend_url":            "BACKEND_API_URL",
	"backend_timeout":        "BACKEND_API_TIMEOUT",
	"user_store":             "USER_STORE",
	"database_path":          "DATABASE_PATH",
	"session_encryption_key": "SESSION_ENCRYPTION_KEY",
	"redis.addr":             "REDIS_ADDR",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"openai.api_key":         "OPENAI_API_KEY",
	"openai.model":           "OPENAI_MODEL",
	"openai.base_url":        "OPENAI_BASE_URL",
	"sms.url":                "SMS_API_URL",
	"sms.api_key":            "SMS_API_KEY",
	"sms.username":           "SMS_USERNAME",
	"sms.sender_id":          "SMS_SENDER_ID",
	"rescue_team":            "RESCUE_TEAM_NUMBERS",
	"default_language":       "DEFAULT_LANGUAGE",
	"session_idle_timeout":   "SESSION_IDLE_TIMEOUT",
	"handler_timeout":        "HANDLER_TIMEOUT",
	"log_level":              "LOG_LEVEL",
	"log_format":             "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("backend_url", "http://localhost:3000")
	v.SetDefault("backend_timeout", 10*time.Second)
	v.SetDefault("user_store", UserStoreBackend)
	v.SetDefault("database_path", "data/motherlink.db")
	v.SetDefault("redis.db", 0)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("sms.url", "https://api.africastalking.com/version1/messaging")
	v.SetDefault("sms.sender_id", "MotherLink")
	v.SetDefault("default_language", string(domain.DefaultLocale))
	v.SetDefault("session_idle_timeout", time.Hour)
	v.SetDefault("handler_timeout", 4*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Loader reads configuration. Flags bound to it override every other source.
type Loader struct {
	v        *viper.Viper
	envFiles []string
}

// NewLoader creates a loader reading envFiles (default .env.local then .env).
// Missing files are ignored. Variables already set in the process win.
func NewLoader(envFiles ...string) *Loader {
	if len(envFiles) == 0 {
		envFiles = []string{".env.local", ".env"}
	}
	v := viper.New()
	setDefaults(v)
	return &Loader{v: v, envFiles: envFiles}
}

// BindFlag overrides key with a command line flag when it is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("config: no flag for %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load resolves the configuration. path names an optional YAML file.
func (l *Loader) Load(path string) (*Config, error) {
	for _, f := range l.envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	for key, name := range env {
		if err := l.v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", name, err)
		}
	}

	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.RescueTeam = compact(cfg.RescueTeam)
	cfg.DefaultLanguage = strings.ToLower(strings.TrimSpace(cfg.DefaultLanguage))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
