// Package config loads process configuration from the environment, with
// optional .env.local / .env files for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	LLMProvider   string `mapstructure:"LLM_PROVIDER"`
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`

	BrevoAPIKey   string `mapstructure:"BREVO_API_KEY"`
	BrevoBaseURL  string `mapstructure:"BREVO_BASE_URL"`
	BusinessInbox string `mapstructure:"BUSINESS_INBOX"`
	SenderEmail   string `mapstructure:"SENDER_EMAIL"`
	SenderName    string `mapstructure:"SENDER_NAME"`

	HistoryLimit     int           `mapstructure:"HISTORY_LIMIT"`
	MaxReplyChars    int           `mapstructure:"MAX_REPLY_CHARS"`
	MaxMessageLength int           `mapstructure:"MAX_MESSAGE_LENGTH"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	RateLimitPerMin int      `mapstructure:"RATE_LIMIT_PER_MIN"`
	AllowedOrigins  []string `mapstructure:"ALLOWED_ORIGINS"`

	// ParamPrefix enables SSM lookup of credentials missing from the
	// environment, e.g. "/parker-electrical".
	ParamPrefix string `mapstructure:"PARAM_PREFIX"`

	BookingLedgerTable string        `mapstructure:"BOOKING_LEDGER_TABLE"`
	BookingLedgerTTL   time.Duration `mapstructure:"BOOKING_LEDGER_TTL"`
}

// Capabilities reports which external collaborators have credentials.
type Capabilities struct {
	Chat  bool
	Email bool
}

var defaults = map[string]any{
	"APP_ENV":              EnvProduction,
	"PORT":                 "3001",
	"LOG_LEVEL":            "",
	"LLM_PROVIDER":         ProviderGemini,
	"GEMINI_API_KEY":       "",
	"GEMINI_MODEL":         "gemini-flash-latest",
	"OPENAI_API_KEY":       "",
	"OPENAI_MODEL":         "",
	"OPENAI_BASE_URL":      "",
	"BREVO_API_KEY":        "",
	"BREVO_BASE_URL":       "",
	"BUSINESS_INBOX":       "",
	"SENDER_EMAIL":         "",
	"SENDER_NAME":          "",
	"HISTORY_LIMIT":        6,
	"MAX_REPLY_CHARS":      800,
	"MAX_MESSAGE_LENGTH":   2000,
	"REQUEST_TIMEOUT":      "30s",
	"RATE_LIMIT_PER_MIN":   60,
	"ALLOWED_ORIGINS":      "*",
	"PARAM_PREFIX":         "",
	"BOOKING_LEDGER_TABLE": "",
	"BOOKING_LEDGER_TTL":   "24h",
}

// Load reads .env.local and .env (if present, never overriding the real
// environment), an optional config.yaml, and then the environment itself.
// Environment variables take precedence over the file.
func Load() (Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}
	// NODE_ENV is honoured for parity with the front-end tooling.
	if err := v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV"); err != nil {
		return Config{}, fmt.Errorf("config: bind APP_ENV: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.BrevoAPIKey = strings.TrimSpace(c.BrevoAPIKey)
	c.ParamPrefix = strings.TrimRight(strings.TrimSpace(c.ParamPrefix), "/")
	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
}

func (c Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("config: LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLMProvider))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, errors.New("config: HISTORY_LIMIT must be positive"))
	}
	if c.MaxReplyChars <= 0 {
		errs = append(errs, errors.New("config: MAX_REPLY_CHARS must be positive"))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("config: MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_PER_MIN must not be negative"))
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("config: ALLOWED_ORIGINS entry %q must be \"*\" or start with http:// or https://", o))
		}
	}
	return errors.Join(errs...)
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// LLMAPIKey returns the credential for the selected provider.
func (c Config) LLMAPIKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func (c Config) Capabilities() Capabilities {
	return Capabilities{
		Chat:  c.LLMAPIKey() != "",
		Email: c.BrevoAPIKey != "",
	}
}
