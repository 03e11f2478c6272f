// Package config loads process settings from flags and the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/statement"
)

// Extractor calls are deterministic, insight calls get some variety.
const (
	extractorTemperature = 0
	insightTemperature   = 0.7
)

// Config is the server configuration. Every field can be set by flag or by
// the environment variable named in its env tag.
type Config struct {
	Port            int           `help:"Port to serve HTTP on." default:"8080" env:"PORT"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" help:"Grace period for in-flight requests on shutdown." default:"30s" env:"SHUTDOWN_TIMEOUT"`

	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log output format." enum:"console,json" default:"console" env:"LOG_FORMAT"`

	Provider     string `help:"LLM provider." enum:"gemini,groq" default:"gemini" env:"LLM_PROVIDER"`
	GeminiAPIKey string `name:"gemini-api-key" help:"Gemini API key." env:"GEMINI_API_KEY,GOOGLE_API_KEY"`
	GroqAPIKey   string `name:"groq-api-key" help:"Groq API key." env:"GROQ_API_KEY"`
	Model        string `help:"Model name; empty selects the provider default." env:"LLM_MODEL"`
	BaseURL      string `name:"llm-base-url" help:"Override the provider endpoint." env:"LLM_BASE_URL"`

	DefaultCurrency string `name:"default-currency" help:"Currency assumed when a statement gives no hint (₹ or $)." default:"₹" env:"DEFAULT_CURRENCY"`
	FallbackPolicy  string `name:"fallback-policy" help:"What to do with raw text when extraction fails." enum:"reparse,placeholder" default:"reparse" env:"FALLBACK_POLICY"`

	MaxUploadMB        int64  `name:"max-upload-mb" help:"Largest accepted statement, in megabytes." default:"20" env:"MAX_UPLOAD_MB"`
	TempDir            string `name:"temp-dir" help:"Directory for staged statements; empty uses the OS default." env:"TEMP_DIR"`
	GCSCredentialsFile string `name:"gcs-credentials-file" help:"Service account file for gs:// sources; empty uses default credentials." env:"GCS_CREDENTIALS_FILE"`
	EnableGCS          bool   `name:"enable-gcs" help:"Accept gs:// statement URIs." env:"ENABLE_GCS"`

	AllowedOrigins []string `name:"allowed-origins" help:"CORS origins; empty allows any." env:"ALLOWED_ORIGINS"`
}

// Load parses args (without the program name) and the environment.
func Load(args []string) (*Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("finance-insights"),
		kong.Description("Bank statement analysis server."),
	)
	if err != nil {
		return nil, fmt.Errorf("Load: build parser: %w", err)
	}

	if _, err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once. kong also calls it
// while parsing.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("max-upload-mb must be positive, got %d", c.MaxUploadMB))
	}
	if !domain.Currency(c.DefaultCurrency).Valid() {
		errs = append(errs, fmt.Errorf("unsupported default currency %q", c.DefaultCurrency))
	}
	if _, err := statement.ParseFallbackPolicy(c.FallbackPolicy); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Provider) {
	case llm.ProviderGemini, llm.ProviderGroq:
		if strings.TrimSpace(c.apiKey()) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", c.Provider, llm.ErrMissingAPIKey))
		}
	default:
		errs = append(errs, fmt.Errorf("%q: %w", c.Provider, llm.ErrUnknownProvider))
	}

	return errors.Join(errs...)
}

func (c *Config) apiKey() string {
	if strings.EqualFold(c.Provider, llm.ProviderGroq) {
		return c.GroqAPIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) llmSettings(temperature float32) llm.Settings {
	return llm.Settings{
		Provider:    strings.ToLower(c.Provider),
		APIKey:      c.apiKey(),
		Model:       c.Model,
		Temperature: temperature,
		BaseURL:     c.BaseURL,
	}
}

// ExtractorLLM configures the completer that restates unstructured statements.
func (c *Config) ExtractorLLM() llm.Settings {
	return c.llmSettings(extractorTemperature)
}

// InsightLLM configures the completer behind analysis and recommendations.
func (c *Config) InsightLLM() llm.Settings {
	return c.llmSettings(insightTemperature)
}

// Normalizer returns the statement normalizer settings.
func (c *Config) Normalizer() statement.Config {
	return statement.Config{
		DefaultCurrency: domain.Currency(c.DefaultCurrency),
		FallbackPolicy:  statement.FallbackPolicy(strings.ToLower(c.FallbackPolicy)),
	}
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
