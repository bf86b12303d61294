// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.vault/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, temperature, max tokens, embedder model
//   - Agent: iteration ceiling, retrieval top-k
//   - Tavily: web search API settings
//   - Salary: the salary policy table (see salary.go)
//   - OTLP: trace exporter settings
//
// Sensitive values (API keys) are masked in MarshalJSON and String.
// Validation is fail-fast: Load returns an error before any component is
// constructed with a bad value.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidMaxIterations indicates the agent iteration ceiling is out of range.
	ErrInvalidMaxIterations = errors.New("invalid max iterations")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidTavilyBaseURL indicates the Tavily base URL is invalid.
	ErrInvalidTavilyBaseURL = errors.New("invalid Tavily base URL")

	// ErrInvalidJobSites indicates the job site list is empty.
	ErrInvalidJobSites = errors.New("invalid job sites")

	// ErrInvalidSalaryPolicy indicates the salary policy table is malformed.
	ErrInvalidSalaryPolicy = errors.New("invalid salary policy")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// DefaultGeminiEmbedderModel is the default Gemini embedder model.
const DefaultGeminiEmbedderModel = "gemini-embedding-001"

// AgentConfig bounds the planning loop.
type AgentConfig struct {
	// MaxIterations is the planning-round ceiling. When the model is still
	// requesting tools at the ceiling, the loop falls back to a final
	// synthesis call without tools.
	MaxIterations int `mapstructure:"max_iterations" json:"max_iterations"`

	// TopK is the default number of chunks retrieved per internal lookup.
	TopK int `mapstructure:"top_k" json:"top_k"`
}

// RetrievalConfig bounds index-building work.
type RetrievalConfig struct {
	// TimeoutMS caps embedding plus index-build time per request. On
	// timeout the conversation degrades to a plain context summary.
	TimeoutMS int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// TavilyConfig holds web search API settings.
type TavilyConfig struct {
	APIKey     string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	BaseURL    string `mapstructure:"base_url" json:"base_url"`
	TimeoutMS  int    `mapstructure:"timeout_ms" json:"timeout_ms"`
	MaxResults int    `mapstructure:"max_results" json:"max_results"`

	// RatePerSecond and Burst configure the client-side request limiter.
	RatePerSecond float64 `mapstructure:"rate_per_second" json:"rate_per_second"`
	Burst         int     `mapstructure:"burst" json:"burst"`
}

// OTLPConfig holds trace exporter settings.
type OTLPConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"` // "gemini" (default), "ollama", "openai"
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	Agent     AgentConfig     `mapstructure:"agent" json:"agent"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" json:"retrieval"`
	Tavily    TavilyConfig    `mapstructure:"tavily" json:"tavily"`
	OTLP      OTLPConfig      `mapstructure:"otlp" json:"otlp"`

	// JobSites restricts job-site searches (site: OR-filter).
	JobSites []string `mapstructure:"job_sites" json:"job_sites"`

	// Salary is the salary policy table used by salary analysis.
	Salary SalaryPolicy `mapstructure:"salary" json:"salary"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".vault")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// The policy table is structured; viper defaults cover scalars only.
	// A file may override it wholesale, otherwise the built-in table applies.
	if len(cfg.Salary.Bands) == 0 {
		cfg.Salary = DefaultSalaryPolicy()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)

	viper.SetDefault("agent.max_iterations", 3)
	viper.SetDefault("agent.top_k", 5)

	viper.SetDefault("retrieval.timeout_ms", 10000)

	viper.SetDefault("tavily.base_url", "https://api.tavily.com")
	viper.SetDefault("tavily.timeout_ms", 15000)
	viper.SetDefault("tavily.max_results", 5)
	viper.SetDefault("tavily.rate_per_second", 2.0)
	viper.SetDefault("tavily.burst", 5)

	viper.SetDefault("otlp.endpoint", "localhost:4318")
	viper.SetDefault("otlp.service_name", "vault")
	viper.SetDefault("otlp.environment", "dev")

	viper.SetDefault("job_sites", []string{
		"glassdoor.com",
		"linkedin.com",
		"ambitionbox.com",
		"levels.fyi",
	})
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY and OPENAI_API_KEY are read directly by the Genkit
// plugins, not via Viper; their presence is the provider's concern.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("tavily.api_key", "TAVILY_API_KEY")

	mustBind("provider", "VAULT_PROVIDER")
	mustBind("model_name", "VAULT_MODEL_NAME")
	mustBind("ollama_host", "VAULT_OLLAMA_HOST")
	mustBind("otlp.endpoint", "VAULT_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid substring matches against real secret fragments.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked; longer ones keep the first and last 2 chars for
// debug utility. This defends against accidental logging, nothing more.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. Currently masked: Tavily.APIKey.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.Tavily.APIKey = maskSecret(a.Tavily.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
