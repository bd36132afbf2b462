// Package config loads SkillSteps runtime configuration: defaults, then an
// optional YAML file, then environment variables. A .env file in the
// working directory is read first and never overrides the real environment.
// All fields have defaults so the binary runs locally without any setup;
// a missing API key does not fail Load, it fails each generation call.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/skillsteps/skillsteps/internal/infra/llm"
)

// Config holds runtime configuration for SkillSteps.
type Config struct {
	HTTP        HTTPConfig      `yaml:"http"`
	Database    DatabaseConfig  `yaml:"database"`
	Log         LogConfig       `yaml:"log"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	LLM         LLMConfig       `yaml:"llm"`
	TestingMode bool            `yaml:"testing_mode"` // TESTING_MODE: forces the mock provider
}

type HTTPConfig struct {
	Host string `yaml:"host"` // HTTP_HOST
	Port int    `yaml:"port"` // HTTP_PORT
}

// Addr is host:port for net/http.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // DATABASE_PATH
}

type LogConfig struct {
	Mode string `yaml:"mode"` // LOG_MODE: dev | prod
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // OTLP_ENDPOINT; empty disables trace export
	OTLPInsecure bool   `yaml:"otlp_insecure"` // OTLP_INSECURE
}

// LLMConfig holds the completion endpoint and sampling defaults.
type LLMConfig struct {
	Provider         string  `yaml:"provider"`          // LLM_PROVIDER: openrouter | ollama | mock
	APIKey           string  `yaml:"api_key"`           // OPENROUTER_API_KEY
	BaseURL          string  `yaml:"base_url"`          // OPENROUTER_BASE_URL
	Model            string  `yaml:"model"`             // LLM_MODEL
	MaxTokens        int     `yaml:"max_tokens"`        // LLM_MAX_TOKENS
	Temperature      float64 `yaml:"temperature"`       // LLM_TEMPERATURE
	TopP             float64 `yaml:"top_p"`             // LLM_TOP_P
	FrequencyPenalty float64 `yaml:"frequency_penalty"` // LLM_FREQUENCY_PENALTY
	PresencePenalty  float64 `yaml:"presence_penalty"`  // LLM_PRESENCE_PENALTY
	TimeoutSeconds   int     `yaml:"timeout_seconds"`   // LLM_TIMEOUT_SECONDS
	MaxRetries       int     `yaml:"max_retries"`       // LLM_MAX_RETRIES
	HTTPReferer      string  `yaml:"http_referer"`      // LLM_HTTP_REFERER
	AppTitle         string  `yaml:"app_title"`         // LLM_APP_TITLE
	OllamaBaseURL    string  `yaml:"ollama_base_url"`   // OLLAMA_BASE_URL
	OllamaChatModel  string  `yaml:"ollama_chat_model"` // OLLAMA_CHAT_MODEL
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTP:     HTTPConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Path: "./data/skillsteps.db"},
		Log:      LogConfig{Mode: "dev"},
		Telemetry: TelemetryConfig{
			ServiceName:  "skillsteps",
			OTLPInsecure: true,
		},
		LLM: LLMConfig{
			Provider:         llm.ProviderOpenRouter,
			BaseURL:          "https://openrouter.ai/api/v1",
			Model:            "mistralai/mistral-7b-instruct",
			MaxTokens:        1000,
			Temperature:      0.7,
			TopP:             0.9,
			FrequencyPenalty: 0.5,
			PresencePenalty:  0.5,
			TimeoutSeconds:   60,
			MaxRetries:       2,
			AppTitle:         "SkillSteps AI",
			OllamaBaseURL:    "http://localhost:11434",
			OllamaChatModel:  "llama3.2:3b",
		},
	}
}

// DotEnvFile is read by Load when present.
const DotEnvFile = ".env"

// Load builds the configuration. path may be empty; a named file that does
// not exist is an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read %s: %w", DotEnvFile, err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LLMSettings builds the immutable completion settings. Testing mode
// selects the mock provider; the ollama provider uses its own base URL
// and chat model.
func (c Config) LLMSettings() llm.Settings {
	s := llm.Settings{
		Provider:   strings.ToLower(strings.TrimSpace(c.LLM.Provider)),
		APIKey:     strings.TrimSpace(c.LLM.APIKey),
		BaseURL:    c.LLM.BaseURL,
		Referer:    c.LLM.HTTPReferer,
		Title:      c.LLM.AppTitle,
		Timeout:    time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: c.LLM.MaxRetries,
		Sampling: llm.Sampling{
			Model:            c.LLM.Model,
			MaxTokens:        c.LLM.MaxTokens,
			Temperature:      float32(c.LLM.Temperature),
			TopP:             float32(c.LLM.TopP),
			FrequencyPenalty: float32(c.LLM.FrequencyPenalty),
			PresencePenalty:  float32(c.LLM.PresencePenalty),
		},
	}
	if c.TestingMode {
		s.Provider = llm.ProviderMock
	}
	if s.Provider == llm.ProviderOllama {
		s.BaseURL = c.LLM.OllamaBaseURL
		if c.LLM.OllamaChatModel != "" {
			s.Sampling.Model = c.LLM.OllamaChatModel
		}
	}
	return s
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.HTTP.Host, "HTTP_HOST")
	overrideInt(&cfg.HTTP.Port, "HTTP_PORT")
	overrideString(&cfg.Database.Path, "DATABASE_PATH")
	overrideString(&cfg.Log.Mode, "LOG_MODE")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "OTLP_INSECURE")
	overrideBool(&cfg.TestingMode, "TESTING_MODE")

	overrideString(&cfg.LLM.Provider, "LLM_PROVIDER")
	overrideString(&cfg.LLM.APIKey, "OPENROUTER_API_KEY")
	overrideString(&cfg.LLM.BaseURL, "OPENROUTER_BASE_URL")
	overrideString(&cfg.LLM.Model, "LLM_MODEL")
	overrideInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
	overrideFloat(&cfg.LLM.TopP, "LLM_TOP_P")
	overrideFloat(&cfg.LLM.FrequencyPenalty, "LLM_FREQUENCY_PENALTY")
	overrideFloat(&cfg.LLM.PresencePenalty, "LLM_PRESENCE_PENALTY")
	overrideInt(&cfg.LLM.TimeoutSeconds, "LLM_TIMEOUT_SECONDS")
	overrideInt(&cfg.LLM.MaxRetries, "LLM_MAX_RETRIES")
	overrideString(&cfg.LLM.HTTPReferer, "LLM_HTTP_REFERER")
	overrideString(&cfg.LLM.AppTitle, "LLM_APP_TITLE")
	overrideString(&cfg.LLM.OllamaBaseURL, "OLLAMA_BASE_URL")
	overrideString(&cfg.LLM.OllamaChatModel, "OLLAMA_CHAT_MODEL")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("config: http.port must be between 1 and 65535")
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return errors.New("config: database.path must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case llm.ProviderOpenRouter, llm.ProviderOllama, llm.ProviderMock:
	default:
		return fmt.Errorf("config: llm.provider must be one of openrouter|ollama|mock, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens <= 0 {
		return errors.New("config: llm.max_tokens must be positive")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return errors.New("config: llm.temperature must be within [0, 2]")
	}
	if cfg.LLM.TopP < 0 || cfg.LLM.TopP > 1 {
		return errors.New("config: llm.top_p must be within [0, 1]")
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		return errors.New("config: llm.timeout_seconds must be positive")
	}
	if cfg.LLM.MaxRetries < 0 {
		return errors.New("config: llm.max_retries must be >= 0")
	}
	return nil
}
