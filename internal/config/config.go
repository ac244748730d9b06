package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Server configures the backend that talks to the model providers.
type Server struct {
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Cloud provider: "groq" (OpenAI-compatible) or "anthropic".
	CloudProvider    string `env:"CLOUD_PROVIDER" envDefault:"groq"`
	GroqAPIKey       string `env:"GROQ_API_KEY"`
	GroqBaseURL      string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1/"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`

	OllamaURL string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	CloudModels       []string `env:"CLOUD_MODELS" envSeparator:"," envDefault:"qwen/qwen3-32b,llama3-70b-8192,compound-beta,gemma2-9b-it,mistral-saba-24b"`
	LocalModels       []string `env:"LOCAL_MODELS" envSeparator:"," envDefault:"qwen3:0.6b,deepseek-r1:1.5b"`
	DefaultCloudModel string   `env:"DEFAULT_CLOUD_MODEL" envDefault:"llama3-70b-8192"`
	DefaultLocalModel string   `env:"DEFAULT_LOCAL_MODEL" envDefault:"qwen3:0.6b"`

	// Requests per second per client address on the chat endpoints; 0 disables.
	ChatRateLimit float64 `env:"CHAT_RATE_LIMIT" envDefault:"2"`
	ChatRateBurst int     `env:"CHAT_RATE_BURST" envDefault:"5"`

	StatsWindow  time.Duration `env:"STATS_WINDOW" envDefault:"1h"`
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadServer reads the backend configuration from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse server env: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Server) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Validate rejects settings the server cannot run with. Missing API keys
// are not errors; they surface per request.
func (c Server) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	switch c.CloudProvider {
	case "groq", "anthropic":
	default:
		return fmt.Errorf("CLOUD_PROVIDER must be groq or anthropic, got %q", c.CloudProvider)
	}
	if c.OllamaURL == "" {
		return fmt.Errorf("OLLAMA_URL is required")
	}
	if c.ChatRateLimit < 0 || c.ChatRateBurst < 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and CHAT_RATE_BURST must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// Client configures the browser front end.
type Client struct {
	Host     string `env:"UI_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"UI_PORT" envDefault:"8501"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000"`

	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"5s"`
	ModelsTimeout time.Duration `env:"MODELS_TIMEOUT" envDefault:"10s"`
	CloudTimeout  time.Duration `env:"CLOUD_TIMEOUT" envDefault:"60s"`
	LocalTimeout  time.Duration `env:"LOCAL_TIMEOUT" envDefault:"120s"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	PageTitle  string        `env:"PAGE_TITLE" envDefault:"AI Assistant"`
}

// LoadClient reads the front end configuration from the environment.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse client env: %w", err)
	}
	return cfg, nil
}

func (c Client) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Client) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("UI_PORT out of range: %d", c.Port)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	for name, d := range map[string]time.Duration{
		"HEALTH_TIMEOUT": c.HealthTimeout,
		"MODELS_TIMEOUT": c.ModelsTimeout,
		"CLOUD_TIMEOUT":  c.CloudTimeout,
		"LOCAL_TIMEOUT":  c.LocalTimeout,
		"SESSION_TTL":    c.SessionTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
