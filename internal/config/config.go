package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SetupMessage is shown when the completion credential is missing.
const SetupMessage = "A chave da API não foi encontrada. Verifique o arquivo .env."

type Config struct {
	Port string

	// Folder holding the selectable PDF files.
	DocumentDir string

	// Completion provider: "openai" or "gemini".
	Provider string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey string
	GeminiModel  string

	MaxOutputTokens   int
	CompletionTimeout time.Duration

	// Idle time after which a session is dropped.
	SessionTTL time.Duration
}

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// Load reads the optional env file and then the process environment.
// Variables already set in the environment take precedence over the file.
func Load() Config {
	envFile := envOr("ENV_FILE", ".env")
	_ = godotenv.Load(envFile) // a missing file is not an error

	cfg := Config{
		Port:        envOr("PORT", "8501"),
		DocumentDir: envOr("PDF_FOLDER", "pdfs/"),
		Provider:    envOr("COMPLETION_PROVIDER", "openai"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),

		MaxOutputTokens:   envInt("MAX_OUTPUT_TOKENS", 200),
		CompletionTimeout: envDuration("COMPLETION_TIMEOUT", 120*time.Second),

		SessionTTL: envDuration("SESSION_TTL", 12*time.Hour),
	}

	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 200
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 120 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return &ConfigurationError{Key: "OPENAI_API_KEY", Reason: "is required"}
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is required"}
		}
	default:
		return &ConfigurationError{Key: "COMPLETION_PROVIDER", Reason: fmt.Sprintf("has unknown value %q", c.Provider)}
	}
	if c.DocumentDir == "" {
		return &ConfigurationError{Key: "PDF_FOLDER", Reason: "is required"}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
