package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fcmolina/docqa/internal/config"
)

// Completer sends one prompt to a text generation service and returns the reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ServiceError is any failure of a completion call: transport, authentication,
// quota or an unusable response. Calls are never retried.
type ServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s api status %d: %s", e.Provider, e.StatusCode, truncate(e.Message, 300))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// New builds the configured provider client, wrapped with latency tracking.
func New(ctx context.Context, cfg config.Config, stats *Stats, log *slog.Logger) (*Instrumented, error) {
	var c Completer
	switch cfg.Provider {
	case "openai":
		c = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.MaxOutputTokens, cfg.CompletionTimeout)
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxOutputTokens, cfg.CompletionTimeout, "")
		if err != nil {
			return nil, err
		}
		c = g
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	return NewInstrumented(c, cfg.Provider, stats, log), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
