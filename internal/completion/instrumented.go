package completion

import (
	"context"
	"log/slog"
	"time"

	"github.com/fcmolina/docqa/internal/metrics"
)

// Instrumented wraps a Completer and records every call's latency and outcome.
type Instrumented struct {
	next     Completer
	provider string
	Stats    *Stats
	log      *slog.Logger
}

func NewInstrumented(next Completer, provider string, stats *Stats, log *slog.Logger) *Instrumented {
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{next: next, provider: provider, Stats: stats, log: log}
}

func (i *Instrumented) Model() string    { return i.next.Model() }
func (i *Instrumented) Provider() string { return i.provider }

func (i *Instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	answer, err := i.next.Complete(ctx, prompt)
	elapsed := time.Since(start)

	i.Stats.Record(elapsed, err != nil)
	metrics.CompletionDuration.WithLabelValues(i.provider).Observe(elapsed.Seconds())

	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(i.provider, "error").Inc()
		i.log.Warn("completion failed",
			"provider", i.provider,
			"model", i.next.Model(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", err
	}

	metrics.CompletionsTotal.WithLabelValues(i.provider, "ok").Inc()
	i.log.Info("completion",
		"provider", i.provider,
		"model", i.next.Model(),
		"prompt_bytes", len(prompt),
		"answer_bytes", len(answer),
		"duration_ms", elapsed.Milliseconds(),
	)
	return answer, nil
}

// Close releases the underlying client's connections when it has any.
func (i *Instrumented) Close() {
	if c, ok := i.next.(interface{ Close() }); ok {
		c.Close()
	}
}
