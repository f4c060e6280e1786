package completion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fcmolina/docqa/internal/config"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInstrumented_RecordsSuccessAndFailure(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	inst := NewInstrumented(fake, "fake", NewStats(time.Hour), quietLogger())

	answer, err := inst.Complete(context.Background(), "p")
	if err != nil || answer != "ok" {
		t.Fatalf("unexpected result %q, %v", answer, err)
	}

	fake.err = &ServiceError{Provider: "fake", Message: "down"}
	if _, err := inst.Complete(context.Background(), "p"); err == nil {
		t.Fatal("expected error to pass through")
	}

	snap := inst.Stats.Snapshot()
	if snap.Count != 2 || snap.Failures != 1 {
		t.Errorf("expected count=2 failures=1, got %+v", snap)
	}
	if fake.calls != 2 {
		t.Errorf("expected exactly 2 calls without retry, got %d", fake.calls)
	}
	if inst.Model() != "fake-model" || inst.Provider() != "fake" {
		t.Errorf("unexpected model/provider %q/%q", inst.Model(), inst.Provider())
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := config.Config{Provider: "openai", OpenAIAPIKey: "k", OpenAIModel: "gpt-4o-mini", MaxOutputTokens: 200}
	c, err := New(context.Background(), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.next.(*OpenAIClient); !ok {
		t.Errorf("expected OpenAI client, got %T", c.next)
	}

	cfg = config.Config{Provider: "gemini", GeminiAPIKey: "k", GeminiModel: "gemini-2.0-flash"}
	c, err = New(context.Background(), cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.next.(*GeminiClient); !ok {
		t.Errorf("expected Gemini client, got %T", c.next)
	}

	if _, err := New(context.Background(), config.Config{Provider: "other"}, nil, quietLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestServiceError_Message(t *testing.T) {
	withStatus := &ServiceError{Provider: "openai", StatusCode: 401, Message: "bad key"}
	if withStatus.Error() != "openai api status 401: bad key" {
		t.Errorf("unexpected message %q", withStatus.Error())
	}
	cause := errors.New("dial tcp: refused")
	wrapped := &ServiceError{Provider: "openai", Message: "request failed", Err: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("expected ServiceError to unwrap to its cause")
	}
}
