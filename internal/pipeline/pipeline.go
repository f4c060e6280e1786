package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fcmolina/docqa/internal/completion"
	"github.com/fcmolina/docqa/internal/document"
	"github.com/fcmolina/docqa/internal/metrics"
	"github.com/fcmolina/docqa/internal/prompt"
	"github.com/fcmolina/docqa/internal/session"
)

var (
	// ErrEmptyQuestion is returned before any work when the question is blank.
	ErrEmptyQuestion = errors.New("digite uma pergunta antes de pesquisar")

	// ErrBusy is returned when the session already has a query in flight.
	ErrBusy = errors.New("uma pergunta já está em andamento")
)

// Phase names the step a query is in, for logging.
type Phase string

const (
	PhaseExtracting Phase = "extracting"
	PhaseAssembling Phase = "assembling"
	PhaseCompleting Phase = "completing"
	PhaseRecording  Phase = "recording"
)

// Pipeline runs one question against one document for a session.
type Pipeline struct {
	library   *document.Library
	completer completion.Completer
	log       *slog.Logger
}

func New(library *document.Library, completer completion.Completer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{library: library, completer: completer, log: log}
}

// Library returns the document folder the pipeline reads from.
func (p *Pipeline) Library() *document.Library {
	return p.library
}

// Ask extracts the document, builds the prompt from the session history and asks
// the completion service. History grows by exactly one entry on success and is left
// untouched on any error.
func (p *Pipeline) Ask(ctx context.Context, sess *session.Session, documentName, question string) (session.Entry, error) {
	// The question is stored and sent exactly as submitted.
	if strings.TrimSpace(question) == "" {
		return session.Entry{}, ErrEmptyQuestion
	}
	if !sess.Begin() {
		return session.Entry{}, ErrBusy
	}
	defer sess.End()

	sess.SetPending(question)
	log := p.log.With("session_id", sess.ID, "document", documentName)

	log.Debug("query phase", "phase", PhaseExtracting)
	doc, err := p.library.Open(documentName)
	if err != nil {
		log.Warn("open document failed", "error", err)
		return session.Entry{}, err
	}
	text, err := document.Extract(doc)
	if err != nil {
		log.Warn("extract document failed", "error", err)
		return session.Entry{}, err
	}
	metrics.ExtractedBytes.Observe(float64(len(text)))

	log.Debug("query phase", "phase", PhaseAssembling)
	history := sess.History()
	full := prompt.Assemble(text, prompt.SerializeHistory(history), question)

	// Document and history are resent in full on every query; prompt size only grows.
	log.Info("asking",
		"phase", PhaseCompleting,
		"history_len", len(history),
		"document_bytes", len(text),
		"prompt_bytes", len(full),
	)
	answer, err := p.completer.Complete(ctx, full)
	if err != nil {
		return session.Entry{}, err
	}

	entry := sess.AppendEntry(question, answer)
	sess.ClearPendingQuestion()
	log.Info("answered", "phase", PhaseRecording, "history_len", len(history)+1)
	return entry, nil
}
