package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fcmolina/docqa/internal/completion"
	"github.com/fcmolina/docqa/internal/document"
	"github.com/fcmolina/docqa/internal/pipeline"
)

type askRequest struct {
	Document string `json:"document"`
	Question string `json:"question"`
}

func (s *Server) handleAskJSON(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess := sessionFrom(r.Context())
	entry, err := s.pipeline.Ask(r.Context(), sess, req.Document, req.Question)
	if err != nil {
		status, msg := classify(err)
		jsonError(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"question":    entry.Question,
		"answer":      entry.Answer,
		"asked_at":    entry.AskedAt.Format(time.RFC3339),
		"history_len": sess.Len(),
	})
}

// handleHistory returns the session history, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": sess.ID,
		"pending":    sess.Pending(),
		"history":    sess.History(),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.pipeline.Library().List()
	if err != nil {
		status, msg := classify(err)
		jsonError(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": names})
}

// handleDocumentFile serves a listed PDF as-is.
func (s *Server) handleDocumentFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.pipeline.Library().Path(chi.URLParam(r, "name"))
	if err != nil {
		status, msg := classify(err)
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// classify maps a query error to an HTTP status and the message shown to the user.
func classify(err error) (int, string) {
	var readErr *document.ReadError
	var svcErr *completion.ServiceError
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuestion):
		return http.StatusBadRequest, "Digite uma pergunta antes de pesquisar."
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict, "Uma pergunta já está em andamento. Aguarde a resposta."
	case errors.Is(err, document.ErrNoDocuments):
		return http.StatusNotFound, "Nenhum PDF encontrado na pasta de documentos. Adicione arquivos e reinicie o app."
	case errors.Is(err, document.ErrUnknownDocument):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &readErr):
		return http.StatusUnprocessableEntity, "Não foi possível ler o documento: " + readErr.Error()
	case errors.As(err, &svcErr):
		return http.StatusBadGateway, "Erro ao consultar IA: " + svcErr.Error()
	default:
		return http.StatusInternalServerError, "Erro interno: " + err.Error()
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
