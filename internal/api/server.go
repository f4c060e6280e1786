package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fcmolina/docqa/internal/completion"
	"github.com/fcmolina/docqa/internal/pipeline"
	"github.com/fcmolina/docqa/internal/session"
)

const pageTitle = "RAG com IA e PDFs"

// Server is the HTTP server for docqa: the question page and its JSON API.
type Server struct {
	router    chi.Router
	pipeline  *pipeline.Pipeline
	sessions  *session.Store
	completer *completion.Instrumented
	render    *renderer
	log       *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(pipe *pipeline.Pipeline, sessions *session.Store, completer *completion.Instrumented, log *slog.Logger) *Server {
	s := &Server{
		pipeline:  pipe,
		sessions:  sessions,
		completer: completer,
		render:    newRenderer(),
		log:       log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/stats/llm", s.handleLLMStats)
	r.Get("/documents/{name}", s.handleDocumentFile)
	r.Get("/api/documents", s.handleListDocuments)

	// Everything that reads or changes history needs a session.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions))

		r.Get("/", s.handleIndex)
		r.Post("/ask", s.handleAskForm)

		r.Get("/api/history", s.handleHistory)
		r.Post("/api/ask", s.handleAskJSON)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
