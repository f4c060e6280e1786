package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/fcmolina/docqa/internal/document"
	"github.com/fcmolina/docqa/internal/pipeline"
	"github.com/fcmolina/docqa/internal/session"
)

const successMessage = "Resposta gerada com sucesso!"

// handleIndex renders the question page for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q := r.URL.Query()

	data := s.basePage(sess, q.Get("doc"))
	if q.Get("ok") == "1" && !data.NoDocuments {
		data.Success = successMessage
	}
	s.writePage(w, http.StatusOK, data)
}

// handleAskForm runs one query from the HTML form. Success redirects back to the
// page; any failure re-renders it with the message and the typed question kept.
func (s *Server) handleAskForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r.Context())
	docName := r.PostFormValue("document")
	question := r.PostFormValue("question")

	_, err := s.pipeline.Ask(r.Context(), sess, docName, question)
	if err == nil {
		http.Redirect(w, r, "/?ok=1&doc="+url.QueryEscape(docName), http.StatusSeeOther)
		return
	}

	status, msg := classify(err)
	data := s.basePage(sess, docName)
	data.Question = question
	if errors.Is(err, pipeline.ErrEmptyQuestion) {
		data.Warning = msg
	} else {
		data.Error = msg
	}
	s.writePage(w, status, data)
}

// basePage lists the folder and fills the form and history for sess.
func (s *Server) basePage(sess *session.Session, selected string) pageData {
	data := pageData{
		Title:    pageTitle,
		Question: sess.Pending(),
		History:  s.render.newestFirst(sess.History()),
	}

	names, err := s.pipeline.Library().List()
	if err != nil {
		data.NoDocuments = true
		if !errors.Is(err, document.ErrNoDocuments) {
			s.log.Error("list documents failed", "error", err)
			data.Error = "Não foi possível listar os documentos: " + err.Error()
		}
		return data
	}

	data.Documents = names
	if slices.Contains(names, selected) {
		data.Selected = selected
	} else {
		data.Selected = names[0]
	}
	return data
}

func (s *Server) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.render.page(&buf, data); err != nil {
		s.log.Error("render page failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
