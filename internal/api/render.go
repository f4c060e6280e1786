package api

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/fcmolina/docqa/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// historyItem is one rendered history entry.
type historyItem struct {
	Question string
	Answer   template.HTML
}

type pageData struct {
	Title     string
	Documents []string
	Selected  string
	Question  string
	History   []historyItem

	// NoDocuments hides the question form.
	NoDocuments bool
	Error       string
	Warning     string
	Success     string
}

// renderer turns answers into HTML and executes the page template.
type renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

func newRenderer() *renderer {
	return &renderer{
		tmpl: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		// Raw HTML in answers is dropped; goldmark is not configured WithUnsafe.
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *renderer) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// newestFirst renders the history for display, most recent entry on top.
func (r *renderer) newestFirst(entries []session.Entry) []historyItem {
	items := make([]historyItem, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		items = append(items, historyItem{
			Question: entries[i].Question,
			Answer:   r.markdown(entries[i].Answer),
		})
	}
	return items
}

func (r *renderer) page(w io.Writer, data pageData) error {
	return r.tmpl.ExecuteTemplate(w, "index.html", data)
}
