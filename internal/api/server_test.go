package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fcmolina/docqa/internal/completion"
	"github.com/fcmolina/docqa/internal/document"
	"github.com/fcmolina/docqa/internal/document/pdftest"
	"github.com/fcmolina/docqa/internal/pipeline"
	"github.com/fcmolina/docqa/internal/session"
)

type fakeCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func (f *fakeCompleter) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCompleter) setAnswer(a string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer = a
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type testEnv struct {
	srv   *httptest.Server
	dir   string
	fake  *fakeCompleter
	store *session.Store
}

func newTestEnv(t *testing.T, withPDF bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	if withPDF {
		pdftest.WriteFile(t, dir, "RGI_2024.pdf", "Relatorio de Gestao Integrado da Enap")
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := &fakeCompleter{answer: "Test answer"}
	inst := completion.NewInstrumented(fake, "fake", completion.NewStats(time.Hour), log)
	store := session.NewStore(time.Hour, log)
	pipe := pipeline.New(document.NewLibrary(dir), inst, log)

	srv := httptest.NewServer(NewServer(pipe, store, inst, log))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, dir: dir, fake: fake, store: store}
}

func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func getPage(t *testing.T, c *http.Client, u string) (*goquery.Document, int) {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc, resp.StatusCode
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) (*goquery.Document, int) {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc, resp.StatusCode
}

func TestIndex_NoDocuments(t *testing.T) {
	env := newTestEnv(t, false)
	doc, status := getPage(t, env.client(t), env.srv.URL+"/")

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if doc.Find("#no-documents").Length() != 1 {
		t.Error("expected the no-documents message")
	}
	if doc.Find("input[name=question]").Length() != 0 {
		t.Error("expected no question input without documents")
	}
	if doc.Find("select[name=document]").Length() != 0 {
		t.Error("expected no document selector without documents")
	}
}

func TestIndex_ListsDocuments(t *testing.T) {
	env := newTestEnv(t, true)
	pdftest.WriteFile(t, env.dir, "Anexo.pdf", "anexo")
	os.WriteFile(filepath.Join(env.dir, "readme.txt"), []byte("x"), 0o644)

	doc, _ := getPage(t, env.client(t), env.srv.URL+"/?doc=RGI_2024.pdf")

	var opts []string
	doc.Find("select[name=document] option").Each(func(_ int, s *goquery.Selection) {
		opts = append(opts, s.AttrOr("value", ""))
	})
	if strings.Join(opts, ",") != "Anexo.pdf,RGI_2024.pdf" {
		t.Errorf("unexpected options %v", opts)
	}
	if v := doc.Find("option[selected]").AttrOr("value", ""); v != "RGI_2024.pdf" {
		t.Errorf("expected RGI_2024.pdf selected, got %q", v)
	}
	if doc.Find("button#submit").Length() != 1 {
		t.Error("expected exactly one submit button")
	}
}

func TestAskForm_Scenario(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	doc, status := postForm(t, c, env.srv.URL+"/ask", url.Values{
		"document": {"RGI_2024.pdf"},
		"question": {"What is the document about?"},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", status)
	}
	if !strings.Contains(doc.Find(".alert-success").Text(), successMessage) {
		t.Error("expected success message")
	}
	if v := doc.Find("input[name=question]").AttrOr("value", "missing"); v != "" {
		t.Errorf("expected question field cleared, got %q", v)
	}
	boxes := doc.Find("#history .historico-box")
	if boxes.Length() != 1 {
		t.Fatalf("expected 1 history entry, got %d", boxes.Length())
	}
	if q := strings.TrimSpace(boxes.Find(".question").Text()); q != "What is the document about?" {
		t.Errorf("unexpected question %q", q)
	}
	if a := strings.TrimSpace(boxes.Find(".answer").Text()); a != "Test answer" {
		t.Errorf("unexpected answer %q", a)
	}
	if env.fake.calls() != 1 {
		t.Errorf("expected one completion call, got %d", env.fake.calls())
	}
}

func TestAskForm_HistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	for _, q := range []string{"first", "second", "third"} {
		postForm(t, c, env.srv.URL+"/ask", url.Values{"document": {"RGI_2024.pdf"}, "question": {q}})
	}
	doc, _ := getPage(t, c, env.srv.URL+"/")

	var got []string
	doc.Find("#history .question").Each(func(_ int, s *goquery.Selection) {
		got = append(got, strings.TrimSpace(s.Text()))
	})
	if strings.Join(got, ",") != "third,second,first" {
		t.Errorf("expected newest first, got %v", got)
	}

	// A different client has its own session.
	other, _ := getPage(t, env.client(t), env.srv.URL+"/")
	if other.Find("#history .historico-box").Length() != 0 {
		t.Error("expected a fresh session to have no history")
	}
}

func TestAskForm_EmptyQuestion(t *testing.T) {
	env := newTestEnv(t, true)
	doc, status := postForm(t, env.client(t), env.srv.URL+"/ask", url.Values{
		"document": {"RGI_2024.pdf"},
		"question": {"  "},
	})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if doc.Find(".alert-warning").Length() != 1 {
		t.Error("expected a warning")
	}
	if doc.Find("#history .historico-box").Length() != 0 {
		t.Error("expected no history")
	}
	if env.fake.calls() != 0 {
		t.Errorf("expected no completion call, got %d", env.fake.calls())
	}
}

func TestAskForm_ServiceError(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.setErr(&completion.ServiceError{Provider: "openai", StatusCode: 401, Message: "Incorrect API key"})

	doc, status := postForm(t, env.client(t), env.srv.URL+"/ask", url.Values{
		"document": {"RGI_2024.pdf"},
		"question": {"Why?"},
	})
	if status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", status)
	}
	msg := doc.Find(".alert-danger").Text()
	if !strings.Contains(msg, "Erro ao consultar IA") || !strings.Contains(msg, "Incorrect API key") {
		t.Errorf("expected service error shown verbatim, got %q", msg)
	}
	if v := doc.Find("input[name=question]").AttrOr("value", ""); v != "Why?" {
		t.Errorf("expected question kept, got %q", v)
	}
	if doc.Find("#history .historico-box").Length() != 0 {
		t.Error("expected history unchanged")
	}
}

func TestAskForm_RendersMarkdownSafely(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.setAnswer("**bold** <script>alert(1)</script>")

	doc, _ := postForm(t, env.client(t), env.srv.URL+"/ask", url.Values{
		"document": {"RGI_2024.pdf"},
		"question": {"q"},
	})
	answer := doc.Find("#history .answer")
	if answer.Find("strong").Text() != "bold" {
		t.Error("expected markdown rendered")
	}
	if answer.Find("script").Length() != 0 {
		t.Error("expected raw HTML dropped from answers")
	}
}

func TestAskJSON(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	post := func(body string) (*http.Response, map[string]any) {
		resp, err := c.Post(env.srv.URL+"/api/ask", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var out map[string]any
		json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	resp, out := post(`{"document":"RGI_2024.pdf","question":"What is the document about?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, out)
	}
	if out["answer"] != "Test answer" || out["history_len"] != float64(1) {
		t.Errorf("unexpected response %v", out)
	}

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty question", `{"document":"RGI_2024.pdf","question":""}`, http.StatusBadRequest},
		{"unknown document", `{"document":"nope.pdf","question":"q"}`, http.StatusNotFound},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := post(tc.body)
			if resp.StatusCode != tc.status {
				t.Errorf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			if _, ok := out["error"]; !ok {
				t.Errorf("expected error field, got %v", out)
			}
		})
	}

	os.WriteFile(filepath.Join(env.dir, "broken.pdf"), []byte("not a pdf"), 0o644)
	if resp, _ := post(`{"document":"broken.pdf","question":"q"}`); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unreadable document, got %d", resp.StatusCode)
	}

	env.fake.setErr(&completion.ServiceError{Provider: "openai", Message: "timeout"})
	if resp, _ := post(`{"document":"RGI_2024.pdf","question":"q"}`); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for service error, got %d", resp.StatusCode)
	}

	hresp, err := c.Get(env.srv.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer hresp.Body.Close()
	var hist struct {
		History []session.Entry `json:"history"`
	}
	if err := json.NewDecoder(hresp.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.History) != 1 || hist.History[0].Answer != "Test answer" {
		t.Errorf("expected one recorded entry after failures, got %+v", hist.History)
	}
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t, false)
	resp, err := http.Get(env.srv.URL + "/api/documents")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 with empty folder, got %d", resp.StatusCode)
	}

	pdftest.WriteFile(t, env.dir, "RGI_2024.pdf", "x")
	resp, err = http.Get(env.srv.URL + "/api/documents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out struct {
		Documents []string `json:"documents"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Documents) != 1 || out.Documents[0] != "RGI_2024.pdf" {
		t.Errorf("unexpected documents %v", out.Documents)
	}
}

func TestDocumentFile(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.srv.URL + "/documents/RGI_2024.pdf")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), "%PDF-") {
		t.Errorf("expected the PDF, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/documents/other.pdf")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unlisted file, got %d", resp.StatusCode)
	}
}

func TestStatsHealthMetrics(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)
	postForm(t, c, env.srv.URL+"/ask", url.Values{"document": {"RGI_2024.pdf"}, "question": {"q"}})

	resp, err := c.Get(env.srv.URL + "/api/stats/llm")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out struct {
		Model string                   `json:"model"`
		Stats completion.StatsSnapshot `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Model != "fake-model" || out.Stats.Count != 1 {
		t.Errorf("unexpected stats %+v", out)
	}

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := c.Get(env.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if path == "/metrics" && !strings.Contains(string(body), "docqa_completions_total") {
			t.Error("expected completion metrics to be exported")
		}
	}
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	getPage(t, c, env.srv.URL+"/")
	getPage(t, c, env.srv.URL+"/")
	if env.store.Len() != 1 {
		t.Errorf("expected the cookie to reuse one session, got %d", env.store.Len())
	}

	u, _ := url.Parse(env.srv.URL)
	cookies := c.Jar.Cookies(u)
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	// An unknown id gets a fresh session.
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "expired"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if env.store.Len() != 2 {
		t.Errorf("expected a new session for an unknown cookie, got %d", env.store.Len())
	}
}
