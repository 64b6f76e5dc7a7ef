package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumescout/internal/app"
	"resumescout/internal/session"
	"resumescout/pkg/ai"
	"resumescout/pkg/docstore"
	"resumescout/pkg/storage"
	"resumescout/pkg/store"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, nil
}

type fixedLimiter struct{ allow bool }

func (l fixedLimiter) Allow(string) bool { return l.allow }

func newTestServer(t *testing.T, limiter Limiter) *Server {
	t.Helper()
	objects, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	records := store.NewMemoryStore()
	gen := &stubGenerator{response: `[{"resume_id": 1, "full_name": "Alice Adams", "score": 90, "details": "ok"}]`}
	a, err := app.New(app.Config{
		Store:            records,
		Documents:        docstore.New(objects, records, 5*1024*1024),
		Scorer:           ai.NewScorer(gen, 30*time.Second, 200),
		Sessions:         session.NewManager(5000, 50),
		MaxFileSizeBytes: 5 * 1024 * 1024,
		MaxResumes:       50,
		TopN:             5,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: a, Limiter: limiter, MaxUploadBytes: 5 * 1024 * 1024})
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, para := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		body.WriteString(para)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(body.String())); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, handler http.Handler, submitter, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("submitter", submitter); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/events/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, nil).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeReply(t, rec)["status"] != "ok" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestTextEvent(t *testing.T) {
	router := newTestServer(t, nil).Router()
	rec := postJSON(t, router, "/events/text", map[string]string{
		"submitter": "hr-1",
		"text":      "Senior Go Engineer",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if reply := decodeReply(t, rec)["reply"]; !strings.Contains(reply, "Job description saved") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestTextEventValidation(t *testing.T) {
	router := newTestServer(t, nil).Router()
	cases := []struct {
		name    string
		payload map[string]string
	}{
		{"missing submitter", map[string]string{"text": "Senior Go Engineer"}},
		{"missing text", map[string]string{"submitter": "hr-1"}},
		{"blank text", map[string]string{"submitter": "hr-1", "text": "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/events/text", tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestDocumentWithoutSession(t *testing.T) {
	router := newTestServer(t, nil).Router()
	rec := postFile(t, router, "hr-1", "alice.docx", buildDocx(t, "Alice Adams"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDocumentUnsupportedExtension(t *testing.T) {
	router := newTestServer(t, nil).Router()
	postJSON(t, router, "/events/text", map[string]string{"submitter": "hr-1", "text": "Senior Go Engineer"})
	rec := postFile(t, router, "hr-1", "resume.txt", []byte("plain text"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFullFlowOverHTTP(t *testing.T) {
	router := newTestServer(t, nil).Router()

	rec := postJSON(t, router, "/events/text", map[string]string{"submitter": "hr-1", "text": "Senior Go Engineer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("text: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postFile(t, router, "hr-1", "alice.docx", buildDocx(t, "Alice Adams", "8 years of Go"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("document: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/events/command", map[string]string{"submitter": "hr-1", "command": "run"})
	if rec.Code != http.StatusOK {
		t.Fatalf("run: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	reply := decodeReply(t, rec)["reply"]
	if !strings.Contains(reply, "1. Alice Adams - 90/100") {
		t.Fatalf("unexpected run reply: %q", reply)
	}
}

func TestCommandUnknown(t *testing.T) {
	router := newTestServer(t, nil).Router()
	rec := postJSON(t, router, "/events/command", map[string]string{"submitter": "hr-1", "command": "destroy"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCommandRunWithoutSession(t *testing.T) {
	router := newTestServer(t, nil).Router()
	rec := postJSON(t, router, "/events/command", map[string]string{"submitter": "hr-1", "command": "run"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCommandHelpAndStatus(t *testing.T) {
	router := newTestServer(t, nil).Router()
	rec := postJSON(t, router, "/events/command", map[string]string{"submitter": "hr-1", "command": "help"})
	if rec.Code != http.StatusOK {
		t.Fatalf("help: expected 200, got %d", rec.Code)
	}
	if reply := decodeReply(t, rec)["reply"]; !strings.Contains(reply, "Commands: run, status, reset, help.") {
		t.Fatalf("unexpected help reply: %q", reply)
	}

	rec = postJSON(t, router, "/events/command", map[string]string{"submitter": "hr-1", "command": "status"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
}

func TestRateLimited(t *testing.T) {
	router := newTestServer(t, fixedLimiter{allow: false}).Router()
	rec := postJSON(t, router, "/events/text", map[string]string{"submitter": "hr-1", "text": "Senior Go Engineer"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestServer(t, nil).Router()
	for _, path := range []string{"/events/text", "/events/document", "/events/command"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rec.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestServer(t, nil).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}
