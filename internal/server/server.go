// Package server exposes the inbound event surface over HTTP: job text,
// resume uploads, and trigger commands, each addressed to a submitter.
// Replies are the plain-text messages the submitter would see in a chat.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"resumescout/internal/app"
	"resumescout/internal/session"
	"resumescout/internal/util"
	"resumescout/pkg/docstore"
	"resumescout/pkg/extract"
	"resumescout/pkg/ranking"
)

// Limiter bounds events per submitter. Nil disables limiting.
type Limiter interface {
	Allow(submitter string) bool
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        Limiter
	MaxUploadBytes int64
}

// Server routes inbound events to the orchestrator.
type Server struct {
	app            *app.App
	limiter        Limiter
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		maxUploadBytes: cfg.MaxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithRequestID(util.WithRequestLog(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/events/text", s.handleText)
	s.mux.HandleFunc("/events/document", s.handleDocument)
	s.mux.HandleFunc("/events/command", s.handleCommand)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type textEvent struct {
	Submitter string `json:"submitter"`
	Text      string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req textEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Submitter == "" {
		writeError(w, http.StatusBadRequest, "submitter is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if !s.allow(req.Submitter) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	reply, err := s.app.SubmitJobText(r.Context(), req.Submitter, req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeReply(w, http.StatusOK, reply)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.maxUploadBytes > 0 {
		// Headroom for the multipart envelope around the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	submitter := r.FormValue("submitter")
	if submitter == "" {
		writeError(w, http.StatusBadRequest, "submitter is required")
		return
	}
	if !s.allow(submitter) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	if !extract.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest, "Only PDF and DOCX files are supported.")
		return
	}
	// Declared size is checked before the payload is read.
	if s.maxUploadBytes > 0 && header.Size > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File is too large.")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	reply, err := s.app.SubmitDocument(r.Context(), submitter, header.Filename, header.Size, data)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeReply(w, http.StatusCreated, reply)
}

type commandEvent struct {
	Submitter string `json:"submitter"`
	Command   string `json:"command"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req commandEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Submitter == "" {
		writeError(w, http.StatusBadRequest, "submitter is required")
		return
	}
	if !s.allow(req.Submitter) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Command)) {
	case "run":
		reply, err := s.app.Run(r.Context(), req.Submitter)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeReply(w, http.StatusOK, reply)
	case "status":
		writeReply(w, http.StatusOK, s.app.Status(req.Submitter))
	case "reset":
		writeReply(w, http.StatusOK, s.app.Reset(req.Submitter))
	case "help":
		writeReply(w, http.StatusOK, s.app.Help())
	default:
		writeError(w, http.StatusBadRequest, "unknown command (want run, status, reset, or help)")
	}
}

func (s *Server) allow(submitter string) bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow(submitter)
}

// writeAppError translates pipeline errors into user-facing replies.
// Soft failures keep the session intact, so the messages point the
// submitter at a retry or a reset rather than a dead end.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, "Send a job description first.")
	case errors.Is(err, session.ErrJobTextTooLong):
		writeError(w, http.StatusBadRequest, "The description is too long.")
	case errors.Is(err, session.ErrHasDocuments):
		writeError(w, http.StatusConflict, "Resumes are already uploaded. Reset the session to start over.")
	case errors.Is(err, session.ErrTooManyDocuments):
		writeError(w, http.StatusBadRequest, "Resume limit reached for this session.")
	case errors.Is(err, session.ErrRunInProgress):
		writeError(w, http.StatusConflict, "Analysis is already running. Please wait.")
	case errors.Is(err, docstore.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File is too large.")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Only PDF and DOCX files are supported.")
	case errors.Is(err, extract.ErrNoTextExtracted):
		writeError(w, http.StatusUnprocessableEntity, "Could not extract any text from the file.")
	case errors.Is(err, app.ErrNothingToRank):
		writeError(w, http.StatusConflict, "Nothing to process. Send a job description and upload resumes first.")
	case errors.Is(err, app.ErrNoReadableDocuments):
		writeError(w, http.StatusUnprocessableEntity, "Could not extract text from the uploaded resumes.")
	case errors.Is(err, app.ErrEvaluatorFailed):
		writeError(w, http.StatusBadGateway, "Could not analyze the resumes. Please try again.")
	case errors.Is(err, ranking.ErrNoValidMatches):
		writeError(w, http.StatusBadGateway, "The analysis returned no usable matches. Please try again.")
	case errors.Is(err, app.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "Something went wrong while saving the results. Please try again.")
	default:
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeReply(w http.ResponseWriter, status int, reply string) {
	writeJSON(w, status, map[string]string{"reply": reply})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
