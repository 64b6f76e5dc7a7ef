// Package app wires the intake pipeline into the submitter-facing
// workflow: collect a job description and resumes per session, then on
// demand score, rank, persist, and report top candidates.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"resumescout/internal/session"
	"resumescout/internal/util"
	"resumescout/pkg/ai"
	"resumescout/pkg/docstore"
	"resumescout/pkg/domain"
	"resumescout/pkg/ranking"
	"resumescout/pkg/store"
)

const extractConcurrency = 4

// Config holds the orchestrator's dependencies and limits.
type Config struct {
	Store     store.Store
	Documents *docstore.DocumentStore
	Scorer    *ai.Scorer
	Sessions  *session.Manager

	MaxFileSizeBytes int64
	MaxResumes       int
	TopN             int
}

// App orchestrates sessions, document storage, scoring, and ranking.
type App struct {
	store     store.Store
	documents *docstore.DocumentStore
	scorer    *ai.Scorer
	sessions  *session.Manager

	maxFileSize int64
	maxResumes  int
	topN        int
}

// New validates and assembles the orchestrator.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Documents == nil {
		return nil, fmt.Errorf("document store required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 5
	}
	return &App{
		store:       cfg.Store,
		documents:   cfg.Documents,
		scorer:      cfg.Scorer,
		sessions:    cfg.Sessions,
		maxFileSize: cfg.MaxFileSizeBytes,
		maxResumes:  cfg.MaxResumes,
		topN:        topN,
	}, nil
}

// SubmitJobText records the vacancy description and opens (or reopens)
// the submitter's session.
func (a *App) SubmitJobText(ctx context.Context, submitter, text string) (string, error) {
	if err := a.sessions.SubmitJobText(submitter, text); err != nil {
		return "", err
	}
	util.LoggerFromContext(ctx).Info("job text accepted",
		"submitter", submitter, "chars", len([]rune(text)))
	return fmt.Sprintf(
		"Job description saved (%d chars). Now upload resumes (PDF/DOCX). Limit: %d files, each up to %d MB.",
		len([]rune(text)), a.maxResumes, a.maxFileSize/1024/1024,
	), nil
}

// SubmitDocument stores an uploaded resume and attaches it to the
// session. The declared size is checked before the payload is read
// where the transport allows it; the stored-size check happens again in
// the document store.
func (a *App) SubmitDocument(ctx context.Context, submitter, filename string, declaredSize int64, data []byte) (string, error) {
	logger := util.LoggerFromContext(ctx)
	if _, err := a.sessions.Snapshot(submitter); err != nil {
		return "", err
	}
	if a.maxFileSize > 0 && declaredSize > a.maxFileSize {
		return "", fmt.Errorf("%w: declared %d bytes (limit %d)", docstore.ErrFileTooLarge, declaredSize, a.maxFileSize)
	}

	doc, err := a.documents.Put(ctx, data, filename, submitter)
	if err != nil {
		return "", err
	}
	if err := a.sessions.AddDocument(submitter, doc.ID); err != nil {
		return "", err
	}
	snap, err := a.sessions.Snapshot(submitter)
	if err != nil {
		return "", err
	}
	logger.Info("resume attached",
		"submitter", submitter, "document_id", doc.ID, "count", len(snap.DocumentIDs))
	return fmt.Sprintf(
		"Resume %q accepted. Resumes in session: %d. Add more or run the analysis.",
		filename, len(snap.DocumentIDs),
	), nil
}

// Run executes the full pipeline for the submitter's session. The
// session is read before the evaluator call and cleared only after
// persistence succeeds; every failure leaves it intact for a retry.
func (a *App) Run(ctx context.Context, submitter string) (string, error) {
	logger := util.LoggerFromContext(ctx)
	snap, err := a.sessions.BeginRun(submitter)
	if err != nil {
		return "", err
	}
	completed := false
	defer func() { a.sessions.EndRun(submitter, completed) }()

	if strings.TrimSpace(snap.JobText) == "" || len(snap.DocumentIDs) == 0 {
		return "", ErrNothingToRank
	}

	docs, err := a.store.ListDocuments(uniqueIDs(snap.DocumentIDs))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(docs) == 0 {
		logger.Warn("no session documents found in store", "submitter", submitter)
		return "", ErrNoReadableDocuments
	}

	candidates := a.extractTexts(ctx, docs)
	if len(candidates) == 0 {
		return "", ErrNoReadableDocuments
	}
	logger.Info("scoring candidates",
		"submitter", submitter, "candidates", len(candidates), "job_text_chars", len([]rune(snap.JobText)))

	matches, rawMatches := a.scorer.Score(ctx, snap.JobText, candidates)
	if len(matches) == 0 {
		return "", ErrEvaluatorFailed
	}

	top, dropped, err := ranking.SelectTop(matches, a.topN)
	if err != nil {
		return "", err
	}
	if dropped > 0 {
		logger.Warn("evaluator entries dropped during validation",
			"submitter", submitter, "dropped", dropped, "kept", len(top))
	}

	posting, err := a.store.SaveRanking(domain.JobPosting{
		OwnerID:     submitter,
		Description: snap.JobText,
		CreatedAt:   nowUTC(),
	}, rawMatches, top)
	if err != nil {
		logger.Error("ranking persistence failed", "submitter", submitter, "err", err)
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	completed = true
	logger.Info("ranking completed",
		"submitter", submitter, "job_posting_id", posting.ID, "matches", len(top))
	return renderTop(top), nil
}

// extractTexts re-extracts each document's text with bounded
// concurrency. A document that cannot be read or parsed is logged and
// skipped; the rest of the batch proceeds.
func (a *App) extractTexts(ctx context.Context, docs []domain.Document) []ai.CandidateDoc {
	logger := util.LoggerFromContext(ctx)
	var (
		mu    sync.Mutex
		texts = make(map[int64]string, len(docs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for _, doc := range docs {
		g.Go(func() error {
			text, err := a.documents.GetText(gctx, doc.ID)
			if err != nil {
				logger.Warn("skipping unreadable document", "document_id", doc.ID, "err", err)
				return nil
			}
			mu.Lock()
			texts[doc.ID] = text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]ai.CandidateDoc, 0, len(texts))
	for _, doc := range docs {
		if text, ok := texts[doc.ID]; ok {
			candidates = append(candidates, ai.CandidateDoc{ID: doc.ID, Text: text})
		}
	}
	return candidates
}

// Status reports the current session state.
func (a *App) Status(submitter string) string {
	snap, err := a.sessions.Snapshot(submitter)
	if err != nil {
		return "No active session. Send a job description to start."
	}
	return fmt.Sprintf(
		"Current session:\nJob description: %d chars\nResumes: %d files\nRun the analysis when ready.",
		len([]rune(snap.JobText)), len(snap.DocumentIDs),
	)
}

// Reset destroys the submitter's session.
func (a *App) Reset(submitter string) string {
	a.sessions.Clear(submitter)
	return "Session cleared. Send a job description to start over."
}

// Help returns usage text.
func (a *App) Help() string {
	return fmt.Sprintf(
		"Resume screening assistant.\n\n"+
			"1. Send the vacancy description as text (up to %d chars).\n"+
			"2. Upload resumes in PDF or DOCX (up to %d files, each up to %d MB).\n"+
			"3. Run the analysis to get the top %d candidates scored 0-100.\n\n"+
			"Commands: run, status, reset, help.",
		a.sessions.MaxJobTextChars(), a.maxResumes, a.maxFileSize/1024/1024, a.topN,
	)
}

func renderTop(matches []domain.Match) string {
	lines := make([]string, 0, len(matches)+1)
	lines = append(lines, fmt.Sprintf("Top %d candidates:", len(matches)))
	for _, m := range matches {
		name := m.FullName
		if name == "" {
			name = "Name not provided"
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %d/100", m.Rank, name, m.Score))
	}
	return strings.Join(lines, "\n")
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
