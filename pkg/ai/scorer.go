package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"resumescout/internal/util"
)

const scorerSystemPrompt = "You are an HR expert. Analyze the resumes against the vacancy. " +
	"Return a JSON array of objects with fields: resume_id (number), full_name (string), " +
	"score (integer from 0 to 100), details (string). No explanations outside the array."

const defaultMaxLogLength = 200

// jsonArrayPattern locates the first JSON array of objects embedded in
// free-form model output.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// CandidateDoc is one resume sent to the evaluator.
type CandidateDoc struct {
	ID   int64
	Text string
}

// EvaluatorMatch is one entry of the evaluator's response array. The id
// and score are kept loosely typed; models return numbers and strings
// interchangeably, and coercion is the ranking step's concern.
type EvaluatorMatch struct {
	ResumeID any    `json:"resume_id"`
	FullName string `json:"full_name"`
	Score    any    `json:"score"`
	Details  string `json:"details"`
}

// Scorer batches candidate resumes into a single evaluator request and
// pulls the structured match list out of the free-form reply.
type Scorer struct {
	generator TextGenerator
	timeout   time.Duration
	maxLogLen int
}

// NewScorer wraps a TextGenerator with the scoring protocol.
func NewScorer(generator TextGenerator, timeout time.Duration, maxLogLength int) *Scorer {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Scorer{generator: generator, timeout: timeout, maxLogLen: maxLogLength}
}

// Score sends the vacancy and all candidate texts to the evaluator in
// one request and returns the parsed matches plus the raw array JSON.
// Failures are soft: on timeout, transport error, or unparseable output
// the result is empty and the cause is logged. The caller owns retry
// policy; nothing is retried here.
func (s *Scorer) Score(ctx context.Context, jobText string, docs []CandidateDoc) ([]EvaluatorMatch, []byte) {
	logger := util.LoggerFromContext(ctx)
	if len(docs) == 0 {
		return nil, nil
	}

	prompt := buildScoringPrompt(jobText, docs)
	logger.Debug("evaluator request",
		"candidates", len(docs),
		"job_text_chars", len([]rune(jobText)),
		"prompt_preview", util.TruncateForLog(prompt, s.maxLogLen),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.generator.GenerateText(ctx, scorerSystemPrompt, prompt)
	if err != nil {
		logger.Error("evaluator call failed", "err", err)
		return nil, nil
	}
	logger.Debug("evaluator response",
		"response_chars", len(raw),
		"response_preview", util.TruncateForLog(raw, s.maxLogLen),
	)

	matches, arrayJSON, err := parseMatches(raw)
	if err != nil {
		logger.Error("evaluator response unparseable", "err", err,
			"response_preview", util.TruncateForLog(raw, s.maxLogLen))
		return nil, nil
	}
	return matches, arrayJSON
}

// buildScoringPrompt lists every candidate in full. Texts are truncated
// only in log previews, never in the judged payload.
func buildScoringPrompt(jobText string, docs []CandidateDoc) string {
	var b strings.Builder
	b.WriteString("Vacancy: ")
	b.WriteString(jobText)
	b.WriteString("\n\nResumes:\n")
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "ID: %d\nText: %s", doc.ID, doc.Text)
	}
	return b.String()
}

// parseMatches finds the first well-formed JSON array of match objects
// in the reply. Models wrap arrays in prose or code fences, so the
// array is located by pattern rather than decoded from the whole body.
func parseMatches(raw string) ([]EvaluatorMatch, []byte, error) {
	loc := jsonArrayPattern.FindString(raw)
	if loc == "" {
		return nil, nil, fmt.Errorf("no JSON array found in evaluator response")
	}
	var matches []EvaluatorMatch
	if err := json.Unmarshal([]byte(loc), &matches); err != nil {
		return nil, nil, fmt.Errorf("decode evaluator matches: %w", err)
	}
	return matches, []byte(loc), nil
}
