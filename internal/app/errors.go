package app

import "errors"

var (
	// ErrNothingToRank means the session has no job text or no resumes.
	ErrNothingToRank = errors.New("nothing to process")
	// ErrNoReadableDocuments means text extraction failed for every
	// resume in the session.
	ErrNoReadableDocuments = errors.New("no readable documents")
	// ErrEvaluatorFailed means the scoring step produced no result; the
	// session is preserved so the submitter can retry.
	ErrEvaluatorFailed = errors.New("evaluator produced no result")
	// ErrPersistence means the ranking could not be recorded; nothing
	// was committed and the session is preserved.
	ErrPersistence = errors.New("persistence failed")
)
