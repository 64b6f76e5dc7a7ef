package store

import (
	"errors"

	"resumescout/pkg/domain"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for documents, job postings, and
// matches.
type Store interface {
	// CreateDocument inserts a document record, or returns the existing
	// record when one with the same fingerprint is already stored. The
	// check-then-insert is atomic: the fingerprint unique constraint is
	// enforced by the storage layer, not the caller. The bool reports
	// whether a new record was created.
	CreateDocument(doc domain.Document) (domain.Document, bool, error)
	GetDocument(id int64) (domain.Document, bool, error)
	GetDocumentByFingerprint(fingerprint string) (domain.Document, bool, error)
	// ListDocuments returns the records for the given ids, in the order
	// requested. Missing ids are skipped.
	ListDocuments(ids []int64) ([]domain.Document, error)
	DocumentCount() (int64, error)

	// SaveRanking writes one job posting plus its match records as a
	// single unit of work. On any failure nothing is committed.
	SaveRanking(posting domain.JobPosting, rawMatches []byte, matches []domain.Match) (domain.JobPosting, error)
	JobPostingCount() (int64, error)
	MatchCount(jobPostingID int64) (int64, error)
}
