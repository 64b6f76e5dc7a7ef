package domain

import "time"

// Document is a stored resume, addressed by the fingerprint of its
// extracted text. Two uploads that extract to the same text share one
// Document regardless of filename or byte-level differences.
type Document struct {
	ID               int64     `json:"id"`
	Fingerprint      string    `json:"-"`
	StorageKey       string    `json:"-"`
	OriginalFilename string    `json:"originalFilename"`
	SizeBytes        int64     `json:"sizeBytes"`
	OwnerID          string    `json:"ownerId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// JobPosting is a vacancy description recorded once per completed
// ranking run.
type JobPosting struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Match pairs a document with a job posting. Score is an integer in
// [0,100]; Details holds the evaluator's free-text rationale.
type Match struct {
	JobPostingID int64  `json:"jobPostingId"`
	DocumentID   int64  `json:"documentId"`
	FullName     string `json:"fullName"`
	Score        int    `json:"score"`
	Details      string `json:"details"`
	Rank         int    `json:"rank"`
}
