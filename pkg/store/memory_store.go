package store

import (
	"sync"

	"resumescout/pkg/domain"
)

// MemoryStore keeps records in-process. Used when no database is
// configured and by tests.
type MemoryStore struct {
	mu            sync.Mutex
	nextDocID     int64
	nextPostingID int64
	docs          map[int64]domain.Document
	byFingerprint map[string]int64
	postings      map[int64]domain.JobPosting
	rawMatches    map[int64][]byte
	matches       map[int64][]domain.Match
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextDocID:     1,
		nextPostingID: 1,
		docs:          make(map[int64]domain.Document),
		byFingerprint: make(map[string]int64),
		postings:      make(map[int64]domain.JobPosting),
		rawMatches:    make(map[int64][]byte),
		matches:       make(map[int64][]domain.Match),
	}
}

func (m *MemoryStore) CreateDocument(doc domain.Document) (domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byFingerprint[doc.Fingerprint]; ok {
		return m.docs[id], false, nil
	}
	doc.ID = m.nextDocID
	m.nextDocID++
	m.docs[doc.ID] = doc
	m.byFingerprint[doc.Fingerprint] = doc.ID
	return doc, true, nil
}

func (m *MemoryStore) GetDocumentByFingerprint(fingerprint string) (domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byFingerprint[fingerprint]
	if !ok {
		return domain.Document{}, false, nil
	}
	return m.docs[id], true, nil
}

func (m *MemoryStore) GetDocument(id int64) (domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	return doc, ok, nil
}

func (m *MemoryStore) ListDocuments(ids []int64) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MemoryStore) DocumentCount() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.docs)), nil
}

func (m *MemoryStore) SaveRanking(posting domain.JobPosting, rawMatches []byte, matches []domain.Match) (domain.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	posting.ID = m.nextPostingID
	m.nextPostingID++
	m.postings[posting.ID] = posting
	m.rawMatches[posting.ID] = rawMatches
	saved := make([]domain.Match, len(matches))
	copy(saved, matches)
	for i := range saved {
		saved[i].JobPostingID = posting.ID
	}
	m.matches[posting.ID] = saved
	return posting, nil
}

func (m *MemoryStore) JobPostingCount() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.postings)), nil
}

func (m *MemoryStore) MatchCount(jobPostingID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matches[jobPostingID])), nil
}

// Matches returns the saved match batch for a posting. Test helper.
func (m *MemoryStore) Matches(jobPostingID int64) []domain.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Match, len(m.matches[jobPostingID]))
	copy(out, m.matches[jobPostingID])
	return out
}
