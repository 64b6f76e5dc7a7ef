// Package session tracks per-submitter intake state: the job
// description and the ids of accepted resumes. Sessions live in process
// memory only; they are short interactive workflows, not durable state.
package session

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSession means the submitter has no active session.
	ErrNoSession = errors.New("no active session")
	// ErrJobTextTooLong means the description exceeds the length limit.
	ErrJobTextTooLong = errors.New("job description too long")
	// ErrHasDocuments means resumes are already attached; the session
	// must be reset before a new description is accepted.
	ErrHasDocuments = errors.New("session already has documents")
	// ErrTooManyDocuments means the per-session resume limit is reached.
	ErrTooManyDocuments = errors.New("too many documents in session")
	// ErrRunInProgress means a ranking run is in flight for the session.
	ErrRunInProgress = errors.New("run already in progress")
)

// Snapshot is a copy of a session's state at one point in time.
type Snapshot struct {
	JobText     string
	DocumentIDs []int64
}

type entry struct {
	mu      sync.Mutex
	jobText string
	docIDs  []int64
	running bool
}

// Manager holds one session per submitter. The map is guarded by its
// own mutex and each entry by another, so submitters never contend
// with each other.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxJobText int
	maxDocs    int
}

// NewManager builds a Manager with the given limits.
func NewManager(maxJobTextChars, maxDocuments int) *Manager {
	return &Manager{
		entries:    make(map[string]*entry),
		maxJobText: maxJobTextChars,
		maxDocs:    maxDocuments,
	}
}

// MaxJobTextChars returns the configured description length limit.
func (m *Manager) MaxJobTextChars() int { return m.maxJobText }

func (m *Manager) get(submitter string) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[submitter]
	return e, ok
}

func (m *Manager) getOrCreate(submitter string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[submitter]
	if !ok {
		e = &entry{}
		m.entries[submitter] = e
	}
	return e
}

// SubmitJobText starts a session, or replaces the description of a
// session that has no resumes attached yet.
func (m *Manager) SubmitJobText(submitter, text string) error {
	if m.maxJobText > 0 && len([]rune(text)) > m.maxJobText {
		return fmt.Errorf("%w: %d chars (limit %d)", ErrJobTextTooLong, len([]rune(text)), m.maxJobText)
	}
	e := m.getOrCreate(submitter)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunInProgress
	}
	if len(e.docIDs) > 0 {
		return ErrHasDocuments
	}
	e.jobText = text
	e.docIDs = nil
	return nil
}

// AddDocument appends a document id. Duplicate ids are allowed; dedup
// is the document store's concern, not the session's.
func (m *Manager) AddDocument(submitter string, id int64) error {
	e, ok := m.get(submitter)
	if !ok {
		return ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrRunInProgress
	}
	if m.maxDocs > 0 && len(e.docIDs) >= m.maxDocs {
		return fmt.Errorf("%w: limit %d", ErrTooManyDocuments, m.maxDocs)
	}
	e.docIDs = append(e.docIDs, id)
	return nil
}

// Snapshot returns a copy of the session state.
func (m *Manager) Snapshot(submitter string) (Snapshot, error) {
	e, ok := m.get(submitter)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), nil
}

func (e *entry) snapshotLocked() Snapshot {
	ids := make([]int64, len(e.docIDs))
	copy(ids, e.docIDs)
	return Snapshot{JobText: e.jobText, DocumentIDs: ids}
}

// BeginRun marks the session busy and returns a snapshot for the
// pipeline. No lock is held by the caller while the run is in flight;
// concurrent mutations and second runs are rejected until EndRun.
func (m *Manager) BeginRun(submitter string) (Snapshot, error) {
	e, ok := m.get(submitter)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return Snapshot{}, ErrRunInProgress
	}
	e.running = true
	return e.snapshotLocked(), nil
}

// EndRun clears the busy mark. When completed is true the session is
// destroyed; otherwise it stays intact so the submitter can retry.
func (m *Manager) EndRun(submitter string, completed bool) {
	e, ok := m.get(submitter)
	if !ok {
		return
	}
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	if completed {
		m.Clear(submitter)
	}
}

// Clear destroys the submitter's session, if any.
func (m *Manager) Clear(submitter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, submitter)
}
