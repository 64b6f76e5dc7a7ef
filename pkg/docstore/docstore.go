// Package docstore is content-addressed storage for uploaded resumes.
// The address is a digest of the document's extracted text, so two
// files that extract to identical text share one record even when their
// raw bytes differ.
package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"resumescout/internal/util"
	"resumescout/pkg/domain"
	"resumescout/pkg/extract"
	"resumescout/pkg/storage"
	"resumescout/pkg/store"
)

// ErrFileTooLarge is returned when an upload exceeds the size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// DocumentStore persists resume files and their metadata.
type DocumentStore struct {
	objects     storage.ObjectStore
	records     store.Store
	maxFileSize int64
}

// New wires object storage and the record store.
func New(objects storage.ObjectStore, records store.Store, maxFileSize int64) *DocumentStore {
	return &DocumentStore{
		objects:     objects,
		records:     records,
		maxFileSize: maxFileSize,
	}
}

// Put stores a resume file and returns its document record. When a
// document with the same extracted-text fingerprint already exists, the
// existing record is returned and no new storage is written.
func (d *DocumentStore) Put(ctx context.Context, raw []byte, filename, owner string) (domain.Document, error) {
	logger := util.LoggerFromContext(ctx)
	if d.maxFileSize > 0 && int64(len(raw)) > d.maxFileSize {
		return domain.Document{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(raw), d.maxFileSize)
	}

	text, err := extract.Text(filename, raw)
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract %s: %w", filename, err)
	}

	sum := sha256.Sum256([]byte(text))
	fingerprint := hex.EncodeToString(sum[:])

	if existing, ok, err := d.records.GetDocumentByFingerprint(fingerprint); err != nil {
		return domain.Document{}, fmt.Errorf("lookup fingerprint: %w", err)
	} else if ok {
		logger.Info("document already stored",
			"document_id", existing.ID, "fingerprint", fingerprint, "filename", filename)
		return existing, nil
	}

	key := objectKey(owner, fingerprint)
	if err := d.objects.Put(ctx, key, raw); err != nil {
		return domain.Document{}, fmt.Errorf("store object: %w", err)
	}

	doc, created, err := d.records.CreateDocument(domain.Document{
		Fingerprint:      fingerprint,
		StorageKey:       key,
		OriginalFilename: filename,
		SizeBytes:        int64(len(raw)),
		OwnerID:          owner,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("create document record: %w", err)
	}
	if !created {
		// Lost a race against a concurrent upload of identical content.
		// Keep the winner's object; drop ours if it lives under another key.
		if doc.StorageKey != key {
			if err := d.objects.Delete(ctx, key); err != nil {
				logger.Warn("orphan object cleanup failed", "key", key, "err", err)
			}
		}
		logger.Info("document stored concurrently elsewhere",
			"document_id", doc.ID, "fingerprint", fingerprint)
		return doc, nil
	}
	logger.Info("document stored",
		"document_id", doc.ID, "fingerprint", fingerprint,
		"filename", filename, "size_bytes", len(raw))
	return doc, nil
}

// GetText re-extracts the plain text of a stored document. Extracted
// text is not cached; every call reads and parses the stored bytes.
func (d *DocumentStore) GetText(ctx context.Context, id int64) (string, error) {
	doc, ok, err := d.records.GetDocument(id)
	if err != nil {
		return "", fmt.Errorf("get document %d: %w", id, err)
	}
	if !ok {
		return "", fmt.Errorf("document %d: %w", id, store.ErrNotFound)
	}
	raw, err := d.objects.Get(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("read document %d: %w", id, err)
	}
	text, err := extract.Text(doc.OriginalFilename, raw)
	if err != nil {
		return "", fmt.Errorf("extract document %d: %w", id, err)
	}
	return text, nil
}

func objectKey(owner, fingerprint string) string {
	return fmt.Sprintf("resumes/%s/%s", owner, fingerprint)
}
