package docstore

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"resumescout/pkg/storage"
	"resumescout/pkg/store"
)

// buildDocx produces a minimal DOCX. Extra entries pad the archive so
// two files with identical text can have different raw bytes.
func buildDocx(t *testing.T, paragraphs []string, extraEntry string) []byte {
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
	if extraEntry != "" {
		pad, err := zw.Create("docProps/custom.xml")
		if err != nil {
			t.Fatalf("create padding entry: %v", err)
		}
		if _, err := pad.Write([]byte(extraEntry)); err != nil {
			t.Fatalf("write padding entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T, maxFileSize int64) (*DocumentStore, *store.MemoryStore) {
	t.Helper()
	objects, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	records := store.NewMemoryStore()
	return New(objects, records, maxFileSize), records
}

func TestPutAndGetText(t *testing.T) {
	docs, _ := newTestStore(t, 0)
	ctx := context.Background()

	raw := buildDocx(t, []string{"Jordan Lee", "5 years Go"}, "")
	doc, err := docs.Put(ctx, raw, "resume_a.docx", "hr-1")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if doc.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if doc.OriginalFilename != "resume_a.docx" || doc.OwnerID != "hr-1" {
		t.Fatalf("unexpected record: %+v", doc)
	}

	text, err := docs.GetText(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get text: %v", err)
	}
	if text != "Jordan Lee\n5 years Go" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestPutDedupsByExtractedText(t *testing.T) {
	docs, records := newTestStore(t, 0)
	ctx := context.Background()

	first := buildDocx(t, []string{"Jordan Lee", "5 years Go"}, "")
	second := buildDocx(t, []string{"Jordan Lee", "5 years Go"}, "<padding>different bytes</padding>")
	if bytes.Equal(first, second) {
		t.Fatalf("test needs differing raw bytes")
	}

	docA, err := docs.Put(ctx, first, "resume_a.docx", "hr-1")
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	docB, err := docs.Put(ctx, second, "renamed_copy.docx", "hr-1")
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if docA.ID != docB.ID {
		t.Fatalf("expected dedup to reuse id %d, got %d", docA.ID, docB.ID)
	}
	count, err := records.DocumentCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored record, got %d", count)
	}
	// The original filename of the first upload wins.
	if docB.OriginalFilename != "resume_a.docx" {
		t.Fatalf("unexpected filename on dedup: %q", docB.OriginalFilename)
	}
}

func TestPutDistinctContentDistinctIDs(t *testing.T) {
	docs, _ := newTestStore(t, 0)
	ctx := context.Background()

	docA, err := docs.Put(ctx, buildDocx(t, []string{"5 years Go"}, ""), "a.docx", "hr-1")
	if err != nil {
		t.Fatalf("put a: %v", err)
	}
	docB, err := docs.Put(ctx, buildDocx(t, []string{"Java only"}, ""), "b.docx", "hr-1")
	if err != nil {
		t.Fatalf("put b: %v", err)
	}
	if docA.ID == docB.ID {
		t.Fatalf("distinct content must get distinct ids")
	}
}

func TestPutRejectsOversizedFile(t *testing.T) {
	docs, _ := newTestStore(t, 64)
	raw := buildDocx(t, []string{"text"}, "")
	_, err := docs.Put(context.Background(), raw, "big.docx", "hr-1")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestPutRejectsTextlessFile(t *testing.T) {
	docs, records := newTestStore(t, 0)
	raw := buildDocx(t, []string{"", "   "}, "")
	_, err := docs.Put(context.Background(), raw, "empty.docx", "hr-1")
	if err == nil {
		t.Fatalf("expected extraction error")
	}
	count, _ := records.DocumentCount()
	if count != 0 {
		t.Fatalf("nothing should be recorded on failure, got %d", count)
	}
}

func TestGetTextUnknownID(t *testing.T) {
	docs, _ := newTestStore(t, 0)
	_, err := docs.GetText(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
