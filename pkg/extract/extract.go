// Package extract converts uploaded resume files (PDF, DOCX) into plain
// text. A page or paragraph without text is skipped and logged; a file
// with no text at all is an error.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoTextExtracted means the document parsed but produced zero text blocks.
	ErrNoTextExtracted = errors.New("no text extracted")
	// ErrUnsupportedFormat means the file extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Supported reports whether a filename has a handled extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

// Text extracts plain text from a resume file. The format is inferred
// from the filename extension. Text blocks (PDF pages, DOCX paragraphs)
// are joined by newlines in document order.
func Text(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfText(filename, data)
	case ".docx":
		return docxText(filename, data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func pdfText(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	totalPages := reader.NumPage()
	var pages []string
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing the whole file.
			slog.Warn("pdf page unreadable", "filename", filename, "page", i, "err", err)
			continue
		}
		text = normalizeBlock(text)
		if text == "" {
			slog.Warn("pdf page has no text", "filename", filename, "page", i)
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%s: %w", filename, ErrNoTextExtracted)
	}
	return strings.Join(pages, "\n"), nil
}

func docxText(filename string, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("open docx document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("read docx document.xml: %w", err)
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("docx %s: missing word/document.xml", filename)
	}
	paragraphs, err := docxParagraphs(docXML)
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", filename, err)
	}
	var kept []string
	for i, para := range paragraphs {
		para = normalizeBlock(para)
		if para == "" {
			slog.Debug("docx paragraph has no text", "filename", filename, "paragraph", i)
			continue
		}
		kept = append(kept, para)
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%s: %w", filename, ErrNoTextExtracted)
	}
	return strings.Join(kept, "\n"), nil
}

// docxParagraphs walks WordprocessingML, collecting the text runs (w:t)
// of each paragraph (w:p). Tabs become spaces; everything else is markup.
func docxParagraphs(docXML []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	var (
		paragraphs  []string
		current     strings.Builder
		inParagraph bool
		inText      bool
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inParagraph {
					current.WriteString(" ")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
				}
				inParagraph = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inParagraph && inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// normalizeBlock strips control characters and collapses whitespace
// inside one text block.
func normalizeBlock(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
