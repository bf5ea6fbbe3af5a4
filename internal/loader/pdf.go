// Package loader turns uploaded document bytes into page text.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// PDF extracts plain text from PDF bytes held in memory.
type PDF struct {
	logger *zap.Logger
}

// NewPDF creates a PDF loader.
func NewPDF(logger *zap.Logger) *PDF {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDF{logger: logger}
}

// IsPDF reports whether data starts with the PDF header. The header may be
// preceded by a little garbage, which readers tolerate.
func IsPDF(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, pdfMagic)
}

// HasPDFExtension reports whether the filename ends in .pdf.
func HasPDFExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Load parses data and returns one entry per page that carries text.
// Parser failures, including panics inside the parser, wrap domain.ErrInvalidDocument.
func (l *PDF) Load(ctx context.Context, filename string, data []byte) (pages []domain.Page, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty upload: %w", filename, domain.ErrNoDocument)
	}
	if !IsPDF(data) {
		return nil, fmt.Errorf("%s: missing PDF header: %w", filename, domain.ErrInvalidDocument)
	}

	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%s: parse: %v: %w", filename, r, domain.ErrInvalidDocument)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: open: %v: %w", filename, err, domain.ErrInvalidDocument)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load %s: %w", filename, err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("Skipping unreadable page",
				zap.String("document", filename),
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}
		text = normalizeText(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	l.logger.Debug("PDF loaded",
		zap.String("document", filename),
		zap.Int("pages_total", total),
		zap.Int("pages_with_text", len(pages)),
	)

	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: no extractable text: %w", filename, domain.ErrInvalidDocument)
	}
	return pages, nil
}

// normalizeText collapses whitespace runs, which the extractor emits liberally.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
