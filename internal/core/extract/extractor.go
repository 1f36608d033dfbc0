// Package extract converts source files of heterogeneous formats into
// plain text, falling back to OCR for image-like content.
package extract

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/anybrain-ai/anybrain/internal/core"
)

// minPageText is the threshold below which a PDF page's embedded text is
// treated as image-like and sent through OCR instead.
const minPageText = 50

// FileExtractor implements core.Extractor. Dispatch is purely on file
// extension; unsupported extensions yield empty text, not an error.
type FileExtractor struct {
	ocr core.OCR
	pdf pdfOpener
}

var _ core.Extractor = (*FileExtractor)(nil)

// New builds an extractor using the given OCR engine and the MuPDF-backed
// PDF reader.
func New(ocr core.OCR) *FileExtractor {
	return &FileExtractor{ocr: ocr, pdf: fitzOpener{}}
}

func (e *FileExtractor) Process(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.processPDF(path)
	case ".docx", ".doc":
		return e.processWord(path)
	case ".xlsx", ".xls":
		return e.processExcel(path)
	case ".jpg", ".jpeg", ".png":
		return e.processImage(path)
	case ".txt", ".md":
		return e.processPlainText(path)
	}
	// No extractable content; the caller treats this as a skip.
	return "", nil
}

func (e *FileExtractor) processImage(path string) (string, error) {
	lines, err := e.ocr.LinesFromFile(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// processPlainText reads the whole file, dropping invalid byte sequences
// rather than failing on them.
func (e *FileExtractor) processPlainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return strings.ToValidUTF8(string(raw), ""), nil
}
