package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

// PDF pages render at 72 DPI natively; the OCR fallback rasterizes at
// 1.5x for a sharper image without ballooning memory.
const ocrRasterDPI = 72 * 1.5

// pdfOpener and pdfDocument wrap go-fitz so the page-level OCR fallback
// can be exercised without MuPDF in tests.
type pdfOpener interface {
	Open(path string) (pdfDocument, error)
}

type pdfDocument interface {
	NumPage() int
	// Text returns the embedded text of a zero-based page.
	Text(page int) (string, error)
	// ImagePNG rasterizes a zero-based page at the given DPI.
	ImagePNG(page int, dpi float64) ([]byte, error)
	Close() error
}

type fitzOpener struct{}

func (fitzOpener) Open(path string) (pdfDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDocument{doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d fitzDocument) NumPage() int                  { return d.doc.NumPage() }
func (d fitzDocument) Text(page int) (string, error) { return d.doc.Text(page) }
func (d fitzDocument) ImagePNG(page int, dpi float64) ([]byte, error) {
	return d.doc.ImagePNG(page, dpi)
}
func (d fitzDocument) Close() error { return d.doc.Close() }

// processPDF walks pages in order, preferring embedded text. A page whose
// trimmed text is shorter than minPageText is effectively a scanned
// image: it is rasterized and run through OCR, with each detected line
// appended to whatever text the page did have. Every page's text ends
// with a newline.
func (e *FileExtractor) processPDF(path string) (string, error) {
	doc, err := e.pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var content strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("page %d text: %w", page+1, err)
		}

		if utf8.RuneCountInString(strings.TrimSpace(text)) < minPageText {
			img, err := doc.ImagePNG(page, ocrRasterDPI)
			if err != nil {
				return "", fmt.Errorf("page %d raster: %w", page+1, err)
			}
			lines, err := e.ocr.LinesFromImage(img)
			if err != nil {
				return "", fmt.Errorf("page %d ocr: %w", page+1, err)
			}
			for _, line := range lines {
				text += line + "\n"
			}
		}

		content.WriteString(text)
		content.WriteString("\n")
	}
	return content.String(), nil
}
