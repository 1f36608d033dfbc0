package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	lines     []string
	err       error
	imageCall int
	fileCall  int
}

func (f *fakeOCR) LinesFromImage(img []byte) ([]string, error) {
	f.imageCall++
	return f.lines, f.err
}

func (f *fakeOCR) LinesFromFile(path string) ([]string, error) {
	f.fileCall++
	return f.lines, f.err
}

type fakePDF struct {
	pages  []string // embedded text per page
	raster []byte
	err    error
	closed bool

	rasterized []int // pages that were rasterized
}

func (f *fakePDF) NumPage() int { return len(f.pages) }

func (f *fakePDF) Text(page int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[page], nil
}

func (f *fakePDF) ImagePNG(page int, dpi float64) ([]byte, error) {
	f.rasterized = append(f.rasterized, page)
	return f.raster, nil
}

func (f *fakePDF) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	doc *fakePDF
	err error
}

func (f fakeOpener) Open(path string) (pdfDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestProcessUnsupportedExtension(t *testing.T) {
	e := New(&fakeOCR{})
	text, err := e.Process("archive.zip")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestProcessPlainText(t *testing.T) {
	e := New(&fakeOCR{})
	path := writeFile(t, "notes.txt", []byte("hello world"))

	text, err := e.Process(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestProcessPlainTextDropsInvalidBytes(t *testing.T) {
	e := New(&fakeOCR{})
	path := writeFile(t, "broken.md", []byte("caf\xff\xfee latte"))

	text, err := e.Process(path)
	require.NoError(t, err)
	assert.Equal(t, "cafe latte", text)
	assert.True(t, strings.Contains(text, "latte"))
}

func TestProcessDispatchIsCaseInsensitive(t *testing.T) {
	e := New(&fakeOCR{})
	path := writeFile(t, "NOTES.TXT", []byte("upper"))

	text, err := e.Process(path)
	require.NoError(t, err)
	assert.Equal(t, "upper", text)
}

func TestProcessImageJoinsOCRLines(t *testing.T) {
	ocr := &fakeOCR{lines: []string{"first line", "second line"}}
	e := New(ocr)

	text, err := e.Process("scan.png")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", text)
	assert.Equal(t, 1, ocr.fileCall)
}

func TestProcessImageError(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("engine not installed")}
	e := New(ocr)

	_, err := e.Process("scan.jpg")
	assert.Error(t, err)
}

func TestProcessPDFTextNativePagesSkipOCR(t *testing.T) {
	longText := strings.Repeat("embedded text ", 10) // well over the threshold
	doc := &fakePDF{pages: []string{longText, longText}}
	ocr := &fakeOCR{lines: []string{"should not appear"}}
	e := &FileExtractor{ocr: ocr, pdf: fakeOpener{doc: doc}}

	text, err := e.Process("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, longText+"\n"+longText+"\n", text)
	assert.Empty(t, doc.rasterized, "text-native pages must not be rasterized")
	assert.Zero(t, ocr.imageCall)
	assert.True(t, doc.closed)
}

func TestProcessPDFScannedPageTriggersOCR(t *testing.T) {
	longText := strings.Repeat("x", 60)
	doc := &fakePDF{
		pages:  []string{longText, "  \n ", longText}, // page 2 is a scanned image
		raster: []byte("png-bytes"),
	}
	ocr := &fakeOCR{lines: []string{"ocr line one", "ocr line two"}}
	e := &FileExtractor{ocr: ocr, pdf: fakeOpener{doc: doc}}

	text, err := e.Process("report.pdf")
	require.NoError(t, err)

	assert.Equal(t, []int{1}, doc.rasterized, "only the scanned page is OCR'd")
	assert.Equal(t, 1, ocr.imageCall)
	assert.Contains(t, text, "ocr line one\nocr line two\n")
	assert.Contains(t, text, longText)
}

func TestProcessPDFThresholdBoundary(t *testing.T) {
	// Exactly 50 trimmed characters: no OCR. 49: OCR.
	at := strings.Repeat("a", 50)
	below := strings.Repeat("a", 49)
	doc := &fakePDF{pages: []string{at, below}, raster: []byte("png")}
	ocr := &fakeOCR{lines: []string{"recovered"}}
	e := &FileExtractor{ocr: ocr, pdf: fakeOpener{doc: doc}}

	_, err := e.Process("boundary.pdf")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, doc.rasterized)
}

func TestProcessPDFThresholdCountsCharactersNotBytes(t *testing.T) {
	// 49 two-byte characters trim to 98 bytes but stay under the
	// 50-character threshold, so the page is still OCR'd.
	below := strings.Repeat("ñ", 49)
	at := strings.Repeat("ñ", 50)
	doc := &fakePDF{pages: []string{below, at}, raster: []byte("png")}
	ocr := &fakeOCR{lines: []string{"recovered"}}
	e := &FileExtractor{ocr: ocr, pdf: fakeOpener{doc: doc}}

	_, err := e.Process("acentos.pdf")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, doc.rasterized)
}

func TestProcessPDFOpenError(t *testing.T) {
	e := &FileExtractor{ocr: &fakeOCR{}, pdf: fakeOpener{err: errors.New("corrupt header")}}

	_, err := e.Process("bad.pdf")
	assert.Error(t, err)
}
