package extract

import (
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/anybrain-ai/anybrain/internal/core"
)

// TesseractOCR implements core.OCR on top of gosseract. A client is
// created per call; tesseract handles are not safe to share and
// extraction is sequential anyway.
type TesseractOCR struct {
	// Languages passed to tesseract, e.g. ["eng", "spa"]. Empty means
	// the engine default.
	Languages []string
}

var _ core.OCR = (*TesseractOCR)(nil)

func (t *TesseractOCR) LinesFromImage(img []byte) ([]string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return nil, err
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return nil, err
	}
	return t.lines(client)
}

func (t *TesseractOCR) LinesFromFile(path string) ([]string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return nil, err
		}
	}
	if err := client.SetImage(path); err != nil {
		return nil, err
	}
	return t.lines(client)
}

func (t *TesseractOCR) lines(client *gosseract.Client) ([]string, error) {
	text, err := client.Text()
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
