package core

// Extractor converts one file into plain text. An unsupported extension
// yields ("", nil): not extractable, not an error. Parse failures are
// returned so the caller can exclude just that file.
type Extractor interface {
	Process(path string) (string, error)
}

// OCR recognizes text in rasterized images. Lines come back in detection
// order, one entry per detected line.
type OCR interface {
	// LinesFromImage runs recognition over encoded image bytes (PNG/JPEG).
	LinesFromImage(img []byte) ([]string, error)
	// LinesFromFile runs recognition over an image file on disk.
	LinesFromFile(path string) ([]string, error)
}
