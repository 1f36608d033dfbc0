package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"
)

// processWord extracts Word paragraphs in document order, skipping the
// ones that are empty after trimming.
func (e *FileExtractor) processWord(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body string
	if strings.EqualFold(filepath.Ext(path), ".doc") {
		body, _, err = docconv.ConvertDoc(f)
	} else {
		body, _, err = docconv.ConvertDocx(f)
	}
	if err != nil {
		return "", fmt.Errorf("convert word: %w", err)
	}

	var paragraphs []string
	for _, p := range strings.Split(body, "\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// processExcel reads every sheet in workbook order, one line per row,
// non-empty cells joined with " | ". Cell values are the computed/display
// values, not formulas.
func (e *FileExtractor) processExcel(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var content strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %q rows: %w", sheet, err)
		}
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell == "" {
					continue
				}
				cells = append(cells, cell)
			}
			if len(cells) == 0 {
				continue
			}
			content.WriteString(strings.Join(cells, " | "))
			content.WriteString("\n")
		}
	}
	return content.String(), nil
}
