// Package pdfref extracts the raw text of a references PDF and segments it
// into individual bibliography entries.
package pdfref

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from every page of a PDF.
// Pages that fail to decode are skipped rather than aborting the run.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}
