// Package pdftext extracts the embedded text layer of a PDF, page by page.
// Scanned (image-only) pages yield empty text; OCR is out of scope.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdf2sheet/internal/common"
)

// Page is the raw extracted text of one PDF page. Numbers are 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages reads every page of the PDF at path. A page without a usable
// text layer still produces a Page entry with empty text, so downstream
// output always covers the full document. Failing to open the file at all is
// a startup error.
func ExtractPages(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %v: %w", path, err, common.ErrStartup)
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	pages := make([]Page, 0, numPages)

	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				ft := p.Font(name)
				fonts[name] = &ft
			}
		}

		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			// no text layer on this page; keep the row, leave it empty
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
