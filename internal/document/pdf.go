package document

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Pages parses the document and returns its pages in physical order.
func (d *Document) Pages() (pages []Page, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ReadError{Name: d.Name, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(d.Content), int64(len(d.Content)))
	if err != nil {
		return nil, &ReadError{Name: d.Name, Err: err}
	}

	numPages := reader.NumPage()
	pages = make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ReadError{Name: d.Name, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

// Extract returns the full plain text of the document: every page's text
// followed by a newline, in page order.
func Extract(d *Document) (string, error) {
	pages, err := d.Pages()
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, p := range pages {
		buf.WriteString(p.Text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
