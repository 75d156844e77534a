// Package pdfinfo reads lightweight metadata from bill PDFs so plan reports
// can show what each resident is about to receive.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"billmailer/internal/attachments"
)

// ErrUnreadable marks content the PDF parser rejected.
var ErrUnreadable = errors.New("unreadable pdf")

// PageCount returns the number of pages in a PDF held in memory.
func PageCount(content []byte) (n int, err error) {
	if len(content) == 0 {
		return 0, fmt.Errorf("%w: empty content", ErrUnreadable)
	}
	// The parser panics on some truncated cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return reader.NumPage(), nil
}

// Info summarizes one document.
type Info struct {
	Name  string
	Size  int
	Pages int
	Err   error
}

// Inspect reports page counts for docs in order. A document that cannot be
// parsed is still listed, with Err set and Pages zero; it is mailed as-is.
func Inspect(docs []attachments.Document) []Info {
	infos := make([]Info, 0, len(docs))
	for _, doc := range docs {
		pages, err := PageCount(doc.Content)
		infos = append(infos, Info{Name: doc.Name, Size: doc.Size(), Pages: pages, Err: err})
	}
	return infos
}

// TotalPages sums the page counts of readable documents.
func TotalPages(infos []Info) int {
	total := 0
	for _, info := range infos {
		if info.Err == nil {
			total += info.Pages
		}
	}
	return total
}
