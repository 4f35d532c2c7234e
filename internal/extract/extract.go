// Package extract turns a PDF file into per-page text for chunking.
package extract

import "context"

// PageText is one extracted page. Page numbers are 1-based.
type PageText struct {
	Page int
	Text string
}

// Extractor is the page text extraction capability. The built-in
// implementation reads embedded PDF text; deployments with scanned
// documents can plug in an OCR-backed extractor instead.
type Extractor interface {
	// ExtractPages returns the text of every page of the file, sorted
	// ascending by page number. Pages without recognizable text appear
	// with empty text so downstream overlap windows stay aligned.
	ExtractPages(ctx context.Context, path string) ([]PageText, error)
}
