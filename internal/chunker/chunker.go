// Package chunker turns per-page extracted text into overlapping retrieval chunks.
package chunker

import "strings"

// DefaultOverlapRatio is the fraction of the following page prepended
// as trailing context when no ratio is configured.
const DefaultOverlapRatio = 0.2

// PageText is one page of extracted document text.
type PageText struct {
	Page int
	Text string
}

// Chunk is the atomic retrieval unit: one page's text plus a trailing
// overlap fragment drawn from the next page.
type Chunk struct {
	Text       string
	PageNumber int
}

// ChunkPages converts an ordered page sequence into chunks. Pages must be
// sorted ascending by page number. For each page, the first
// floor(ratio*len(next)) characters of the following page's text are
// appended after a newline. The overlap window is measured in raw bytes of
// the extracted text, not tokens or words.
//
// Pages whose text is empty after trimming contribute no chunk of their
// own, but their text still serves as overlap source for the page before
// them.
func ChunkPages(pages []PageText, ratio float64) []Chunk {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	var chunks []Chunk
	for i, page := range pages {
		text := page.Text
		if strings.TrimSpace(text) == "" {
			continue
		}

		if i+1 < len(pages) {
			next := pages[i+1].Text
			overlap := int(ratio * float64(len(next)))
			if overlap > 0 {
				text += "\n" + next[:overlap]
			}
		}

		chunks = append(chunks, Chunk{
			Text:       text,
			PageNumber: page.Page,
		})
	}
	return chunks
}
