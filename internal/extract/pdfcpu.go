package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PDFExtractor extracts embedded text from PDF pages using pdfcpu.
// Page content streams are decoded concurrently. Extraction is
// CPU-bound, so the worker pool is shared by the whole process: the
// bound holds across concurrent documents, not per call.
type PDFExtractor struct {
	sem *semaphore.Weighted
}

// NewPDFExtractor creates an extractor with the given worker pool size.
func NewPDFExtractor(workers int) *PDFExtractor {
	if workers < 1 {
		workers = 4
	}
	return &PDFExtractor{sem: semaphore.NewWeighted(int64(workers))}
}

func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) ([]PageText, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page count of %s: %w", path, err)
	}
	if pageCount == 0 {
		return nil, nil
	}

	pages := make([]PageText, pageCount)

	err = e.forEachPage(ctx, pageCount, func(ctx context.Context, pageNr int) error {
		// Each worker opens its own handle: pdfcpu seeks the reader.
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
		if err != nil {
			return fmt.Errorf("extracting page %d: %w", pageNr, err)
		}

		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return fmt.Errorf("extracting page %d: %w", pageNr, err)
		}

		content, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading page %d content: %w", pageNr, err)
		}

		pages[pageNr-1] = PageText{Page: pageNr, Text: decodeContentText(content)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// forEachPage runs fn for pages 1 through n. Each invocation holds one
// slot of the extractor's shared pool, so total concurrency stays at
// the configured worker count no matter how many documents are being
// extracted at once.
func (e *PDFExtractor) forEachPage(ctx context.Context, n int, fn func(ctx context.Context, pageNr int) error) error {
	eg, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= n; i++ {
		pageNr := i
		eg.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.sem.Release(1)
			return fn(gctx, pageNr)
		})
	}
	return eg.Wait()
}

// decodeContentText pulls the literal strings shown by the Tj, TJ, ' and
// " operators out of a decoded PDF content stream. Strings are buffered
// until the operator that consumes them appears; any other operator
// discards the buffer (those strings were arguments, not shown text).
// This recovers embedded text only; glyph remapping and scanned images
// are out of reach here.
func decodeContentText(content []byte) string {
	var sb strings.Builder
	var current strings.Builder
	var pending []string
	inString := false
	escaped := false
	depth := 0

	flush := func(op string) {
		if op == "Tj" || op == "TJ" || op == "'" || op == "\"" {
			for _, s := range pending {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(s)
			}
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(content) {
		c := content[i]

		if inString {
			switch {
			case escaped:
				switch c {
				case 'n':
					current.WriteByte('\n')
				case 't':
					current.WriteByte('\t')
				case 'r', 'b', 'f':
					current.WriteByte(' ')
				default:
					current.WriteByte(c)
				}
				escaped = false
			case c == '\\':
				escaped = true
			case c == '(':
				depth++
				current.WriteByte(c)
			case c == ')':
				depth--
				if depth == 0 {
					inString = false
					pending = append(pending, current.String())
				} else {
					current.WriteByte(c)
				}
			default:
				current.WriteByte(c)
			}
			i++
			continue
		}

		switch {
		case c == '(':
			inString = true
			depth = 1
			current.Reset()
			i++
		case c == '\'' || c == '"':
			flush(string(c))
			i++
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			j := i
			for j < len(content) {
				cc := content[j]
				if (cc >= 'A' && cc <= 'Z') || (cc >= 'a' && cc <= 'z') || cc == '*' {
					j++
					continue
				}
				break
			}
			flush(string(content[i:j]))
			i = j
		default:
			// Whitespace, numbers, array brackets, names, hex strings:
			// none of these consume the pending strings.
			i++
		}
	}

	return strings.TrimSpace(sb.String())
}
