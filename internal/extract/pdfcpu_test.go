package extract

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPageWorkersSharedAcrossDocuments(t *testing.T) {
	e := NewPDFExtractor(2)

	var active, peak int32
	work := func(ctx context.Context, pageNr int) error {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}

	// Three documents extracted concurrently share one pool.
	var wg sync.WaitGroup
	for d := 0; d < 3; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.forEachPage(context.Background(), 4, work); err != nil {
				t.Errorf("forEachPage: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak concurrent page workers = %d, want at most 2", got)
	}
}

func TestForEachPagePropagatesError(t *testing.T) {
	e := NewPDFExtractor(2)
	boom := errors.New("page is broken")

	err := e.forEachPage(context.Background(), 6, func(ctx context.Context, pageNr int) error {
		if pageNr == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestDecodeContentText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "simple Tj",
			content: "BT /F1 12 Tf (Hello World) Tj ET",
			want:    "Hello World",
		},
		{
			name:    "TJ array with kerning",
			content: "BT [(The limitation) -250 (period)] TJ ET",
			want:    "The limitation period",
		},
		{
			name:    "unshown string discarded",
			content: "(metadata) Tz (shown) Tj",
			want:    "shown",
		},
		{
			name:    "escaped characters",
			content: `(Section \(5\)) Tj`,
			want:    "Section (5)",
		},
		{
			name:    "nested parentheses",
			content: "(outer (inner) text) Tj",
			want:    "outer (inner) text",
		},
		{
			name:    "quote operator",
			content: "(next line) '",
			want:    "next line",
		},
		{
			name:    "no text",
			content: "q 1 0 0 1 50 50 cm Q",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeContentText([]byte(tt.content))
			if got != tt.want {
				t.Errorf("decodeContentText(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
