package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// QdrantIndex is a minimal REST client to Qdrant. It assumes cosine
// distance and creates the collection if missing.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// QdrantConfig configures a QdrantIndex.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrantIndex creates a Qdrant REST client.
func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantIndex{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (x *QdrantIndex) Ensure(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimensions %d", dimensions)
	}
	// Qdrant returns 200 OK if the collection already exists with the
	// same schema; a real conflict propagates as an error.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, x.collection), body)
}

func (x *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qPoints[i] = map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id":   p.Payload.DocumentID,
				"document_name": p.Payload.DocumentName,
				"text":          p.Payload.Text,
				"page_number":   p.Payload.PageNumber,
				"owner":         p.Payload.Owner,
			},
		}
	}
	body := map[string]any{"points": qPoints}
	return x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, x.collection), body)
}

func (x *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, x.collection), req, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := Match{Similarity: r.Score}
		if id, ok := r.ID.(string); ok {
			m.ID = id
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			m.Payload.DocumentID = v
		}
		if v, ok := r.Payload["document_name"].(string); ok {
			m.Payload.DocumentName = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			m.Payload.Text = v
		}
		if v, ok := r.Payload["page_number"].(float64); ok {
			m.Payload.PageNumber = int(v)
		}
		if v, ok := r.Payload["owner"].(string); ok {
			m.Payload.Owner = v
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (x *QdrantIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	return x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", x.url, x.collection), body, nil)
}

func (x *QdrantIndex) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant PUT %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (x *QdrantIndex) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
