// Package qdrant implements the vector store against a remote Qdrant
// instance over its REST API. Collections use cosine distance; the
// collection metadata written by Recreate lives in a reserved point so
// that it survives restarts the same way the embedded backend's does.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/vectorstore"
)

// metaPointID is reserved for collection metadata. Article identifiers
// come from the source spreadsheet and are always positive.
const metaPointID = 0

const defaultTimeout = 30 * time.Second

// Store talks to one Qdrant collection over REST.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

// New builds a Store for the collection at baseURL. No request is made
// until the store is used.
func New(baseURL, apiKey, collection string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default().With("component", "qdrant-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op; the store holds no persistent connection.
func (s *Store) Close() error { return nil }

type pointRecord struct {
	ID      core.ID        `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

// Recreate drops and re-creates the collection, then writes the
// metadata point.
func (s *Store) Recreate(ctx context.Context, meta vectorstore.Meta) error {
	if meta.Dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", vectorstore.ErrInvalidParams)
	}

	s.logger.Info("recreating collection",
		"collection", s.collection,
		"dim", meta.Dim,
		"fingerprint", meta.Fingerprint)

	// Best effort; a missing collection is fine.
	_ = s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)

	err := s.do(ctx, http.MethodPut, s.collectionURL(""), map[string]any{
		"vectors": map[string]any{
			"size":     meta.Dim,
			"distance": "Cosine",
		},
	}, nil)
	if err != nil {
		return err
	}

	metaPoint := pointRecord{
		ID:     metaPointID,
		Vector: make([]float32, meta.Dim),
		Payload: map[string]any{
			"dim":         meta.Dim,
			"fingerprint": meta.Fingerprint,
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"),
		map[string]any{"points": []pointRecord{metaPoint}}, nil)
}

// Meta reads the metadata point written by Recreate.
func (s *Store) Meta(ctx context.Context) (vectorstore.Meta, error) {
	var resp struct {
		Result []struct {
			Payload struct {
				Dim         int    `json:"dim"`
				Fingerprint string `json:"fingerprint"`
			} `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL("/points"), map[string]any{
		"ids":          []core.ID{metaPointID},
		"with_payload": true,
	}, &resp)
	if err != nil {
		return vectorstore.Meta{}, err
	}
	if len(resp.Result) == 0 {
		return vectorstore.Meta{}, vectorstore.ErrCollectionMissing
	}
	return vectorstore.Meta{
		Dim:         resp.Result[0].Payload.Dim,
		Fingerprint: resp.Result[0].Payload.Fingerprint,
	}, nil
}

// Upsert writes points, replacing any existing record with the same id.
func (s *Store) Upsert(ctx context.Context, points []core.Point) error {
	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}

	records := make([]pointRecord, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != meta.Dim {
			return fmt.Errorf("%w: point %d has %d components, collection has %d",
				vectorstore.ErrDimensionMismatch, p.ID, len(p.Vector), meta.Dim)
		}
		records = append(records, pointRecord{
			ID:      p.ID,
			Vector:  p.Vector,
			Payload: payloadMap(p.Payload),
		})
	}

	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"),
		map[string]any{"points": records}, nil)
}

// Search runs an approximate nearest-neighbour query. The EF parameter
// is passed through to Qdrant's HNSW search.
func (s *Store) Search(ctx context.Context, vector []float32, params vectorstore.SearchParams) ([]core.ScoredPoint, error) {
	if params.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", vectorstore.ErrInvalidParams)
	}

	body := map[string]any{
		"vector":          vector,
		"limit":           params.Limit,
		"with_payload":    true,
		"score_threshold": params.Threshold,
		"filter":          searchFilter(params.Grupo),
	}
	if params.EF > 0 {
		body["params"] = map[string]any{"hnsw_ef": params.EF}
	}

	var resp struct {
		Result []struct {
			ID      core.ID        `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, err
	}

	results := make([]core.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, core.ScoredPoint{
			Point: core.Point{ID: r.ID, Payload: parsePayload(r.Payload)},
			Score: r.Score,
		})
	}
	return results, nil
}

// Get retrieves a single point by id. The vector is not returned.
func (s *Store) Get(ctx context.Context, id core.ID) (*core.Point, error) {
	var resp struct {
		Result []struct {
			ID      core.ID        `json:"id"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL("/points"), map[string]any{
		"ids":          []core.ID{id},
		"with_payload": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 || resp.Result[0].ID == metaPointID {
		return nil, vectorstore.ErrNotFound
	}
	return &core.Point{ID: resp.Result[0].ID, Payload: parsePayload(resp.Result[0].Payload)}, nil
}

// Scroll returns up to limit points without vectors.
func (s *Store) Scroll(ctx context.Context, limit int) ([]core.Point, error) {
	if limit <= 0 {
		limit = vectorstore.DefaultScrollLimit
	}

	var resp struct {
		Result struct {
			Points []struct {
				ID      core.ID        `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), map[string]any{
		"limit":        limit,
		"with_payload": true,
		"filter":       searchFilter(nil),
	}, &resp)
	if err != nil {
		return nil, err
	}

	points := make([]core.Point, 0, len(resp.Result.Points))
	for _, r := range resp.Result.Points {
		points = append(points, core.Point{ID: r.ID, Payload: parsePayload(r.Payload)})
	}
	return points, nil
}

// searchFilter excludes the metadata point and optionally restricts to
// one category.
func searchFilter(grupo *int) map[string]any {
	filter := map[string]any{
		"must_not": []map[string]any{
			{"has_id": []core.ID{metaPointID}},
		},
	}
	if grupo != nil {
		filter["must"] = []map[string]any{
			{"key": "grupo", "match": map[string]any{"value": *grupo}},
		}
	}
	return filter
}

func payloadMap(p core.Payload) map[string]any {
	return map[string]any{
		"pregunta":  p.Pregunta,
		"respuesta": p.Respuesta,
		"grupo":     p.Grupo,
		"tema":      p.Tema,
	}
}

func parsePayload(m map[string]any) core.Payload {
	var p core.Payload
	if v, ok := m["pregunta"].(string); ok {
		p.Pregunta = v
	}
	if v, ok := m["respuesta"].(string); ok {
		p.Respuesta = v
	}
	if v, ok := m["grupo"].(float64); ok {
		p.Grupo = int(v)
	}
	if v, ok := m["tema"].(string); ok {
		p.Tema = v
	}
	return p
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.baseURL, s.collection, suffix)
}

// do issues one JSON request and decodes the response into out when
// out is non-nil. A 404 maps to ErrCollectionMissing, everything else
// non-2xx to ErrBackend.
func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %w", vectorstore.ErrSerializationFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", vectorstore.ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", vectorstore.ErrBackend, method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return vectorstore.ErrCollectionMissing
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %s", vectorstore.ErrBackend, method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %w", vectorstore.ErrSerializationFailed, err)
		}
	}
	return nil
}
