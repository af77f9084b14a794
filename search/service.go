// Package search answers user queries against the indexed FAQ corpus.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/embed"
	"github.com/sabela/consulta/textnorm"
	"github.com/sabela/consulta/vectorstore"
)

// Default retrieval knobs, overridable per service and per request.
const (
	DefaultLimit     = 15
	DefaultThreshold = float32(0)
	DefaultEF        = 128
)

// Result is one search hit. Vectors never leave the store.
type Result struct {
	ID        core.ID `json:"id"`
	Score     float32 `json:"score"`
	Pregunta  string  `json:"pregunta"`
	Respuesta string  `json:"respuesta"`
	Grupo     int     `json:"grupo"`
	Tema      string  `json:"tema"`
}

// Article is a single FAQ entry served by id.
type Article struct {
	ID        core.ID `json:"id"`
	Pregunta  string  `json:"pregunta"`
	Respuesta string  `json:"respuesta"`
	Grupo     int     `json:"grupo"`
	Tema      string  `json:"tema"`
}

// Options narrows one search request. Zero values fall back to the
// service defaults; a nil Category applies no group filter.
type Options struct {
	Category  *string
	Limit     int
	Threshold *float32
}

// Service embeds queries and retrieves the closest articles.
type Service struct {
	store     vectorstore.Store
	provider  embed.Provider
	limit     int
	threshold float32
	ef        int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLimit sets the default result limit. Default is DefaultLimit.
func WithLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithThreshold sets the default minimum score. Default is 0.
func WithThreshold(threshold float32) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithEF sets the approximate-search breadth passed to the store.
// Default is DefaultEF. Exact-scan backends ignore it.
func WithEF(ef int) Option {
	return func(s *Service) {
		if ef > 0 {
			s.ef = ef
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewService creates a search service. It cross-checks the collection
// metadata against the provider and logs a warning when they disagree,
// which means the collection was built with different embeddings and
// needs re-ingestion.
func NewService(ctx context.Context, store vectorstore.Store, provider embed.Provider, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Service{
		store:     store,
		provider:  provider,
		limit:     DefaultLimit,
		threshold: DefaultThreshold,
		ef:        DefaultEF,
		logger:    slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}

	meta, err := store.Meta(ctx)
	switch {
	case errors.Is(err, vectorstore.ErrCollectionMissing):
		s.logger.Warn("collection does not exist yet, run ingestion before serving queries")
	case err != nil:
		return nil, err
	case meta.Dim != provider.VectorSize():
		s.logger.Warn("collection dimension does not match embedding provider, re-ingestion required",
			"collection_dim", meta.Dim,
			"provider_dim", provider.VectorSize())
	case meta.Fingerprint != provider.Fingerprint():
		s.logger.Warn("collection was built with a different embedding configuration",
			"collection_fingerprint", meta.Fingerprint,
			"provider_fingerprint", provider.Fingerprint())
	}

	return s, nil
}

// Search embeds the query and returns the closest articles. The store
// is asked for twice the limit so that a post-retrieval group filter on
// approximate backends still fills the page.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	var grupo *int
	if opts.Category != nil && *opts.Category != "" {
		value, err := strconv.Atoi(strings.TrimSpace(*opts.Category))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *opts.Category)
		}
		grupo = &value
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.limit
	}
	threshold := s.threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	vector, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := s.store.Search(ctx, vector, vectorstore.SearchParams{
		Grupo:     grupo,
		Limit:     limit * 2,
		Threshold: threshold,
		EF:        s.ef,
	})
	if err != nil {
		return nil, err
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]Result, len(scored))
	for i, sp := range scored {
		results[i] = Result{
			ID:        sp.Point.ID,
			Score:     sp.Score,
			Pregunta:  sp.Point.Payload.Pregunta,
			Respuesta: textnorm.StripArtifacts(sp.Point.Payload.Respuesta),
			Grupo:     sp.Point.Payload.Grupo,
			Tema:      sp.Point.Payload.Tema,
		}
	}

	s.logger.Debug("search completed", "query_len", len(query), "results", len(results))
	return results, nil
}

// Article looks up a single article by id. A missing article returns
// (nil, nil); errors are reserved for backend failure.
func (s *Service) Article(ctx context.Context, id core.ID) (*Article, error) {
	point, err := s.store.Get(ctx, id)
	if errors.Is(err, vectorstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Article{
		ID:        point.ID,
		Pregunta:  point.Payload.Pregunta,
		Respuesta: textnorm.StripArtifacts(point.Payload.Respuesta),
		Grupo:     point.Payload.Grupo,
		Tema:      point.Payload.Tema,
	}, nil
}

// Categories returns the distinct grupo values present in the
// collection, ascending.
func (s *Service) Categories(ctx context.Context) ([]int, error) {
	points, err := s.store.Scroll(ctx, vectorstore.DefaultScrollLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(points))
	categories := make([]int, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p.Payload.Grupo]; ok {
			continue
		}
		seen[p.Payload.Grupo] = struct{}{}
		categories = append(categories, p.Payload.Grupo)
	}
	slices.Sort(categories)
	return categories, nil
}
