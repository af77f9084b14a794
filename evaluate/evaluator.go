// Package evaluate scores an embedding backend against human-labeled
// query rankings, offline and without a vector store. Every relevant
// article is embedded once, each query is ranked against that pool by
// cosine similarity, and the predicted top five is compared to the
// ground truth.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/embed"
)

// QueryResult is the outcome for one labeled query.
type QueryResult struct {
	QueryID     int
	Predicted   []core.ID
	GroundTruth []core.ID
}

// Report aggregates the evaluation run.
type Report struct {
	Queries      int
	Articles     int
	MRR          float64
	PrecisionAt5 float64
	PerQuery     []QueryResult
}

// Evaluator ranks a fixed article pool with one embedding backend.
type Evaluator struct {
	provider embed.Provider
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEvaluator creates an evaluator for the given provider.
func NewEvaluator(provider embed.Provider, opts ...Option) (*Evaluator, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	e := &Evaluator{
		provider: provider,
		logger:   slog.Default().With("component", "evaluate"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate embeds the articles referenced by any ranking plus every
// query, ranks the pool per query, and scores the predicted top five
// against the ground truth.
func (e *Evaluator) Evaluate(ctx context.Context, docs []core.Document, rankings []Ranking) (Report, error) {
	if len(rankings) == 0 {
		return Report{}, ErrNoRankings
	}

	start := time.Now()

	byID := make(map[core.ID]core.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	// Only articles that appear in some ground truth form the pool.
	var pool []core.Document
	seen := make(map[core.ID]struct{})
	for _, ranking := range rankings {
		for _, id := range ranking.Articles {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			doc, ok := byID[id]
			if !ok {
				return Report{}, fmt.Errorf("%w: article %d (query %d)",
					ErrUnknownArticle, id, ranking.QueryID)
			}
			pool = append(pool, doc)
		}
	}

	e.logger.Info("evaluating embedding backend",
		"fingerprint", e.provider.Fingerprint(),
		"queries", len(rankings),
		"articles", len(pool))

	texts := make([]string, len(pool))
	for i, doc := range pool {
		texts[i] = doc.Text
	}
	vectors, err := e.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return Report{}, err
	}
	if len(vectors) != len(pool) {
		return Report{}, fmt.Errorf("embedding backend returned %d vectors for %d articles",
			len(vectors), len(pool))
	}

	report := Report{
		Queries:  len(rankings),
		Articles: len(pool),
		PerQuery: make([]QueryResult, 0, len(rankings)),
	}

	for _, ranking := range rankings {
		queryVector, err := e.provider.EmbedQuery(ctx, ranking.QueryText)
		if err != nil {
			return Report{}, err
		}

		predicted := rankPool(queryVector, pool, vectors, RankingSize)
		report.PerQuery = append(report.PerQuery, QueryResult{
			QueryID:     ranking.QueryID,
			Predicted:   predicted,
			GroundTruth: ranking.Articles,
		})

		report.MRR += reciprocalRank(predicted, ranking.Articles)
		report.PrecisionAt5 += precision(predicted, ranking.Articles)
	}

	report.MRR /= float64(len(rankings))
	report.PrecisionAt5 /= float64(len(rankings))

	e.logger.Info("evaluation completed",
		"mrr", report.MRR,
		"precision_at_5", report.PrecisionAt5,
		"elapsed", time.Since(start))
	return report, nil
}

// rankPool returns the ids of the top-k articles by cosine similarity,
// ties broken by id for determinism.
func rankPool(query []float32, pool []core.Document, vectors [][]float32, k int) []core.ID {
	type scored struct {
		id    core.ID
		score float64
	}
	all := make([]scored, len(pool))
	for i, doc := range pool {
		all[i] = scored{id: doc.ID, score: cosine(query, vectors[i])}
	}
	slices.SortFunc(all, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})

	if k > len(all) {
		k = len(all)
	}
	ids := make([]core.ID, k)
	for i := range ids {
		ids[i] = all[i].id
	}
	return ids
}

// reciprocalRank is 1/r for the first predicted id present in the
// ground truth, 0 when none is.
func reciprocalRank(predicted, truth []core.ID) float64 {
	for i, id := range predicted {
		if slices.Contains(truth, id) {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// precision is the fraction of predictions present in the ground truth.
func precision(predicted, truth []core.ID) float64 {
	if len(predicted) == 0 {
		return 0
	}
	hits := 0
	for _, id := range predicted {
		if slices.Contains(truth, id) {
			hits++
		}
	}
	return float64(hits) / float64(len(predicted))
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
