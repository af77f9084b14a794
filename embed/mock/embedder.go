package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
)

// Embedder is a deterministic test double for embed.Provider. The same text
// always produces the same unit vector, and texts sharing tokens produce
// similar vectors, so ranking behavior is testable without a real model.
type Embedder struct {
	// Dim is the vector dimension. Defaults to 32.
	Dim int

	// EmbedQueryFunc overrides EmbedQuery when set.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedDocumentsFunc overrides EmbedDocuments when set.
	EmbedDocumentsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount atomic.Int64
}

// NewEmbedder creates a mock provider with default deterministic behavior.
// It returns the concrete type so tests can inject behavior and assert call
// counts.
func NewEmbedder() *Embedder {
	return &Embedder{Dim: 32}
}

// EmbedQuery returns a deterministic vector derived from the text's tokens.
func (m *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, text)
	}
	return tokenVector(text, m.dim()), nil
}

// EmbedDocuments returns deterministic vectors in input order.
func (m *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	if m.EmbedDocumentsFunc != nil {
		return m.EmbedDocumentsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = tokenVector(text, m.dim())
	}
	return out, nil
}

// VectorSize returns the configured dimension.
func (m *Embedder) VectorSize() int {
	return m.dim()
}

// Fingerprint identifies the mock configuration.
func (m *Embedder) Fingerprint() string {
	return fmt.Sprintf("mock:dim=%d", m.dim())
}

// CallCount returns the number of embedding calls made.
func (m *Embedder) CallCount() int {
	return int(m.callCount.Load())
}

func (m *Embedder) dim() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return 32
}

// tokenVector sums a deterministic pseudo-random vector per token and
// normalizes the result, so token overlap translates into cosine
// similarity.
func tokenVector(text string, dim int) []float32 {
	sum := make([]float32, dim)
	tokens := strings.Fields(strings.ToLower(text))
	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		seed := h.Sum32()
		for i := 0; i < dim; i++ {
			seed = seed*1664525 + 1013904223 // LCG constants
			sum[i] += float32(seed%2000)/1000.0 - 1.0
		}
	}

	var sumSquares float64
	for _, v := range sum {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		inv := float32(1 / math.Sqrt(sumSquares))
		for i := range sum {
			sum[i] *= inv
		}
	}
	return sum
}
