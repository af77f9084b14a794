package vectorstore

import (
	"context"

	"github.com/sabela/consulta/core"
)

// Meta is the collection-level metadata stamped at creation time. It lets a
// serving process detect that the index was built with a different embedding
// provider than the one it is running with.
type Meta struct {
	// Dim is the fixed vector dimension of the collection. Every point
	// upserted into the collection must carry exactly this many
	// components.
	Dim int

	// Fingerprint is the embedding provider fingerprint the collection was
	// built with.
	Fingerprint string
}

// SearchParams tunes a nearest-neighbor query.
type SearchParams struct {
	// Grupo restricts results to points whose payload group equals the
	// value. Nil means no filter.
	Grupo *int

	// Limit is the maximum number of results. Must be positive.
	Limit int

	// Threshold drops results scoring below the value. Zero keeps
	// everything (cosine scores of interest are non-negative for this
	// corpus).
	Threshold float32

	// EF is the approximate-search accuracy knob (graph traversal
	// breadth). Backends performing exact search accept and ignore it.
	EF int
}

// DefaultScrollLimit bounds a Scroll page when the caller passes zero.
const DefaultScrollLimit = 10000

// Store is a named, fixed-dimension vector collection with filterable
// nearest-neighbor search. Implementations must be safe for concurrent
// reads; writes are confined to the one-shot ingestion path.
type Store interface {
	// Recreate drops the collection if it exists and creates it fresh with
	// the given metadata. This is deliberately destructive: it guarantees
	// no stale vectors of a different dimension ever coexist with new
	// ones.
	Recreate(ctx context.Context, meta Meta) error

	// Meta returns the collection metadata recorded at creation.
	// Returns ErrCollectionMissing when the collection does not exist.
	Meta(ctx context.Context) (Meta, error)

	// Upsert writes points into the collection. Vector length must equal
	// the collection dimension.
	Upsert(ctx context.Context, points []core.Point) error

	// Search returns up to params.Limit points nearest to vector by cosine
	// similarity, best first, honoring the group filter and score
	// threshold.
	Search(ctx context.Context, vector []float32, params SearchParams) ([]core.ScoredPoint, error)

	// Get retrieves a single point by id, without its vector. Returns
	// ErrNotFound when the id was never ingested.
	Get(ctx context.Context, id core.ID) (*core.Point, error)

	// Scroll returns up to limit points (payloads only, no vectors) in
	// undefined order. limit <= 0 uses DefaultScrollLimit. Cost is linear
	// in collection size; callers rely on this corpus being small.
	Scroll(ctx context.Context, limit int) ([]core.Point, error)

	// Close releases the backing resources.
	Close() error
}
