package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/vectorstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore("faq")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(v int) *int { return &v }

func TestMetaMissingCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Meta(context.Background())
	assert.ErrorIs(t, err, vectorstore.ErrCollectionMissing)
}

func TestRecreateAndMeta(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	meta := vectorstore.Meta{Dim: 3, Fingerprint: "word2vec:skipgram:dim=3"}
	require.NoError(t, store.Recreate(ctx, meta))

	got, err := store.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestRecreateRejectsNonPositiveDim(t *testing.T) {
	store := newTestStore(t)

	err := store.Recreate(context.Background(), vectorstore.Meta{Dim: 0})
	assert.ErrorIs(t, err, vectorstore.ErrInvalidParams)
}

func seedPoints(t *testing.T, store *Store, dim int, points []core.Point) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Recreate(ctx, vectorstore.Meta{Dim: dim, Fingerprint: "test"}))
	require.NoError(t, store.Upsert(ctx, points))
}

func TestSearchOrdersByScoreDescending(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, []core.Point{
		{ID: 1, Vector: []float32{1, 0, 0}, Payload: core.Payload{Pregunta: "a", Grupo: 1}},
		{ID: 2, Vector: []float32{0, 1, 0}, Payload: core.Payload{Pregunta: "b", Grupo: 1}},
		{ID: 3, Vector: []float32{1, 1, 0}, Payload: core.Payload{Pregunta: "c", Grupo: 2}},
	})

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, vectorstore.SearchParams{Limit: 10})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, core.ID(1), results[0].Point.ID)
	assert.Equal(t, core.ID(3), results[1].Point.ID)
	assert.Equal(t, core.ID(2), results[2].Point.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.7071068, results[1].Score, 1e-6)
}

func TestSearchGroupFilter(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, []core.Point{
		{ID: 1, Vector: []float32{1, 0, 0}, Payload: core.Payload{Grupo: 1}},
		{ID: 2, Vector: []float32{1, 0, 0}, Payload: core.Payload{Grupo: 2}},
		{ID: 3, Vector: []float32{0, 1, 0}, Payload: core.Payload{Grupo: 2}},
	})

	results, err := store.Search(context.Background(), []float32{1, 0, 0},
		vectorstore.SearchParams{Grupo: intPtr(2), Limit: 10})
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 2, r.Point.Payload.Grupo)
	}
	assert.Equal(t, core.ID(2), results[0].Point.ID)
}

func TestSearchThresholdAndLimit(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, []core.Point{
		{ID: 1, Vector: []float32{1, 0, 0}, Payload: core.Payload{Grupo: 1}},
		{ID: 2, Vector: []float32{1, 0.2, 0}, Payload: core.Payload{Grupo: 1}},
		{ID: 3, Vector: []float32{0, 1, 0}, Payload: core.Payload{Grupo: 1}},
	})
	ctx := context.Background()

	// A threshold of 0.9 keeps only the near-parallel vectors.
	results, err := store.Search(ctx, []float32{1, 0, 0}, vectorstore.SearchParams{Limit: 10, Threshold: 0.9})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.Search(ctx, []float32{1, 0, 0}, vectorstore.SearchParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Point.ID)
}

func TestSearchTieBreaksOnID(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 2, []core.Point{
		{ID: 7, Vector: []float32{1, 0}},
		{ID: 3, Vector: []float32{2, 0}},
		{ID: 5, Vector: []float32{3, 0}},
	})

	results, err := store.Search(context.Background(), []float32{1, 0}, vectorstore.SearchParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, core.ID(3), results[0].Point.ID)
	assert.Equal(t, core.ID(5), results[1].Point.ID)
	assert.Equal(t, core.ID(7), results[2].Point.ID)
}

func TestSearchInvalidParams(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, nil)
	ctx := context.Background()

	_, err := store.Search(ctx, []float32{1, 0, 0}, vectorstore.SearchParams{Limit: 0})
	assert.ErrorIs(t, err, vectorstore.ErrInvalidParams)

	_, err = store.Search(ctx, []float32{1, 0}, vectorstore.SearchParams{Limit: 5})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, nil)

	err := store.Upsert(context.Background(), []core.Point{{ID: 1, Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestUpsertReplacesExistingPoint(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 2, []core.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: core.Payload{Pregunta: "old"}},
	})
	ctx := context.Background()

	err := store.Upsert(ctx, []core.Point{
		{ID: 1, Vector: []float32{0, 1}, Payload: core.Payload{Pregunta: "new"}},
	})
	require.NoError(t, err)

	point, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", point.Payload.Pregunta)

	points, err := store.Scroll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestRecreateReplacesCollection(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 3, []core.Point{
		{ID: 1, Vector: []float32{1, 0, 0}},
		{ID: 2, Vector: []float32{0, 1, 0}},
	})
	ctx := context.Background()

	// Changing the dimension wipes everything indexed under the old one.
	require.NoError(t, store.Recreate(ctx, vectorstore.Meta{Dim: 4, Fingerprint: "test2"}))

	points, err := store.Scroll(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, points)

	err = store.Upsert(ctx, []core.Point{{ID: 1, Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestGet(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 2, []core.Point{
		{ID: 42, Vector: []float32{1, 0}, Payload: core.Payload{
			Pregunta:  "¿Qué es esto?",
			Respuesta: "Una prueba",
			Grupo:     3,
			Tema:      "pruebas",
		}},
	})
	ctx := context.Background()

	point, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, core.ID(42), point.ID)
	assert.Equal(t, "Una prueba", point.Payload.Respuesta)
	assert.Equal(t, 3, point.Payload.Grupo)
	assert.Nil(t, point.Vector, "vector must be stripped from Get results")

	_, err = store.Get(ctx, 99)
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestScroll(t *testing.T) {
	store := newTestStore(t)
	seedPoints(t, store, 2, []core.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: core.Payload{Grupo: 1}},
		{ID: 2, Vector: []float32{0, 1}, Payload: core.Payload{Grupo: 2}},
		{ID: 3, Vector: []float32{1, 1}, Payload: core.Payload{Grupo: 3}},
	})
	ctx := context.Background()

	points, err := store.Scroll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for _, p := range points {
		assert.Nil(t, p.Vector)
	}

	points, err = store.Scroll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, points, 2, "limit caps scroll results")
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, float64(cosineSimilarity(tc.a, tc.b)), 1e-6)
		})
	}
}
