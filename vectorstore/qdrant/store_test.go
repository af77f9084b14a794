package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/vectorstore"
)

// fakeQdrant records the last request body per path and serves canned
// responses.
type fakeQdrant struct {
	t         *testing.T
	responses map[string]string
	requests  map[string]map[string]any
	statuses  map[string]int
}

func newFakeQdrant(t *testing.T) *fakeQdrant {
	return &fakeQdrant{
		t:         t,
		responses: map[string]string{},
		requests:  map[string]map[string]any{},
		statuses:  map[string]int{},
	}
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				f.requests[key] = body
			}
		}
		if status, ok := f.statuses[key]; ok {
			w.WriteHeader(status)
			return
		}
		resp, ok := f.responses[key]
		if !ok {
			resp = `{"result":{},"status":"ok"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	})
}

func newTestStore(t *testing.T, fake *fakeQdrant) *Store {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	return New(server.URL, "secret", "faq")
}

func TestRecreate(t *testing.T) {
	fake := newFakeQdrant(t)
	store := newTestStore(t, fake)

	err := store.Recreate(context.Background(), vectorstore.Meta{Dim: 3, Fingerprint: "mock:dim=3"})
	require.NoError(t, err)

	create := fake.requests["PUT /collections/faq"]
	require.NotNil(t, create)
	vectors, ok := create["vectors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	upsert := fake.requests["PUT /collections/faq/points"]
	require.NotNil(t, upsert)
	points, ok := upsert["points"].([]any)
	require.True(t, ok)
	require.Len(t, points, 1)
	meta := points[0].(map[string]any)
	assert.Equal(t, float64(metaPointID), meta["id"])
	assert.Equal(t, "mock:dim=3", meta["payload"].(map[string]any)["fingerprint"])
}

func TestRecreateRejectsNonPositiveDim(t *testing.T) {
	store := newTestStore(t, newFakeQdrant(t))

	err := store.Recreate(context.Background(), vectorstore.Meta{Dim: 0})
	assert.ErrorIs(t, err, vectorstore.ErrInvalidParams)
}

func TestMeta(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points"] =
		`{"result":[{"id":0,"payload":{"dim":128,"fingerprint":"word2vec:skipgram:dim=128"}}]}`
	store := newTestStore(t, fake)

	meta, err := store.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 128, meta.Dim)
	assert.Equal(t, "word2vec:skipgram:dim=128", meta.Fingerprint)
}

func TestMetaMissingCollection(t *testing.T) {
	t.Run("collection does not exist", func(t *testing.T) {
		fake := newFakeQdrant(t)
		fake.statuses["POST /collections/faq/points"] = http.StatusNotFound
		store := newTestStore(t, fake)

		_, err := store.Meta(context.Background())
		assert.ErrorIs(t, err, vectorstore.ErrCollectionMissing)
	})

	t.Run("metadata point absent", func(t *testing.T) {
		fake := newFakeQdrant(t)
		fake.responses["POST /collections/faq/points"] = `{"result":[]}`
		store := newTestStore(t, fake)

		_, err := store.Meta(context.Background())
		assert.ErrorIs(t, err, vectorstore.ErrCollectionMissing)
	})
}

func TestUpsertChecksDimension(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points"] =
		`{"result":[{"id":0,"payload":{"dim":3,"fingerprint":"test"}}]}`
	store := newTestStore(t, fake)
	ctx := context.Background()

	err := store.Upsert(ctx, []core.Point{{ID: 1, Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)

	err = store.Upsert(ctx, []core.Point{
		{ID: 1, Vector: []float32{1, 0, 0}, Payload: core.Payload{Pregunta: "hola", Grupo: 2}},
	})
	require.NoError(t, err)

	upsert := fake.requests["PUT /collections/faq/points"]
	require.NotNil(t, upsert)
	points := upsert["points"].([]any)
	require.Len(t, points, 1)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "hola", payload["pregunta"])
	assert.Equal(t, float64(2), payload["grupo"])
}

func TestSearch(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points/search"] = `{"result":[
		{"id":7,"score":0.91,"payload":{"pregunta":"alta","respuesta":"así","grupo":2,"tema":"carné"}},
		{"id":3,"score":0.82,"payload":{"pregunta":"baja","respuesta":"aqui","grupo":2,"tema":"carné"}}
	]}`
	store := newTestStore(t, fake)

	grupo := 2
	results, err := store.Search(context.Background(), []float32{1, 0, 0}, vectorstore.SearchParams{
		Grupo:     &grupo,
		Limit:     5,
		Threshold: 0.5,
		EF:        128,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.ID(7), results[0].Point.ID)
	assert.InDelta(t, 0.91, results[0].Score, 1e-6)
	assert.Equal(t, "alta", results[0].Point.Payload.Pregunta)
	assert.Equal(t, 2, results[0].Point.Payload.Grupo)

	sent := fake.requests["POST /collections/faq/points/search"]
	require.NotNil(t, sent)
	assert.Equal(t, float64(5), sent["limit"])
	assert.Equal(t, float64(0.5), sent["score_threshold"])
	assert.Equal(t, true, sent["with_payload"])

	params := sent["params"].(map[string]any)
	assert.Equal(t, float64(128), params["hnsw_ef"])

	filter := sent["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	match := must[0].(map[string]any)
	assert.Equal(t, "grupo", match["key"])
	assert.Equal(t, float64(2), match["match"].(map[string]any)["value"])
	assert.Contains(t, filter, "must_not")
}

func TestSearchOmitsEFWhenUnset(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points/search"] = `{"result":[]}`
	store := newTestStore(t, fake)

	_, err := store.Search(context.Background(), []float32{1}, vectorstore.SearchParams{Limit: 3})
	require.NoError(t, err)

	sent := fake.requests["POST /collections/faq/points/search"]
	require.NotNil(t, sent)
	_, hasParams := sent["params"]
	assert.False(t, hasParams)
	_, hasMust := sent["filter"].(map[string]any)["must"]
	assert.False(t, hasMust)
}

func TestGet(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points"] =
		`{"result":[{"id":12,"payload":{"pregunta":"p","respuesta":"r","grupo":4,"tema":"t"}}]}`
	store := newTestStore(t, fake)

	point, err := store.Get(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, core.ID(12), point.ID)
	assert.Equal(t, "r", point.Payload.Respuesta)
	assert.Nil(t, point.Vector)
}

func TestGetNotFound(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points"] = `{"result":[]}`
	store := newTestStore(t, fake)

	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, vectorstore.ErrNotFound)
}

func TestScroll(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.responses["POST /collections/faq/points/scroll"] = `{"result":{"points":[
		{"id":1,"payload":{"pregunta":"a","grupo":1}},
		{"id":2,"payload":{"pregunta":"b","grupo":2}}
	]}}`
	store := newTestStore(t, fake)

	points, err := store.Scroll(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 2, points[1].Payload.Grupo)

	sent := fake.requests["POST /collections/faq/points/scroll"]
	require.NotNil(t, sent)
	assert.Equal(t, float64(vectorstore.DefaultScrollLimit), sent["limit"])
	assert.Contains(t, sent["filter"].(map[string]any), "must_not")
}

func TestBackendErrorStatus(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.statuses["POST /collections/faq/points/search"] = http.StatusInternalServerError
	store := newTestStore(t, fake)

	_, err := store.Search(context.Background(), []float32{1}, vectorstore.SearchParams{Limit: 3})
	assert.True(t, errors.Is(err, vectorstore.ErrBackend))
}
