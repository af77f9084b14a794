package consulta

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/embed/mock"
	"github.com/sabela/consulta/search"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		VectorStore:     config.StoreBadger,
		VectorDBPath:    filepath.Join(dir, "vectordb"),
		CollectionName:  "faq",
		EmbeddingType:   config.EmbeddingWord2vec,
		SearchLimit:     15,
		HNSWEf:          128,
		UpsertBatchSize: 100,
		KeepAccents:     true,
		HTTPAddr:        ":8080",
	}
	cfg.Embedding.Word2vec.ModelPath = filepath.Join(dir, "model.txt")
	return cfg
}

func TestNewEngineWiresServices(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, testConfig(t), WithProvider(mock.NewEmbedder()))
	require.NoError(t, err)
	defer engine.Close()

	builder, err := engine.IndexBuilder()
	require.NoError(t, err)
	defer builder.Release()

	docs := []core.Document{
		{ID: 1, Text: "hola mundo", Payload: core.Payload{Pregunta: "saludo", Grupo: 2}},
		{ID: 2, Text: "adiós mundo", Payload: core.Payload{Pregunta: "despedida", Grupo: 3}},
	}
	require.NoError(t, builder.Rebuild(ctx, docs, engine.Provider()))

	service, err := engine.SearchService(ctx)
	require.NoError(t, err)

	results, err := service.Search(ctx, "hola mundo", search.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.ID(1), results[0].ID)

	evaluator, err := engine.Evaluator()
	require.NoError(t, err)
	assert.NotNil(t, evaluator)
}

func TestNewEngineInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorStore = "cassandra"

	_, err := NewEngine(context.Background(), cfg, WithProvider(mock.NewEmbedder()))
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestNewEngineMissingModelWithoutTrainingTexts(t *testing.T) {
	// word2vec with no persisted model and no corpus to train on cannot
	// produce a provider.
	_, err := NewEngine(context.Background(), testConfig(t))
	assert.Error(t, err)
}
