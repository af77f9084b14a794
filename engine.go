// Copyright 2025 Sabela Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package consulta

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/embed"
	"github.com/sabela/consulta/embed/openai"
	"github.com/sabela/consulta/embed/transformer"
	"github.com/sabela/consulta/embed/wordvec"
	"github.com/sabela/consulta/evaluate"
	"github.com/sabela/consulta/ingest"
	"github.com/sabela/consulta/search"
	"github.com/sabela/consulta/vectorstore"
	vsbadger "github.com/sabela/consulta/vectorstore/badger"
	"github.com/sabela/consulta/vectorstore/qdrant"
)

// Engine wires the configured store and embedding provider together and
// hands out the application services. Everything is constructed once
// here and passed down; nothing reads configuration on its own.
type Engine struct {
	cfg      *config.Config
	store    vectorstore.Store
	provider embed.Provider
	logger   *slog.Logger
}

// EngineOption configures engine construction.
type EngineOption func(*engineOptions)

type engineOptions struct {
	store         vectorstore.Store
	provider      embed.Provider
	trainingTexts []string
	logger        *slog.Logger
}

// WithStore injects a pre-built vector store, bypassing the configured
// backend.
func WithStore(store vectorstore.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithProvider injects a pre-built embedding provider, bypassing the
// configured backend.
func WithProvider(provider embed.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithTrainingTexts supplies a corpus for the word-vector provider to
// train on when no persisted model exists yet. Ignored by the other
// providers.
func WithTrainingTexts(texts []string) EngineOption {
	return func(o *engineOptions) {
		o.trainingTexts = texts
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine validates the configuration and builds the store and
// provider it selects.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	store := options.store
	if store == nil {
		var err error
		store, err = openStore(cfg, options.logger)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openProvider(ctx, cfg, options.trainingTexts, options.logger)
		if err != nil {
			if options.store == nil {
				store.Close()
			}
			return nil, err
		}
	}

	return &Engine{
		cfg:      cfg,
		store:    store,
		provider: provider,
		logger:   options.logger,
	}, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore {
	case config.StoreBadger:
		return vsbadger.Open(cfg.VectorDBPath, cfg.CollectionName, false,
			vsbadger.WithLogger(logger.With("component", "badger-store")))
	case config.StoreQdrant:
		return qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.CollectionName,
			qdrant.WithLogger(logger.With("component", "qdrant-store"))), nil
	default:
		return nil, fmt.Errorf("%w: vector store %q", config.ErrUnknownBackend, cfg.VectorStore)
	}
}

func openProvider(ctx context.Context, cfg *config.Config, trainingTexts []string, logger *slog.Logger) (embed.Provider, error) {
	switch cfg.EmbeddingType {
	case config.EmbeddingWord2vec:
		return wordvec.New(cfg.Embedding.Word2vec, trainingTexts,
			wordvec.WithLogger(logger.With("component", "wordvec")))
	case config.EmbeddingTransformer:
		return transformer.New(cfg.Embedding.Transformer,
			transformer.WithLogger(logger.With("component", "transformer")))
	case config.EmbeddingOpenAI:
		return openai.New(ctx, cfg.Embedding.OpenAI,
			openai.WithLogger(logger.With("component", "openai")))
	default:
		return nil, fmt.Errorf("%w: embedding type %q", config.ErrUnknownBackend, cfg.EmbeddingType)
	}
}

// Store returns the wired vector store.
func (e *Engine) Store() vectorstore.Store {
	return e.store
}

// Provider returns the wired embedding provider.
func (e *Engine) Provider() embed.Provider {
	return e.provider
}

// SearchService builds the retrieval service with the configured
// defaults.
func (e *Engine) SearchService(ctx context.Context) (*search.Service, error) {
	return search.NewService(ctx, e.store, e.provider,
		search.WithLimit(e.cfg.SearchLimit),
		search.WithThreshold(e.cfg.SearchThreshold),
		search.WithEF(e.cfg.HNSWEf),
		search.WithLogger(e.logger.With("component", "search")))
}

// IndexBuilder builds the ingestion pipeline with the configured batch
// size. The caller owns the builder and must Release it.
func (e *Engine) IndexBuilder() (*ingest.Builder, error) {
	return ingest.NewBuilder(e.store,
		ingest.WithBatchSize(e.cfg.UpsertBatchSize),
		ingest.WithLogger(e.logger.With("component", "ingest")))
}

// Evaluator builds the offline ranking evaluator.
func (e *Engine) Evaluator() (*evaluate.Evaluator, error) {
	return evaluate.NewEvaluator(e.provider,
		evaluate.WithLogger(e.logger.With("component", "evaluate")))
}

// Close releases the store. Injected stores are closed too; the engine
// owns whatever it serves.
func (e *Engine) Close() error {
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}
