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


package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store backend selectors.
const (
	StoreBadger = "badger"
	StoreQdrant = "qdrant"
)

// Embedding backend selectors.
const (
	EmbeddingWord2vec    = "word2vec"
	EmbeddingTransformer = "transformer"
	EmbeddingOpenAI      = "openai"
)

// Config is the single configuration structure for the whole service.
// It is built once at startup from the environment (plus the embedding YAML
// file) and passed down explicitly; no component reads the environment on
// its own.
type Config struct {
	// VectorStore selects the store backend: "badger" or "qdrant".
	VectorStore string

	// VectorDBPath is the on-disk path for the embedded badger store.
	VectorDBPath string

	// QdrantURL is the base URL of a remote qdrant instance, e.g.
	// "http://localhost:6333". Required when VectorStore is "qdrant".
	QdrantURL string

	// QdrantAPIKey is sent as the api-key header when non-empty.
	QdrantAPIKey string

	// CollectionName is the vector-store collection holding the FAQ index.
	CollectionName string

	// EmbeddingType selects the provider: "word2vec", "transformer" or
	// "openai".
	EmbeddingType string

	// Embedding holds the per-backend model parameters, loaded from the
	// YAML file at CONFIG_FILE_PATH.
	Embedding EmbeddingConfig

	// ExcelPath is the source spreadsheet for ingestion and evaluation.
	ExcelPath string

	// RankingsPath is the ground-truth ranking report for evaluation.
	RankingsPath string

	// SearchLimit is the default result count when a caller omits limit.
	// A caller can never request an unbounded result set.
	SearchLimit int

	// SearchThreshold is the default minimum similarity score.
	SearchThreshold float32

	// HNSWEf is the approximate-search accuracy knob passed to the store.
	HNSWEf int

	// UpsertBatchSize bounds how many points each ingestion upsert carries.
	UpsertBatchSize int

	// KeepAccents selects the accent-preserving normalizer variant. It must
	// stay consistent across ingestion, serving and evaluation for one
	// corpus, or the vocabulary fragments.
	KeepAccents bool

	// HTTPAddr is the listen address for the serving surface.
	HTTPAddr string
}

// EmbeddingConfig is the per-backend model parameter block, one section per
// provider. Only the section matching EmbeddingType is consulted.
type EmbeddingConfig struct {
	Word2vec    Word2vecConfig    `yaml:"word2vec"`
	Transformer TransformerConfig `yaml:"transformer"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
}

// Word2vecConfig configures the trained word-vector provider.
type Word2vecConfig struct {
	// ModelPath is where the trained vectors are persisted and looked for.
	ModelPath string `yaml:"model_path"`
	// Dim is the vector dimension. Default 100.
	Dim int `yaml:"dim"`
	// Initlr is the initial learning rate. Default 0.025.
	Initlr float64 `yaml:"lr"`
	// Epochs is the number of training iterations. Default 5.
	Epochs int `yaml:"epochs"`
	// Window is the context window size. Default 5.
	Window int `yaml:"window"`
	// Flavor is the training algorithm: "skipgram" or "cbow".
	Flavor string `yaml:"flavor"`
	// MinCount drops words seen fewer times during training. Default 1,
	// the corpus is small.
	MinCount int `yaml:"min_count"`
	// Threads is the trainer thread count. Default 4.
	Threads int `yaml:"threads"`
}

// TransformerConfig configures the pretrained encoder provider.
type TransformerConfig struct {
	// Model is the pretrained encoder name, e.g.
	// "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2".
	Model string `yaml:"model"`
	// Dim is the encoder hidden size. Declared here so collections can be
	// sized without a probe call.
	Dim int `yaml:"dim"`
}

// OpenAIConfig configures the hosted embedding API provider. Vector size is
// discovered with a single sample call at startup.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// FromEnv builds a Config from the process environment, applying defaults
// and loading the embedding YAML file when CONFIG_FILE_PATH is set.
func FromEnv() (*Config, error) {
	cfg := &Config{
		VectorStore:     envOr("VECTOR_STORE", StoreBadger),
		VectorDBPath:    os.Getenv("VECTOR_DB_PATH"),
		QdrantURL:       os.Getenv("QDRANT_URL"),
		QdrantAPIKey:    os.Getenv("QDRANT_API_KEY"),
		CollectionName:  envOr("COLLECTION_NAME", "faq"),
		EmbeddingType:   envOr("EMBEDDING_TYPE", EmbeddingWord2vec),
		ExcelPath:       os.Getenv("EXCEL_FILE_PATH"),
		RankingsPath:    os.Getenv("RANKINGS_FILE_PATH"),
		SearchLimit:     15,
		SearchThreshold: 0,
		HNSWEf:          128,
		UpsertBatchSize: 100,
		KeepAccents:     true,
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.SearchLimit, err = envIntOr("SEARCH_LIMIT", cfg.SearchLimit); err != nil {
		return nil, err
	}
	if cfg.HNSWEf, err = envIntOr("HNSW_EF", cfg.HNSWEf); err != nil {
		return nil, err
	}
	if cfg.UpsertBatchSize, err = envIntOr("UPSERT_BATCH_SIZE", cfg.UpsertBatchSize); err != nil {
		return nil, err
	}
	if cfg.SearchThreshold, err = envFloatOr("SEARCH_THRESHOLD", cfg.SearchThreshold); err != nil {
		return nil, err
	}
	if cfg.KeepAccents, err = envBoolOr("KEEP_ACCENTS", cfg.KeepAccents); err != nil {
		return nil, err
	}

	if path := os.Getenv("CONFIG_FILE_PATH"); path != "" {
		if err := cfg.loadEmbeddingFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEmbeddingDefaults()

	return cfg, nil
}

// loadEmbeddingFile reads the per-backend embedding parameters from a YAML
// file.
func (c *Config) loadEmbeddingFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading embedding config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c.Embedding); err != nil {
		return fmt.Errorf("config: parsing embedding config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEmbeddingDefaults() {
	w := &c.Embedding.Word2vec
	if w.Dim == 0 {
		w.Dim = 100
	}
	if w.Initlr == 0 {
		w.Initlr = 0.025
	}
	if w.Epochs == 0 {
		w.Epochs = 5
	}
	if w.Window == 0 {
		w.Window = 5
	}
	if w.Flavor == "" {
		w.Flavor = "skipgram"
	}
	if w.MinCount == 0 {
		w.MinCount = 1
	}
	if w.Threads == 0 {
		w.Threads = 4
	}

	o := &c.Embedding.OpenAI
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.Model == "" {
		o.Model = "text-embedding-3-small"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "OPENAI_API_KEY"
	}
}

// Validate checks that the configuration is complete for the selected
// backends. It is fatal at startup: nothing is constructed from an invalid
// configuration.
func (c *Config) Validate() error {
	switch c.VectorStore {
	case StoreBadger:
		if c.VectorDBPath == "" {
			return fmt.Errorf("%w: VECTOR_DB_PATH", ErrMissingSetting)
		}
	case StoreQdrant:
		if c.QdrantURL == "" {
			return fmt.Errorf("%w: QDRANT_URL", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: vector store %q", ErrUnknownBackend, c.VectorStore)
	}

	if c.CollectionName == "" {
		return fmt.Errorf("%w: COLLECTION_NAME", ErrMissingSetting)
	}

	switch c.EmbeddingType {
	case EmbeddingWord2vec:
		if c.Embedding.Word2vec.ModelPath == "" {
			return fmt.Errorf("%w: embedding word2vec model_path", ErrMissingSetting)
		}
	case EmbeddingTransformer:
		if c.Embedding.Transformer.Model == "" {
			return fmt.Errorf("%w: embedding transformer model", ErrMissingSetting)
		}
		if c.Embedding.Transformer.Dim <= 0 {
			return fmt.Errorf("%w: embedding transformer dim", ErrMissingSetting)
		}
	case EmbeddingOpenAI:
		// Base URL and model carry defaults; the key is read lazily from
		// the configured env var by the provider.
	default:
		return fmt.Errorf("%w: embedding type %q", ErrUnknownBackend, c.EmbeddingType)
	}

	if c.SearchLimit <= 0 {
		return fmt.Errorf("%w: SEARCH_LIMIT must be positive", ErrInvalidSetting)
	}
	if c.UpsertBatchSize <= 0 {
		return fmt.Errorf("%w: UPSERT_BATCH_SIZE must be positive", ErrInvalidSetting)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return n, nil
}

func envFloatOr(key string, fallback float32) (float32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return float32(f), nil
}

func envBoolOr(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return b, nil
}
