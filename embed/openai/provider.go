package openai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/embed"
)

// Provider delegates embedding to a hosted OpenAI-compatible embedding API.
// The vector size is not declared by the service, so it is discovered with a
// single sample call at construction time.
type Provider struct {
	embedder embeddings.Embedder
	model    string
	dim      int
	logger   *slog.Logger
}

var _ embed.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// New creates the hosted API provider. The API key is read from the env var
// named by cfg.APIKeyEnv; "none" is sent when it is unset, which local
// OpenAI-compatible servers accept.
func New(ctx context.Context, cfg config.OpenAIConfig, opts ...Option) (*Provider, error) {
	token := os.Getenv(cfg.APIKeyEnv)
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating client: %w", embed.ErrBackend, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: creating embedder: %w", embed.ErrBackend, err)
	}

	p := &Provider{
		embedder: embedder,
		model:    cfg.Model,
		logger:   slog.Default().With("component", "openai-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Probe once so VectorSize is known before any collection is created.
	sample, err := p.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return nil, fmt.Errorf("%w: probing vector size: %w", embed.ErrBackend, err)
	}
	p.dim = len(sample)
	p.logger.Info("hosted embedding provider ready", "model", p.model, "dim", p.dim)

	return p, nil
}

// EmbedQuery embeds a single text.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		p.logger.Error("query embedding failed", "model", p.model, "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrBackend, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", embed.ErrBackend)
	}
	return vecs[0], nil
}

// EmbedDocuments embeds a batch of texts in input order.
func (p *Provider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, embed.ErrEmptyBatch
	}
	vecs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		p.logger.Error("batch embedding failed", "model", p.model, "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrBackend, err)
	}
	return vecs, nil
}

// VectorSize returns the dimension discovered at construction.
func (p *Provider) VectorSize() int {
	return p.dim
}

// Fingerprint describes the hosted model configuration.
func (p *Provider) Fingerprint() string {
	return fmt.Sprintf("openai:%s:dim=%d", p.model, p.dim)
}
