package transformer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings/huggingface"

	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/embed"
)

// Provider embeds text with a named pretrained transformer encoder through
// the huggingface feature-extraction pipeline, which mean-pools the final
// hidden states into a fixed-length sentence vector. There is no training
// step; the dimension comes from configuration so collections can be sized
// without a probe call.
type Provider struct {
	embedder *huggingface.Huggingface
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

// New creates the pretrained encoder provider for the configured model.
func New(cfg config.TransformerConfig, opts ...Option) (*Provider, error) {
	embedder, err := huggingface.NewHuggingface(
		huggingface.WithModel(cfg.Model),
		huggingface.WithTask("feature-extraction"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating encoder client for %s: %w", embed.ErrBackend, cfg.Model, err)
	}

	p := &Provider{
		embedder: embedder,
		model:    cfg.Model,
		dim:      cfg.Dim,
		logger:   slog.Default().With("component", "transformer-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// EmbedQuery embeds a single text.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		p.logger.Error("query embedding failed", "model", p.model, "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrBackend, err)
	}
	return vec, nil
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

// VectorSize returns the configured encoder hidden size.
func (p *Provider) VectorSize() int {
	return p.dim
}

// Fingerprint describes the encoder configuration.
func (p *Provider) Fingerprint() string {
	return fmt.Sprintf("transformer:%s:dim=%d", p.model, p.dim)
}
