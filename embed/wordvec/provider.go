package wordvec

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ynqa/wego/pkg/embedding"
	"github.com/ynqa/wego/pkg/model/modelutil/vector"
	"github.com/ynqa/wego/pkg/model/word2vec"

	"github.com/sabela/consulta/config"
	"github.com/sabela/consulta/embed"
)

// Provider embeds text with word vectors trained from the corpus itself.
// On construction it loads a persisted model when one exists at the
// configured path; otherwise it trains one from the supplied corpus texts
// and persists it. A sentence vector is the mean of its known word vectors.
type Provider struct {
	cfg     config.Word2vecConfig
	vectors map[string][]float32
	dim     int
	logger  *slog.Logger
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

// New creates the trained word-vector provider. trainingTexts is the
// normalized corpus; it is only consulted when no persisted model exists at
// cfg.ModelPath. Returns embed.ErrModelNotLoaded when neither is available.
func New(cfg config.Word2vecConfig, trainingTexts []string, opts ...Option) (*Provider, error) {
	p := &Provider{
		cfg:    cfg,
		logger: slog.Default().With("component", "wordvec-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := os.Stat(cfg.ModelPath); err == nil {
		if err := p.loadModel(cfg.ModelPath); err != nil {
			return nil, err
		}
		return p, nil
	}

	if len(trainingTexts) == 0 {
		return nil, embed.ErrModelNotLoaded
	}

	if err := p.train(trainingTexts); err != nil {
		return nil, err
	}
	if err := p.loadModel(cfg.ModelPath); err != nil {
		return nil, err
	}
	return p, nil
}

// train runs word2vec over the corpus and persists the vectors to
// cfg.ModelPath. The trainer consumes a temporary one-line-per-document
// file, as the upstream library reads corpora from a seekable stream.
func (p *Provider) train(texts []string) error {
	p.logger.Info("training word vectors",
		"documents", len(texts),
		"dim", p.cfg.Dim,
		"flavor", p.cfg.Flavor,
		"epochs", p.cfg.Epochs)

	tmp, err := os.CreateTemp("", "wordvec-corpus-*.txt")
	if err != nil {
		return fmt.Errorf("%w: creating training file: %w", embed.ErrBackend, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	for _, text := range texts {
		if _, err := fmt.Fprintln(tmp, text); err != nil {
			return fmt.Errorf("%w: writing training file: %w", embed.ErrBackend, err)
		}
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return fmt.Errorf("%w: rewinding training file: %w", embed.ErrBackend, err)
	}

	flavor := word2vec.SkipGram
	if strings.EqualFold(p.cfg.Flavor, "cbow") {
		flavor = word2vec.Cbow
	}

	model, err := word2vec.New(
		word2vec.Model(flavor),
		word2vec.Optimizer(word2vec.NegativeSampling),
		word2vec.NegativeSampleSize(5),
		word2vec.Dim(p.cfg.Dim),
		word2vec.Initlr(p.cfg.Initlr),
		word2vec.Iter(p.cfg.Epochs),
		word2vec.Window(p.cfg.Window),
		word2vec.MinCount(p.cfg.MinCount),
		word2vec.Goroutines(p.cfg.Threads),
		word2vec.ToLower(),
	)
	if err != nil {
		return fmt.Errorf("%w: configuring trainer: %w", embed.ErrBackend, err)
	}

	if err := model.Train(tmp); err != nil {
		return fmt.Errorf("%w: training: %w", embed.ErrBackend, err)
	}

	if err := os.MkdirAll(filepath.Dir(p.cfg.ModelPath), 0o755); err != nil {
		return fmt.Errorf("%w: creating model directory: %w", embed.ErrBackend, err)
	}
	out, err := os.Create(p.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: creating model file: %w", embed.ErrBackend, err)
	}
	defer out.Close()
	if err := model.Save(out, vector.Single); err != nil {
		return fmt.Errorf("%w: saving model: %w", embed.ErrBackend, err)
	}

	p.logger.Info("word vectors persisted", "path", p.cfg.ModelPath)
	return nil
}

// loadModel reads persisted word vectors into memory.
func (p *Provider) loadModel(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening model %s: %w", embed.ErrBackend, path, err)
	}
	defer f.Close()

	embs, err := embedding.Load(f)
	if err != nil {
		return fmt.Errorf("%w: parsing model %s: %w", embed.ErrBackend, path, err)
	}

	vectors := make(map[string][]float32, len(embs))
	dim := 0
	for _, emb := range embs {
		vec := make([]float32, len(emb.Vector))
		for i, v := range emb.Vector {
			vec[i] = float32(v)
		}
		vectors[emb.Word] = vec
		dim = emb.Dim
	}
	if dim == 0 {
		return fmt.Errorf("%w: model %s contains no vectors", embed.ErrBackend, path)
	}

	p.vectors = vectors
	p.dim = dim
	p.logger.Info("word vectors loaded", "path", path, "vocabulary", len(vectors), "dim", dim)
	return nil
}

// EmbedQuery produces the mean of the known word vectors of text, L2
// normalized. Text with no in-vocabulary token yields a zero vector.
func (p *Provider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if p.vectors == nil {
		return nil, embed.ErrModelNotLoaded
	}

	sum := make([]float32, p.dim)
	known := 0
	for _, token := range strings.Fields(strings.ToLower(text)) {
		vec, ok := p.vectors[token]
		if !ok {
			continue
		}
		for i, v := range vec {
			sum[i] += v
		}
		known++
	}
	if known == 0 {
		return sum, nil
	}

	var norm float64
	for i := range sum {
		sum[i] /= float32(known)
		norm += float64(sum[i]) * float64(sum[i])
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range sum {
			sum[i] *= inv
		}
	}
	return sum, nil
}

// EmbedDocuments embeds each text in order.
func (p *Provider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, embed.ErrEmptyBatch
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// VectorSize returns the trained dimension.
func (p *Provider) VectorSize() int {
	return p.dim
}

// Fingerprint describes the trained model configuration.
func (p *Provider) Fingerprint() string {
	return fmt.Sprintf("word2vec:%s:dim=%d", strings.ToLower(p.cfg.Flavor), p.dim)
}
