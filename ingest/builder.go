// Package ingest rebuilds the vector collection from a loaded corpus.
// Embedding runs on a worker pool so that slow backends (notably the
// hosted API) overlap network round-trips across batches.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/embed"
	"github.com/sabela/consulta/vectorstore"
)

// DefaultBatchSize is the number of documents embedded and upserted per
// worker task.
const DefaultBatchSize = 100

// Builder rebuilds a collection from scratch. A rebuild drops whatever
// the collection held before; partial failures leave the collection
// incomplete and the caller is expected to rerun the ingestion.
type Builder struct {
	store     vectorstore.Store
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets the documents-per-batch size. Default is
// DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size > 0 {
			b.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates an index builder over the given store.
func NewBuilder(store vectorstore.Store, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		store:     store,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	return b, nil
}

// Release releases the worker pool. The builder should not be used
// after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Rebuild recreates the collection and indexes every document. It
// blocks until all batches are embedded and upserted, returning the
// first error encountered.
func (b *Builder) Rebuild(ctx context.Context, docs []core.Document, provider embed.Provider) error {
	if provider == nil {
		return ErrProviderRequired
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	start := time.Now()
	meta := vectorstore.Meta{
		Dim:         provider.VectorSize(),
		Fingerprint: provider.Fingerprint(),
	}
	if err := b.store.Recreate(ctx, meta); err != nil {
		return err
	}

	b.logger.Info("rebuilding index",
		"documents", len(docs),
		"dim", meta.Dim,
		"fingerprint", meta.Fingerprint,
		"batch_size", b.batchSize)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for offset := 0; offset < len(docs); offset += b.batchSize {
		if failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			recordErr(err)
			break
		}

		batch := docs[offset:min(offset+b.batchSize, len(docs))]
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if failed() {
				return
			}
			if err := b.indexBatch(ctx, batch, provider); err != nil {
				recordErr(err)
			}
		})
		if err != nil {
			wg.Done()
			recordErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	b.logger.Info("index rebuilt", "documents", len(docs), "elapsed", time.Since(start))
	return nil
}

func (b *Builder) indexBatch(ctx context.Context, batch []core.Document, provider embed.Provider) error {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Text
	}

	vectors, err := provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return errors.New("embedding backend returned wrong batch size")
	}

	points := make([]core.Point, len(batch))
	for i, doc := range batch {
		points[i] = core.Point{ID: doc.ID, Vector: vectors[i], Payload: doc.Payload}
	}
	return b.store.Upsert(ctx, points)
}
