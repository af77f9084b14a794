package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/vectorstore"
)

// Store is the embedded vector-store backend: a badger database on a local
// path holding one or more collections. Search is an exact cosine scan over
// the collection, which is linear in collection size and entirely adequate
// for a corpus of a few thousand FAQ articles. The approximate-search EF
// knob is accepted and ignored; exact search can only over-deliver recall.
//
// At most one process may hold a write-capable handle on the path at a
// time; badger itself enforces the directory lock.
type Store struct {
	db         *badger.DB
	collection string
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// Open opens the store at filePath, creating the directory if needed. An
// empty filePath with inMemory=true opens an ephemeral database for tests.
func Open(filePath, collection string, inMemory bool, opts ...Option) (*Store, error) {
	var badgerOpts badger.Options

	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0o755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	s := &Store{
		collection: collection,
		logger:     slog.Default().With("component", "badger-store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: s.logger}
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", vectorstore.ErrBackend, filePath, err)
	}
	s.db = db
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Recreate drops every key of the collection, then writes fresh metadata.
func (s *Store) Recreate(_ context.Context, meta vectorstore.Meta) error {
	if meta.Dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive", vectorstore.ErrInvalidParams)
	}

	s.logger.Info("recreating collection",
		"collection", s.collection,
		"dim", meta.Dim,
		"fingerprint", meta.Fingerprint)

	if err := s.db.DropPrefix(collectionKeyPrefix(s.collection)); err != nil {
		return fmt.Errorf("%w: dropping collection %s: %w", vectorstore.ErrBackend, s.collection, err)
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeMetaKey(s.collection), marshalMeta(meta))
	})
	if err != nil {
		return fmt.Errorf("%w: writing collection meta: %w", vectorstore.ErrBackend, err)
	}
	return nil
}

// Meta reads the collection metadata recorded by Recreate.
func (s *Store) Meta(_ context.Context) (vectorstore.Meta, error) {
	var meta vectorstore.Meta
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetaKey(s.collection))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			meta, err = unmarshalMeta(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return vectorstore.Meta{}, vectorstore.ErrCollectionMissing
	}
	if err != nil {
		return vectorstore.Meta{}, fmt.Errorf("%w: reading collection meta: %w", vectorstore.ErrBackend, err)
	}
	return meta, nil
}

// Upsert writes points, replacing any existing record with the same id.
func (s *Store) Upsert(ctx context.Context, points []core.Point) error {
	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != meta.Dim {
			return fmt.Errorf("%w: point %d has %d components, collection has %d",
				vectorstore.ErrDimensionMismatch, p.ID, len(p.Vector), meta.Dim)
		}
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		for _, p := range points {
			if err := tx.Set(makePointKey(s.collection, p.ID), marshalPoint(p)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %w", vectorstore.ErrBackend, len(points), err)
	}
	return nil
}

// Search scans the collection, scoring every point by cosine similarity.
func (s *Store) Search(ctx context.Context, vector []float32, params vectorstore.SearchParams) ([]core.ScoredPoint, error) {
	if params.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", vectorstore.ErrInvalidParams)
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	if len(vector) != meta.Dim {
		return nil, fmt.Errorf("%w: query has %d components, collection has %d",
			vectorstore.ErrDimensionMismatch, len(vector), meta.Dim)
	}

	var results []core.ScoredPoint
	err = s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pointKeyPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var point core.Point
			err := iter.Item().Value(func(val []byte) error {
				var err error
				point, err = unmarshalPoint(val)
				return err
			})
			if err != nil {
				return err
			}

			if params.Grupo != nil && point.Payload.Grupo != *params.Grupo {
				continue
			}

			score := cosineSimilarity(vector, point.Vector)
			if score < params.Threshold {
				continue
			}
			results = append(results, core.ScoredPoint{Point: point, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %s: %w", vectorstore.ErrBackend, s.collection, err)
	}

	slices.SortFunc(results, func(a, b core.ScoredPoint) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		// Equal scores tie-break on id for deterministic ordering.
		if a.Point.ID < b.Point.ID {
			return -1
		}
		if a.Point.ID > b.Point.ID {
			return 1
		}
		return 0
	})

	if len(results) > params.Limit {
		results = results[:params.Limit]
	}
	return results, nil
}

// Get retrieves a single point by id. The vector is not returned.
func (s *Store) Get(_ context.Context, id core.ID) (*core.Point, error) {
	var point core.Point
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makePointKey(s.collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			point, err = unmarshalPoint(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, vectorstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: retrieving point %d: %w", vectorstore.ErrBackend, id, err)
	}
	point.Vector = nil
	return &point, nil
}

// Scroll returns up to limit points without vectors.
func (s *Store) Scroll(_ context.Context, limit int) ([]core.Point, error) {
	if limit <= 0 {
		limit = vectorstore.DefaultScrollLimit
	}

	var points []core.Point
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pointKeyPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(points) < limit; iter.Next() {
			var point core.Point
			err := iter.Item().Value(func(val []byte) error {
				var err error
				point, err = unmarshalPoint(val)
				return err
			})
			if err != nil {
				return err
			}
			point.Vector = nil
			points = append(points, point)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scrolling collection %s: %w", vectorstore.ErrBackend, s.collection, err)
	}
	return points, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors score zero against everything.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
