package chunkindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/db/valkey"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// Hash fields of a stored chunk.
const (
	fieldID       = "id"
	fieldText     = "text"
	fieldDocument = "document"
	fieldPage     = "page"
	fieldPosition = "position"
)

var returnFields = []string{fieldID, fieldText, fieldDocument, fieldPage, fieldPosition}

// store is the consumer interface for the Valkey-backed index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// ValkeyFactory creates one FT index per processed document.
type ValkeyFactory struct {
	store       store
	prefix      string
	m           int
	efConstruct int
	logger      *zap.Logger
}

// NewValkeyFactory creates a factory. prefix namespaces every key and index name.
func NewValkeyFactory(s store, prefix string, m, efConstruct int, logger *zap.Logger) *ValkeyFactory {
	return &ValkeyFactory{store: s, prefix: prefix, m: m, efConstruct: efConstruct, logger: logger}
}

// New implements retrieval.IndexFactory. A leftover index with the same name is replaced.
func (f *ValkeyFactory) New(ctx context.Context, name string, dim int) (retrieval.Index, error) {
	idx := &ValkeyIndex{
		store:     f.store,
		indexName: f.prefix + "idx:" + name,
		keyPrefix: f.prefix + "chunk:" + name + ":",
		dim:       dim,
		logger:    f.logger,
	}

	def, err := db.NewIndex(idx.indexName).
		Prefix(idx.keyPrefix).
		Numeric(fieldPage).
		Numeric(fieldPosition).
		Tag(fieldDocument).
		HNSW(valkey.VectorField, dim, f.m, f.efConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition %s: %w", idx.indexName, err)
	}

	err = f.store.CreateIndex(ctx, def)
	if errors.Is(err, db.ErrIndexExists) {
		f.logger.Warn("Replacing leftover index", zap.String("index", idx.indexName))
		if err := idx.Drop(ctx); err != nil {
			return nil, err
		}
		err = f.store.CreateIndex(ctx, def)
	}
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", idx.indexName, err)
	}
	return idx, nil
}

// ValkeyIndex stores chunks as hashes under a per-document prefix.
type ValkeyIndex struct {
	store     store
	indexName string
	keyPrefix string
	dim       int
	count     atomic.Int64
	logger    *zap.Logger
}

// Add implements retrieval.Index.
func (v *ValkeyIndex) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("index %s: %d chunks but %d vectors", v.indexName, len(chunks), len(vectors))
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != v.dim {
			return fmt.Errorf("index %s: vector %d has %d dims, want %d: %w",
				v.indexName, i, len(vectors[i]), v.dim, domain.ErrVectorDimMismatch)
		}
		items[i] = db.HashSetItem{
			Key: v.keyPrefix + strconv.Itoa(c.Position),
			Fields: map[string]string{
				fieldID:            c.ID,
				fieldText:          c.Text,
				fieldDocument:      c.Document,
				fieldPage:          strconv.Itoa(c.Page),
				fieldPosition:      strconv.Itoa(c.Position),
				valkey.VectorField: valkey.VectorToBytes(vectors[i]),
			},
		}
	}

	if err := v.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store chunks in %s: %w", v.indexName, err)
	}
	v.count.Add(int64(len(items)))
	return nil
}

// Search implements retrieval.Index.
func (v *ValkeyIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(vector) != v.dim {
		return nil, fmt.Errorf("index %s: query has %d dims, want %d: %w",
			v.indexName, len(vector), v.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	res, err := v.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    v.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %s: %w", v.indexName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("search %s: %w", v.indexName, err)
	}

	hits := make([]domain.ScoredChunk, 0, len(res.Entries))
	for _, e := range res.Entries {
		page, _ := strconv.Atoi(e.Fields[fieldPage])
		pos, _ := strconv.Atoi(e.Fields[fieldPosition])
		hits = append(hits, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:       e.Fields[fieldID],
				Document: e.Fields[fieldDocument],
				Page:     page,
				Position: pos,
				Text:     e.Fields[fieldText],
			},
			Score: e.Score,
		})
	}
	return hits, nil
}

// Drop removes the FT index and the chunk hashes, which FT.DROPINDEX leaves behind.
func (v *ValkeyIndex) Drop(ctx context.Context) error {
	if err := v.store.DropIndex(ctx, v.indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", v.indexName, err)
	}

	keys, err := v.store.Scan(ctx, v.keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", v.keyPrefix, err)
	}
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := v.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("delete chunks of %s: %w", v.indexName, err)
		}
	}

	v.count.Store(0)
	v.logger.Debug("Index dropped", zap.String("index", v.indexName), zap.Int("keys", len(keys)))
	return nil
}

// Len implements retrieval.Index.
func (v *ValkeyIndex) Len() int {
	return int(v.count.Load())
}
