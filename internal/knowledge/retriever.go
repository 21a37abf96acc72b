package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/metrics"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options locate the knowledge base and its persisted index.
type Options struct {
	SourceDir    string
	PersistPath  string
	ForceRebuild bool
	ChunkSize    int
	ChunkOverlap int
}

func OptionsFromConfig(cfg config.RAGConfig) Options {
	return Options{
		SourceDir:    cfg.SourceDir,
		PersistPath:  cfg.PersistPath,
		ForceRebuild: cfg.ForceRebuild,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}
}

// BuildIndex reuses the index persisted at opts.PersistPath unless
// opts.ForceRebuild is set or loading fails, in which case it chunks and
// embeds opts.SourceDir and persists the result.
func BuildIndex(ctx context.Context, opts Options, embedder Embedder, logger *zap.Logger, tele *telemetry.Telemetry) (*Index, error) {
	ctx, span := tele.GetTracer().Start(ctx, "knowledge.BuildIndex")
	defer span.End()

	span.SetAttributes(
		attribute.String("source_dir", opts.SourceDir),
		attribute.String("persist_path", opts.PersistPath),
		attribute.Bool("force_rebuild", opts.ForceRebuild),
	)

	if !opts.ForceRebuild && opts.PersistPath != "" {
		if _, err := os.Stat(opts.PersistPath); err == nil {
			idx, err := loadIndex(ctx, opts.PersistPath, embedder.Model())
			if err == nil {
				metrics.IndexBuildsTotal.WithLabelValues("loaded").Inc()
				span.SetAttributes(attribute.String("source", "loaded"), attribute.Int("chunks", idx.Len()))
				logger.Info("Loaded knowledge index",
					zap.String("path", opts.PersistPath),
					zap.Int("chunks", idx.Len()),
					zap.String("embedding_model", idx.Meta().EmbeddingModel))
				return idx, nil
			}
			logger.Warn("Failed to load persisted knowledge index, rebuilding",
				zap.String("path", opts.PersistPath),
				zap.Error(err))
		}
	}

	start := time.Now()

	docs, err := LoadDocuments(opts.SourceDir)
	if err != nil {
		tele.RecordError(ctx, err)
		return nil, err
	}

	chunks, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap).SplitDocuments(docs)
	if err != nil {
		tele.RecordError(ctx, err)
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		tele.RecordError(ctx, err)
		return nil, fmt.Errorf("embed knowledge chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	dim := 0
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
		if i == 0 {
			dim = len(vecs[i])
		} else if len(vecs[i]) != dim {
			return nil, fmt.Errorf("embedder returned mixed dimensions %d and %d", dim, len(vecs[i]))
		}
	}

	meta := IndexMeta{
		EmbeddingModel: embedder.Model(),
		Dimension:      dim,
		ChunkSize:      opts.ChunkSize,
		ChunkOverlap:   opts.ChunkOverlap,
		BuiltAt:        nowUTC(),
	}

	if opts.PersistPath != "" {
		if err := persistIndex(ctx, opts.PersistPath, meta, chunks); err != nil {
			// the in-memory index is still usable; the next process start rebuilds
			logger.Warn("Failed to persist knowledge index",
				zap.String("path", opts.PersistPath),
				zap.Error(err))
		}
	}

	metrics.IndexBuildsTotal.WithLabelValues("built").Inc()
	span.SetAttributes(attribute.String("source", "built"), attribute.Int("chunks", len(chunks)))
	logger.Info("Built knowledge index",
		zap.String("source_dir", opts.SourceDir),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.String("embedding_model", meta.EmbeddingModel),
		zap.Duration("duration", time.Since(start)))

	return NewIndex(meta, chunks), nil
}

func loadIndex(ctx context.Context, path, model string) (*Index, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	idx, err := store.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if got := idx.Meta().EmbeddingModel; got != model {
		return nil, fmt.Errorf("index was built with %s, configured embedder is %s", got, model)
	}
	return idx, nil
}

// persistIndex writes to a temporary file and renames it over path so readers
// never observe a half-written index.
func persistIndex(ctx context.Context, path string, meta IndexMeta, chunks []Chunk) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	store, err := OpenStore(tmp)
	if err != nil {
		return err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return fmt.Errorf("migrate index database: %w", err)
	}
	if err := store.SaveIndex(ctx, meta, chunks); err != nil {
		store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close index database: %w", err)
	}

	return os.Rename(tmp, path)
}

// RetrieveContext embeds query and joins the k best chunks with blank lines.
// A nil or empty index yields "".
func RetrieveContext(ctx context.Context, embedder Embedder, idx *Index, query string, k int) (string, error) {
	if idx.Len() == 0 {
		return "", nil
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embedder returned %d vectors for the query", len(vecs))
	}

	results := idx.Search(vecs[0], k)
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// Retriever owns the process-wide index. The index is built at most once at
// a time; a failed build is not remembered so a later call tries again.
// Callers waiting on a build in progress give up when their context ends.
type Retriever struct {
	opts     Options
	embedder Embedder
	logger   *zap.Logger
	tele     *telemetry.Telemetry

	// building holds one token while a build runs.
	building chan struct{}
	index    atomic.Pointer[Index]
}

func NewRetriever(opts Options, embedder Embedder, logger *zap.Logger, tele *telemetry.Telemetry) *Retriever {
	return &Retriever{
		opts:     opts,
		embedder: embedder,
		logger:   logger,
		tele:     tele,
		building: make(chan struct{}, 1),
	}
}

func (r *Retriever) acquire(ctx context.Context) error {
	select {
	case r.building <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for knowledge index: %w", ctx.Err())
	}
}

func (r *Retriever) release() {
	<-r.building
}

// Index returns the shared index, building or loading it on first use.
func (r *Retriever) Index(ctx context.Context) (*Index, error) {
	if idx := r.index.Load(); idx != nil {
		return idx, nil
	}

	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	if idx := r.index.Load(); idx != nil {
		return idx, nil
	}

	idx, err := BuildIndex(ctx, r.opts, r.embedder, r.logger, r.tele)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	r.index.Store(idx)
	metrics.IndexChunks.Set(float64(idx.Len()))
	return idx, nil
}

// Rebuild ignores any persisted index and replaces the shared one.
func (r *Retriever) Rebuild(ctx context.Context) (*Index, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	opts := r.opts
	opts.ForceRebuild = true

	idx, err := BuildIndex(ctx, opts, r.embedder, r.logger, r.tele)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	r.index.Store(idx)
	metrics.IndexChunks.Set(float64(idx.Len()))
	return idx, nil
}

// Warm builds the index ahead of the first request.
func (r *Retriever) Warm(ctx context.Context) error {
	_, err := r.Index(ctx)
	return err
}

func (r *Retriever) Ready() bool {
	return r.index.Load() != nil
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	ctx, span := r.tele.GetTracer().Start(ctx, "knowledge.Retrieve")
	defer span.End()

	idx, err := r.Index(ctx)
	if err != nil {
		return "", err
	}

	text, err := RetrieveContext(ctx, r.embedder, idx, query, k)
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.Int("k", k), attribute.Int("context_len", len(text)))
	return text, nil
}
