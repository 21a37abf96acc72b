package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingEmbedder wraps an embedder and counts Embed calls.
type countingEmbedder struct {
	Embedder
	calls atomic.Int32
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return e.Embedder.Embed(ctx, texts)
}

const (
	comfortDoc = `# Humidity and comfort

Relative humidity above 70 percent makes warm days feel muggy and sticky.

Below 30 percent the air feels dry and skin and eyes may be irritated.`

	temperatureDoc = `# Temperature tips

When the minimum temperature is below freezing expect frost on cars and lawns.

When the maximum temperature is above 30 degrees stay hydrated and seek shade.`
)

func writeKnowledgeBase(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "humidity.md"), []byte(comfortDoc), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tips"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tips", "temperature.txt"), []byte(temperatureDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte(`{"x":1}`), 0o644))
	return dir
}

func testOptions(t *testing.T) Options {
	return Options{
		SourceDir:    writeKnowledgeBase(t),
		PersistPath:  filepath.Join(t.TempDir(), "data", "knowledge.db"),
		ChunkSize:    120,
		ChunkOverlap: 20,
	}
}

func TestLoadDocuments(t *testing.T) {
	dir := writeKnowledgeBase(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bom.md"), []byte("\xef\xbb\xbfHello\xff"), 0o644))

	docs, err := LoadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "bom.md", docs[0].Path)
	assert.Equal(t, "Hello\uFFFD", docs[0].Content)
	assert.Equal(t, "humidity.md", docs[1].Path)
	assert.Equal(t, "tips/temperature.txt", docs[2].Path)
}

func TestLoadDocumentsMissingDir(t *testing.T) {
	_, err := LoadDocuments(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestBuildIndexPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	emb := &countingEmbedder{Embedder: NewHashEmbedder(128)}
	logger := zaptest.NewLogger(t)

	built, err := BuildIndex(ctx, opts, emb, logger, nil)
	require.NoError(t, err)
	require.Greater(t, built.Len(), 2)
	assert.Equal(t, "hash/128", built.Meta().EmbeddingModel)
	assert.Equal(t, 128, built.Meta().Dimension)
	assert.Equal(t, int32(1), emb.calls.Load())
	assert.FileExists(t, opts.PersistPath)
	assert.NoFileExists(t, opts.PersistPath+".tmp")

	loaded, err := BuildIndex(ctx, opts, emb, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, built.Len(), loaded.Len())
	assert.Equal(t, int32(1), emb.calls.Load(), "persisted index is reused without embedding")
}

func TestBuildIndexForceRebuild(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	emb := &countingEmbedder{Embedder: NewHashEmbedder(64)}
	logger := zaptest.NewLogger(t)

	_, err := BuildIndex(ctx, opts, emb, logger, nil)
	require.NoError(t, err)

	opts.ForceRebuild = true
	_, err = BuildIndex(ctx, opts, emb, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), emb.calls.Load())
}

func TestBuildIndexRebuildsCorruptFile(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(opts.PersistPath), 0o755))
	require.NoError(t, os.WriteFile(opts.PersistPath, []byte("definitely not sqlite"), 0o644))

	emb := &countingEmbedder{Embedder: NewHashEmbedder(64)}
	idx, err := BuildIndex(ctx, opts, emb, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.Greater(t, idx.Len(), 0)
	assert.Equal(t, int32(1), emb.calls.Load())

	reloaded, err := BuildIndex(ctx, opts, emb, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.Equal(t, idx.Len(), reloaded.Len())
	assert.Equal(t, int32(1), emb.calls.Load(), "corrupt file was replaced")
}

func TestBuildIndexRebuildsOnModelChange(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)

	_, err := BuildIndex(ctx, opts, NewHashEmbedder(64), zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	other := &countingEmbedder{Embedder: NewHashEmbedder(32)}
	idx, err := BuildIndex(ctx, opts, other, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), other.calls.Load())
	assert.Equal(t, "hash/32", idx.Meta().EmbeddingModel)
}

func TestBuildIndexWithoutPersistence(t *testing.T) {
	opts := testOptions(t)
	opts.PersistPath = ""

	idx, err := BuildIndex(context.Background(), opts, NewHashEmbedder(16), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.Greater(t, idx.Len(), 0)
}

func TestBuildIndexEmbedderFailure(t *testing.T) {
	opts := testOptions(t)
	emb := &countingEmbedder{Embedder: NewHashEmbedder(16), err: errors.New("connection refused")}

	_, err := BuildIndex(context.Background(), opts, emb, zaptest.NewLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoFileExists(t, opts.PersistPath)
}

func TestBuildIndexMissingSource(t *testing.T) {
	opts := testOptions(t)
	opts.SourceDir = filepath.Join(t.TempDir(), "missing")

	_, err := BuildIndex(context.Background(), opts, NewHashEmbedder(16), zaptest.NewLogger(t), nil)
	assert.Error(t, err)
}

func TestRetrieveContext(t *testing.T) {
	ctx := context.Background()
	emb := NewHashEmbedder(256)

	idx, err := BuildIndex(ctx, testOptions(t), emb, zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	query := "minimum temperature below freezing frost"

	best, err := RetrieveContext(ctx, emb, idx, query, 1)
	require.NoError(t, err)
	assert.Contains(t, best, "frost")

	two, err := RetrieveContext(ctx, emb, idx, query, 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(two, best+"\n\n"), "chunks are joined by a blank line, best first")
}

func TestRetrieveContextEmptyIndex(t *testing.T) {
	emb := &countingEmbedder{Embedder: NewHashEmbedder(16)}

	text, err := RetrieveContext(context.Background(), emb, nil, "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = RetrieveContext(context.Background(), emb, NewIndex(IndexMeta{}, nil), "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, int32(0), emb.calls.Load())
}

func TestRetrieverBuildsOnce(t *testing.T) {
	opts := testOptions(t)
	opts.PersistPath = ""
	emb := &countingEmbedder{Embedder: NewHashEmbedder(64)}
	r := NewRetriever(opts, emb, zaptest.NewLogger(t), nil)
	assert.False(t, r.Ready())

	var wg sync.WaitGroup
	indexes := make([]*Index, 8)
	for i := range indexes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := r.Index(context.Background())
			assert.NoError(t, err)
			indexes[i] = idx
		}(i)
	}
	wg.Wait()

	assert.True(t, r.Ready())
	assert.Equal(t, int32(1), emb.calls.Load())
	for _, idx := range indexes {
		assert.Same(t, indexes[0], idx)
	}
}

func TestRetrieverRetriesAfterFailure(t *testing.T) {
	opts := testOptions(t)
	emb := &countingEmbedder{Embedder: NewHashEmbedder(64), err: errors.New("ollama down")}
	r := NewRetriever(opts, emb, zaptest.NewLogger(t), nil)

	require.Error(t, r.Warm(context.Background()))
	assert.False(t, r.Ready())

	emb.err = nil
	require.NoError(t, r.Warm(context.Background()))
	assert.True(t, r.Ready())
}

func TestRetrieverRetrieveAndRebuild(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	emb := &countingEmbedder{Embedder: NewHashEmbedder(256)}
	r := NewRetriever(opts, emb, zaptest.NewLogger(t), nil)

	text, err := r.Retrieve(ctx, "relative humidity muggy sticky", 1)
	require.NoError(t, err)
	assert.Contains(t, text, "muggy")

	before, err := r.Index(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(opts.SourceDir, "wind.md"), []byte("Strong wind makes cold days feel colder."), 0o644))
	after, err := r.Rebuild(ctx)
	require.NoError(t, err)
	assert.Greater(t, after.Len(), before.Len())

	current, err := r.Index(ctx)
	require.NoError(t, err)
	assert.Same(t, after, current)
}

// gatedEmbedder blocks every Embed call until release is closed.
type gatedEmbedder struct {
	Embedder
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (e *gatedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.once.Do(func() { close(e.started) })
	<-e.release
	return e.Embedder.Embed(ctx, texts)
}

func TestRetrieverWaitHonoursContext(t *testing.T) {
	opts := testOptions(t)
	opts.PersistPath = ""
	emb := &gatedEmbedder{
		Embedder: NewHashEmbedder(32),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	r := NewRetriever(opts, emb, zaptest.NewLogger(t), nil)

	warmed := make(chan error, 1)
	go func() { warmed <- r.Warm(context.Background()) }()
	<-emb.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Retrieve(ctx, "humidity", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, r.Ready())

	close(emb.release)
	require.NoError(t, <-warmed)
	assert.True(t, r.Ready())

	text, err := r.Retrieve(context.Background(), "relative humidity muggy", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
