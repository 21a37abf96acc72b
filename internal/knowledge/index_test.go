package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSearchRanksByCosine(t *testing.T) {
	idx := NewIndex(IndexMeta{Dimension: 2}, []Chunk{
		{Source: "a", Content: "east", Embedding: []float32{1, 0}},
		{Source: "b", Content: "north", Embedding: []float32{0, 1}},
		{Source: "c", Content: "north-east", Embedding: []float32{1, 1}},
	})

	results := idx.Search([]float32{0, 2}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "north", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "north-east", results[1].Chunk.Content)
	assert.InDelta(t, 0.7071, results[1].Score, 1e-4)
}

func TestIndexSearchKLargerThanIndex(t *testing.T) {
	idx := NewIndex(IndexMeta{Dimension: 2}, []Chunk{
		{Content: "one", Embedding: []float32{1, 0}},
		{Content: "two", Embedding: []float32{0, 1}},
	})

	assert.Len(t, idx.Search([]float32{1, 0}, 10), 2)
	assert.Empty(t, idx.Search([]float32{1, 0}, 0))
}

func TestIndexSearchTiesKeepDocumentOrder(t *testing.T) {
	idx := NewIndex(IndexMeta{Dimension: 2}, []Chunk{
		{Content: "first", Embedding: []float32{1, 0}},
		{Content: "second", Embedding: []float32{2, 0}},
		{Content: "third", Embedding: []float32{3, 0}},
	})

	results := idx.Search([]float32{1, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Chunk.Content)
	assert.Equal(t, "second", results[1].Chunk.Content)
	assert.Equal(t, "third", results[2].Chunk.Content)
}

func TestIndexSearchZeroVectors(t *testing.T) {
	idx := NewIndex(IndexMeta{Dimension: 2}, []Chunk{
		{Content: "empty", Embedding: []float32{0, 0}},
		{Content: "real", Embedding: []float32{1, 0}},
	})

	results := idx.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "real", results[0].Chunk.Content)
	assert.Zero(t, results[1].Score)

	for _, r := range idx.Search([]float32{0, 0}, 2) {
		assert.Zero(t, r.Score)
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Search([]float32{1}, 3))
}

func TestIndexWithHashEmbedder(t *testing.T) {
	ctx := context.Background()
	emb := NewHashEmbedder(256)

	texts := []string{
		"High relative humidity makes warm temperatures feel hotter.",
		"Frost forms when the minimum temperature drops below freezing.",
		"Pack sunscreen for clear summer days.",
	}
	vecs, err := emb.Embed(ctx, texts)
	require.NoError(t, err)

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{Source: "doc.md", Position: i, Content: text, Embedding: vecs[i]}
	}
	idx := NewIndex(IndexMeta{EmbeddingModel: emb.Model(), Dimension: 256}, chunks)

	q, err := emb.Embed(ctx, []string{"humidity feels hotter"})
	require.NoError(t, err)

	results := idx.Search(q[0], 1)
	require.Len(t, results, 1)
	assert.Equal(t, texts[0], results[0].Chunk.Content)
}
