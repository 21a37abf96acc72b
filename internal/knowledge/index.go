package knowledge

import (
	"math"
	"sort"
	"time"
)

// Chunk is a slice of a source document together with its embedding.
type Chunk struct {
	Source    string
	Position  int
	Content   string
	Embedding []float32
}

type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IndexMeta describes how an index was built. An index is only reused when
// the embedding model matches.
type IndexMeta struct {
	EmbeddingModel string
	Dimension      int
	ChunkSize      int
	ChunkOverlap   int
	BuiltAt        time.Time
}

// Index is an immutable in-memory vector index. It is safe for concurrent
// reads.
type Index struct {
	meta   IndexMeta
	chunks []Chunk
	norms  []float64
}

func NewIndex(meta IndexMeta, chunks []Chunk) *Index {
	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		norms[i] = norm(c.Embedding)
	}
	return &Index{meta: meta, chunks: chunks, norms: norms}
}

func (idx *Index) Meta() IndexMeta {
	return idx.meta
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// Search returns the k chunks most similar to query by cosine similarity,
// best first. Ties keep document order.
func (idx *Index) Search(query []float32, k int) []SearchResult {
	if idx == nil || k <= 0 || len(idx.chunks) == 0 {
		return nil
	}

	qn := norm(query)
	results := make([]SearchResult, 0, len(idx.chunks))
	for i, c := range idx.chunks {
		results = append(results, SearchResult{
			Chunk: c,
			Score: cosine(query, qn, c.Embedding, idx.norms[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
