package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 80
)

// DefaultSeparators go from coarse to fine: paragraph, line, sentence, word,
// character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into chunks of at most ChunkSize characters (runes),
// preferring the coarsest separator that yields small enough pieces.
// Neighbouring chunks repeat up to ChunkOverlap characters.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

func (s *Splitter) recursive() textsplitter.RecursiveCharacter {
	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.ChunkSize),
		textsplitter.WithChunkOverlap(s.ChunkOverlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
}

// Split returns the trimmed, non-empty chunks of text in document order.
func (s *Splitter) Split(text string) ([]string, error) {
	parts, err := s.recursive().SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks, nil
}

// SplitDocuments chunks every document and tags each chunk with its source
// and position within that source.
func (s *Splitter) SplitDocuments(docs []Document) ([]Chunk, error) {
	var chunks []Chunk
	for _, doc := range docs {
		texts, err := s.Split(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", doc.Path, err)
		}
		for i, text := range texts {
			chunks = append(chunks, Chunk{
				Source:   doc.Path,
				Position: i,
				Content:  text,
			})
		}
	}
	return chunks, nil
}
