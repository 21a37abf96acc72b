package knowledge

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

var ErrIndexNotFound = errors.New("knowledge index not found")

// Store persists a knowledge index in a single SQLite file.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure index database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveIndex replaces the stored index with chunks in one transaction.
func (s *Store) SaveIndex(ctx context.Context, meta IndexMeta, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, embedding_model, dimension, chunk_size, chunk_overlap, built_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding_model = excluded.embedding_model,
			dimension = excluded.dimension,
			chunk_size = excluded.chunk_size,
			chunk_overlap = excluded.chunk_overlap,
			built_at = excluded.built_at
	`, meta.EmbeddingModel, meta.Dimension, meta.ChunkSize, meta.ChunkOverlap, meta.BuiltAt.UTC()); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (source, position, content, embedding)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Source, c.Position, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s#%d: %w", c.Source, c.Position, err)
		}
	}

	return tx.Commit()
}

// LoadIndex reads the stored index. It returns ErrIndexNotFound when the file
// holds no index metadata.
func (s *Store) LoadIndex(ctx context.Context) (*Index, error) {
	var meta IndexMeta
	var builtAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT embedding_model, dimension, chunk_size, chunk_overlap, built_at
		FROM index_meta WHERE id = 1
	`).Scan(&meta.EmbeddingModel, &meta.Dimension, &meta.ChunkSize, &meta.ChunkOverlap, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	if builtAt.Valid {
		meta.BuiltAt = builtAt.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, position, content, embedding
		FROM chunks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.Source, &c.Position, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s#%d: %w", c.Source, c.Position, err)
		}
		if len(c.Embedding) != meta.Dimension {
			return nil, fmt.Errorf("chunk %s#%d has dimension %d, index declares %d",
				c.Source, c.Position, len(c.Embedding), meta.Dimension)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewIndex(meta, chunks), nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
