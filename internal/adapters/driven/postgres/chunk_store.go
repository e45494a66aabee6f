package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Embeddings are stored in a pgvector column alongside the content.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

const chunkUpsertQuery = `
	INSERT INTO chunks (id, document_id, content, embedding, position, start_char, end_char, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		position = EXCLUDED.position,
		start_char = EXCLUDED.start_char,
		end_char = EXCLUDED.end_char
`

// Save creates or updates a chunk
func (s *ChunkStore) Save(ctx context.Context, chunk *domain.Chunk) error {
	_, err := s.db.ExecContext(ctx, chunkUpsertQuery,
		chunk.ID,
		chunk.DocumentID,
		chunk.Content,
		embeddingValue(chunk.Embedding),
		chunk.Position,
		chunk.StartChar,
		chunk.EndChar,
		chunk.CreatedAt,
	)
	return err
}

// SaveBatch saves multiple chunks in a transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, chunkUpsertQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			_, err := stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.Content,
				embeddingValue(chunk.Embedding),
				chunk.Position,
				chunk.StartChar,
				chunk.EndChar,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a chunk by ID
func (s *ChunkStore) Get(ctx context.Context, id string) (*domain.Chunk, error) {
	query := `
		SELECT id, document_id, content, embedding, position, start_char, end_char, created_at
		FROM chunks
		WHERE id = $1
	`

	chunk, err := scanChunk(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// GetByDocument retrieves all chunks for a document, ordered by position
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, content, embedding, position, start_char, end_char, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// Delete deletes a chunk
func (s *ChunkStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

// embeddingValue converts a float32 slice to a nullable pgvector value
func embeddingValue(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embedding sql.Null[pgvector.Vector]

	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.Content,
		&embedding,
		&chunk.Position,
		&chunk.StartChar,
		&chunk.EndChar,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if embedding.Valid {
		chunk.Embedding = embedding.V.Slice()
	}
	return &chunk, nil
}
