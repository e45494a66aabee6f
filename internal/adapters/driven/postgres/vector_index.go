package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on the chunks table using
// pgvector. Search ranks by cosine distance; score is 1 - distance so
// higher means more similar.
type VectorIndex struct {
	db *DB
}

// NewVectorIndex creates a new VectorIndex
func NewVectorIndex(db *DB) *VectorIndex {
	return &VectorIndex{db: db}
}

// Insert adds chunks with their embeddings to the index.
// The chunks table doubles as the index, so this is an upsert.
func (v *VectorIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return v.db.Transaction(ctx, func(tx *sql.Tx) error {
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

// Search returns the k nearest chunks by cosine similarity
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, k int) ([]*domain.RetrievedChunk, error) {
	query := `
		SELECT
			c.id, c.document_id, c.content, c.position, c.start_char, c.end_char, c.created_at,
			1 - (c.embedding <=> $1) AS score,
			d.id, d.title, d.source, d.mime_type, d.created_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $1
		LIMIT $2
	`

	rows, err := v.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []*domain.RetrievedChunk
	for rows.Next() {
		var chunk domain.Chunk
		var doc domain.Document
		var score float64

		err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Position,
			&chunk.StartChar, &chunk.EndChar, &chunk.CreatedAt,
			&score,
			&doc.ID, &doc.Title, &doc.Source, &doc.MimeType, &doc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		results = append(results, &domain.RetrievedChunk{
			Chunk:    &chunk,
			Document: &doc,
			Score:    score,
		})
	}
	return results, rows.Err()
}

// Delete removes chunks from the index by ID
func (v *VectorIndex) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := v.db.ExecContext(ctx, `DELETE FROM chunks WHERE id = ANY($1)`, pq.Array(chunkIDs))
	return err
}

// DeleteByDocument removes all of a document's chunks from the index
func (v *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := v.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

// Count returns the number of indexed chunks
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL`).Scan(&count)
	return count, err
}

// HealthCheck verifies the database and the vector extension are usable
func (v *VectorIndex) HealthCheck(ctx context.Context) error {
	if err := v.db.Ping(ctx); err != nil {
		return err
	}

	var installed bool
	query := `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`
	if err := v.db.QueryRowContext(ctx, query).Scan(&installed); err != nil {
		return err
	}
	if !installed {
		return fmt.Errorf("pgvector extension not installed")
	}
	return nil
}
