package memory

import (
	"context"
	"testing"

	"github.com/helix-labs/quarry-core/internal/core/domain"
)

func chunk(id, docID string, embedding []float32) *domain.Chunk {
	return &domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Content:    "content of " + id,
		Embedding:  embedding,
	}
}

func TestVectorIndex_InsertAndCount(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	err := idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "doc1", []float32{1, 0, 0}),
		chunk("c2", "doc1", []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunks, got %d", count)
	}
}

func TestVectorIndex_InsertSkipsEmptyEmbedding(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	err := idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "doc1", []float32{1, 0}),
		chunk("c2", "doc1", nil),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk, got %d", count)
	}
}

func TestVectorIndex_InsertIsUpsert(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{chunk("c1", "doc1", []float32{1, 0})})
	idx.Insert(ctx, []*domain.Chunk{chunk("c1", "doc1", []float32{0, 1})})

	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk after upsert, got %d", count)
	}

	results, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Score < 0.99 {
		t.Errorf("expected re-inserted embedding to match query, got %+v", results)
	}
}

func TestVectorIndex_SearchOrdering(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{
		chunk("exact", "doc1", []float32{1, 0, 0}),
		chunk("close", "doc1", []float32{0.9, 0.1, 0}),
		chunk("orthogonal", "doc2", []float32{0, 0, 1}),
	})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "exact" {
		t.Errorf("expected exact match first, got %s", results[0].Chunk.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order at %d", i)
		}
	}
}

func TestVectorIndex_SearchLimitsToK(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "doc1", []float32{1, 0}),
		chunk("c2", "doc1", []float32{0.5, 0.5}),
		chunk("c3", "doc1", []float32{0, 1}),
	})

	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestVectorIndex_SearchFewerThanK(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{chunk("c1", "doc1", []float32{1, 0})})

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestVectorIndex_Delete(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "doc1", []float32{1, 0}),
		chunk("c2", "doc1", []float32{0, 1}),
	})

	if err := idx.Delete(ctx, []string{"c1", "missing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk after delete, got %d", count)
	}
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	idx.Insert(ctx, []*domain.Chunk{
		chunk("c1", "doc1", []float32{1, 0}),
		chunk("c2", "doc1", []float32{0, 1}),
		chunk("c3", "doc2", []float32{1, 1}),
	})

	if err := idx.DeleteByDocument(ctx, "doc1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk after delete, got %d", count)
	}

	results, _ := idx.Search(ctx, []float32{1, 1}, 10)
	if len(results) != 1 || results[0].Chunk.ID != "c3" {
		t.Errorf("expected only doc2 chunk to remain, got %+v", results)
	}
}

func TestVectorIndex_HealthCheck(t *testing.T) {
	idx := NewVectorIndex()
	if err := idx.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
