package tokenizer

import "testing"

func TestNewTiktokenCounter_DefaultEncoding(t *testing.T) {
	counter, err := NewTiktokenCounter("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter == nil {
		t.Fatal("expected non-nil counter")
	}
}

func TestNewTiktokenCounter_UnknownEncoding(t *testing.T) {
	_, err := NewTiktokenCounter("no-such-encoding")
	if err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestTiktokenCounter_Count(t *testing.T) {
	counter, err := NewTiktokenCounter("cl100k_base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := counter.Count("The quick brown fox jumps over the lazy dog.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count == 0 {
		t.Error("expected non-zero token count")
	}

	// More text means more tokens
	longer, _ := counter.Count("The quick brown fox jumps over the lazy dog. " +
		"The quick brown fox jumps over the lazy dog.")
	if longer <= count {
		t.Errorf("expected longer text to have more tokens: %d vs %d", longer, count)
	}
}

func TestTiktokenCounter_Count_Empty(t *testing.T) {
	counter, err := NewTiktokenCounter("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := counter.Count("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", count)
	}
}

func TestNewTiktokenCounterForModel_FallsBack(t *testing.T) {
	counter, err := NewTiktokenCounterForModel("completely-unknown-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := counter.Count("hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count == 0 {
		t.Error("expected non-zero token count")
	}
}
