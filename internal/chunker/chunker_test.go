// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package chunker

import (
	"strings"
	"testing"
)

func TestCoarseChunker_ShortText(t *testing.T) {
	c := NewCoarseChunker()
	text := "This is a short text that should not be split."

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk content mismatch. expected: %q, got: %q", text, chunks[0])
	}
}

func TestCoarseChunker_LongText(t *testing.T) {
	c := NewCoarseChunker()
	paragraph := "This is a sample paragraph. It contains multiple sentences. Each sentence ends with a period. "
	text := strings.Repeat(paragraph, 60) // ~5700 characters

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected at least 2 chunks for long text, got %d", len(chunks))
	}
}

func TestCoarseChunker_EmptyText(t *testing.T) {
	c := NewCoarseChunker()
	chunks, err := c.Split("")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestAverage(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{3, 4, 5},
	}
	avg, err := Average(vectors)
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	want := []float32{2, 3, 4}
	for i := range want {
		if avg[i] != want[i] {
			t.Errorf("Average[%d] = %v, want %v", i, avg[i], want[i])
		}
	}
}

func TestAverage_EmptyInput(t *testing.T) {
	if _, err := Average(nil); err == nil {
		t.Fatal("expected error averaging zero vectors")
	}
}

func TestAverage_DimensionMismatch(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{1, 2},
	}
	if _, err := Average(vectors); err == nil {
		t.Fatal("expected error averaging mismatched-dimension vectors")
	}
}
