// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedding

import (
	"context"
	"testing"

	"github.com/northbound/vectoringest/internal/model"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(384)
	cfg := model.DatasetConfig{EmbeddingSize: 384}

	v1, err := e.Embed(context.Background(), "hello world", "doc", cfg)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	v2, err := e.Embed(context.Background(), "hello world", "doc", cfg)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(v1) != 384 || len(v2) != 384 {
		t.Fatalf("expected dimension 384, got %d and %d", len(v1), len(v2))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected deterministic embedding, differed at index %d: %v != %v", i, v1[i], v2[i])
		}
	}
}

func TestMockEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewMockEmbedder(64)
	cfg := model.DatasetConfig{EmbeddingSize: 64}

	v1, err := e.Embed(context.Background(), "alpha", "doc", cfg)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	v2, err := e.Embed(context.Background(), "beta", "doc", cfg)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different texts to produce different embeddings")
	}
}
