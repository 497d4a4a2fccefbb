// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/northbound/vectoringest/internal/model"
)

// MockEmbedder produces deterministic embeddings from a text hash, for
// tests that exercise the ingestion pipelines without a live embedding
// service.
type MockEmbedder struct {
	Dim int
}

// NewMockEmbedder constructs a MockEmbedder of the given dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// Embed implements Embedder.
func (e *MockEmbedder) Embed(_ context.Context, text string, _ string, cfg model.DatasetConfig) ([]float32, error) {
	dim := e.Dim
	if cfg.EmbeddingSize > 0 {
		dim = cfg.EmbeddingSize
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		vec[i] = float32(math.Sin(float64(seed*uint32(i+1)) * 0.1))
	}

	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	norm := float32(math.Sqrt(float64(sum)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
