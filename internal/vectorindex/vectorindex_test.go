// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectorindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/northbound/vectoringest/internal/bootstrap"
	"github.com/northbound/vectoringest/internal/model"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	conn, err := grpc.NewClient("127.0.0.1:6334", grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	collection := "vectoringest_test_" + uuid.NewString()
	ctx := context.Background()
	if err := bootstrap.CreateCollection(ctx, conn, collection); err != nil {
		t.Skipf("Qdrant bootstrap not available: %v", err)
	}

	idx, err := New(conn, collection)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return idx, collection
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	datasetID := uuid.New()
	cfg := model.DatasetConfig{EmbeddingSize: 384}
	vector := make([]float32, 384)
	vector[0] = 1

	point := model.QdrantPoint{ID: uuid.New(), Dense: vector, DatasetID: datasetID}
	if err := idx.UpsertPoint(ctx, point, cfg); err != nil {
		t.Fatalf("UpsertPoint failed: %v", err)
	}

	match, err := idx.Search(ctx, vector, datasetID, cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !match.Found {
		t.Fatal("expected a match after upserting a point in the same dataset")
	}
	if match.PointID != point.ID {
		t.Fatalf("expected match id %s, got %s", point.ID, match.PointID)
	}
}

func TestIndex_Search_EmptyDatasetReturnsZeroSentinel(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	cfg := model.DatasetConfig{EmbeddingSize: 384}
	vector := make([]float32, 384)
	vector[0] = 1

	match, err := idx.Search(ctx, vector, uuid.New(), cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if match.Found {
		t.Fatal("expected no match in an empty dataset")
	}
}

func TestIndex_UpdatePoint_NilNilIsNoOp(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if err := idx.UpdatePoint(ctx, uuid.New(), nil, nil, model.DatasetConfig{}); err != nil {
		t.Fatalf("expected nil,nil UpdatePoint to be a no-op, got error: %v", err)
	}
}
