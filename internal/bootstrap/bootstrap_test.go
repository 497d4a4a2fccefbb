// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestCreateCollection_FailsIfAlreadyExists(t *testing.T) {
	conn, err := grpc.NewClient("127.0.0.1:6334", grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	collection := "vectoringest_bootstrap_test_" + uuid.NewString()
	ctx := context.Background()

	if err := CreateCollection(ctx, conn, collection); err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	if err := CreateCollection(ctx, conn, collection); !errors.Is(err, ErrCollectionAlreadyExists) {
		t.Fatalf("expected ErrCollectionAlreadyExists on second call, got %v", err)
	}
}
