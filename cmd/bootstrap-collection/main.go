// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Command bootstrap-collection provisions the Qdrant collection the
// ingestion fleet writes into. It is a one-shot operation, run once per
// environment, grounded on create_new_qdrant_collection_query: it exits
// non-zero without changing anything if the collection already exists.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/northbound/vectoringest/internal/bootstrap"
)

var (
	qdrantAddr = flag.String("qdrant-addr", "127.0.0.1:6334", "Qdrant gRPC address")
	collection = flag.String("collection", "vectoringest", "Name of the collection to create")
	timeout    = flag.Duration("timeout", 30*time.Second, "Deadline for the bootstrap call")
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables: %v", err)
	}

	flag.Parse()

	conn, err := grpc.NewClient(*qdrantAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect to Qdrant at %s: %v", *qdrantAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := bootstrap.CreateCollection(ctx, conn, *collection); err != nil {
		if errors.Is(err, bootstrap.ErrCollectionAlreadyExists) {
			log.Fatalf("collection %q already exists, refusing to modify it", *collection)
		}
		log.Fatalf("failed to create collection %q: %v", *collection, err)
	}

	log.Printf("collection %q created", *collection)
}
