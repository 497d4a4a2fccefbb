// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/northbound/vectoringest/internal/config"
	"github.com/northbound/vectoringest/internal/embedding"
	"github.com/northbound/vectoringest/internal/ingest"
	"github.com/northbound/vectoringest/internal/logger"
	"github.com/northbound/vectoringest/internal/metadata"
	"github.com/northbound/vectoringest/internal/queue"
	"github.com/northbound/vectoringest/internal/vectorindex"
	"github.com/northbound/vectoringest/internal/worker"
)

var embedTimeout = flag.Duration("embed-timeout", 30*time.Second, "HTTP timeout for embedding service calls")

func main() {
	logFile := "ingestor.log"
	if _, err := logger.Init(logFile); err != nil {
		logger.Printf("Failed to initialize logger: %v, using stdout only", err)
	} else {
		logger.Printf("Logger initialized, writing to %s", logFile)
	}

	if err := godotenv.Load(); err != nil {
		logger.Printf("No .env file found, using environment variables: %v", err)
	} else {
		logger.Printf("Loaded .env file")
	}

	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metadataStore, err := metadata.NewStore(ctx, cfg.DatabaseURL, cfg.ThreadNum)
	if err != nil {
		logger.Fatalf("failed to connect to metadata store: %v", err)
	}
	defer metadataStore.Close()

	redisClient, err := config.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	qdrantConn, err := grpc.NewClient(cfg.QdrantAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer qdrantConn.Close()

	index, err := vectorindex.New(qdrantConn, cfg.Collection)
	if err != nil {
		logger.Fatalf("failed to initialize vector index client: %v", err)
	}

	embedder := embedding.NewHTTPEmbedder(*embedTimeout)
	pipeline := ingest.New(embedder, index, metadataStore)

	q := queue.New(redisClient, cfg.QueueKey)
	fleet := &worker.Fleet{
		Queue:        q,
		Pipeline:     pipeline,
		Metadata:     metadataStore,
		NumToProcess: cfg.NumToProcess,
	}

	logger.Printf("Starting ingestion fleet: threads=%d queueKey=%s collection=%s", cfg.ThreadNum, cfg.QueueKey, cfg.Collection)
	fleet.Run(ctx, cfg.ThreadNum)
	logger.Println("Ingestion fleet stopped")

	if err := logger.GetDefault().Close(); err != nil {
		logger.Printf("failed to close logger: %v", err)
	}
}
