// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package ingest implements the two persistence pipelines the worker fleet
// dispatches a drained batch into: the per-message single-upload pipeline
// (dedup, collision handling, group bookmarking) and the concurrent bulk
// pipeline, grounded 1:1 on upload_chunk and bulk_upload_chunks.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/northbound/vectoringest/internal/chunker"
	"github.com/northbound/vectoringest/internal/embedding"
	"github.com/northbound/vectoringest/internal/ingesterr"
	"github.com/northbound/vectoringest/internal/metadata"
	"github.com/northbound/vectoringest/internal/model"
	"github.com/northbound/vectoringest/internal/vectorindex"
)

// Pipeline bundles the collaborators both ingestion pipelines need.
type Pipeline struct {
	Embedder embedding.Embedder
	Index    *vectorindex.Index
	Metadata *metadata.Store
}

// New constructs a Pipeline.
func New(embedder embedding.Embedder, index *vectorindex.Index, store *metadata.Store) *Pipeline {
	return &Pipeline{Embedder: embedder, Index: index, Metadata: store}
}

// resolveVector produces the dense embedding for a message: the vector
// carried on the message verbatim, a split-and-average embedding of its
// coarse-chunked content, or a single whole-content embedding — in that
// order of preference, matching the branches in upload_chunk.
func (p *Pipeline) resolveVector(ctx context.Context, msg model.IngestionMessage, cfg model.DatasetConfig) ([]float32, error) {
	if len(msg.Chunk.ChunkVector) > 0 {
		return msg.Chunk.ChunkVector, nil
	}

	if msg.WantsSplitAvg() {
		pieces, err := chunker.NewCoarseChunker().Split(msg.ChunkMetadata.Content)
		if err != nil {
			return nil, ingesterr.New(ingesterr.PermanentClient, "ingest.resolveVector", err)
		}
		if len(pieces) == 0 {
			pieces = []string{msg.ChunkMetadata.Content}
		}

		vectors := make([][]float32, 0, len(pieces))
		for _, piece := range pieces {
			vec, err := p.Embedder.Embed(ctx, piece, "doc", cfg)
			if err != nil {
				return nil, fmt.Errorf("ingest: embed chunk piece: %w", err)
			}
			vectors = append(vectors, vec)
		}

		avg, err := chunker.Average(vectors)
		if err != nil {
			return nil, ingesterr.New(ingesterr.Integrity, "ingest.resolveVector", err)
		}
		return avg, nil
	}

	vec, err := p.Embedder.Embed(ctx, msg.ChunkMetadata.Content, "doc", cfg)
	if err != nil {
		return nil, fmt.Errorf("ingest: embed content: %w", err)
	}
	return vec, nil
}

// UploadChunk runs the single-upload pipeline for one message: resolve its
// embedding, probe for a near-duplicate when dedup is active for the
// dataset, persist either a collision record or a brand-new chunk, and
// bookmark it into every requested group.
func (p *Pipeline) UploadChunk(ctx context.Context, msg model.IngestionMessage) error {
	cfg, err := msg.ParseDatasetConfig()
	if err != nil {
		return ingesterr.New(ingesterr.PermanentClient, "ingest.UploadChunk", err)
	}

	qdrantPointID := uuid.New()
	if msg.ChunkMetadata.QdrantPointID != nil {
		qdrantPointID = *msg.ChunkMetadata.QdrantPointID
	}

	vector, err := p.resolveVector(ctx, msg, cfg)
	if err != nil {
		return err
	}

	var collision *uuid.UUID
	if cfg.DedupEnabled() {
		match, err := p.Index.Search(ctx, vector, msg.ChunkMetadata.DatasetID, cfg)
		if err != nil {
			return fmt.Errorf("ingest: top match search: %w", err)
		}
		if match.Found && float64(match.Score) >= cfg.DuplicateDistanceThreshold {
			collision = &match.PointID
		}
	}

	newChunkID := msg.ChunkMetadata.ID

	if collision != nil {
		// No vector and no payload update, matching
		// update_qdrant_point_query(None, id, None, ...): with nil, nil
		// UpdatePoint makes no request to the index.
		if err := p.Index.UpdatePoint(ctx, *collision, nil, nil, cfg); err != nil {
			return fmt.Errorf("ingest: update collided point: %w", err)
		}
		if err := p.Metadata.InsertDuplicate(ctx, msg.ChunkMetadata, *collision, msg.Chunk.FileID); err != nil {
			return fmt.Errorf("ingest: insert duplicate: %w", err)
		}
		qdrantPointID = *collision
	} else {
		msg.ChunkMetadata.QdrantPointID = &qdrantPointID
		inserted, err := p.Metadata.InsertChunk(ctx, msg.ChunkMetadata, msg.Chunk.FileID, msg.WantsUpsertByTrackingID())
		if err != nil {
			return fmt.Errorf("ingest: insert chunk metadata: %w", err)
		}
		if inserted.QdrantPointID != nil {
			qdrantPointID = *inserted.QdrantPointID
		}
		newChunkID = inserted.ID

		point := model.QdrantPoint{
			ID:        qdrantPointID,
			Dense:     vector,
			Metadata:  inserted,
			DatasetID: msg.ChunkMetadata.DatasetID,
		}
		if err := p.Index.UpsertPoint(ctx, point, cfg); err != nil {
			return fmt.Errorf("ingest: create qdrant point: %w", err)
		}
	}

	for _, groupID := range msg.Chunk.GroupIDs {
		bookmark := model.NewChunkGroupBookmark(groupID, newChunkID)
		created, err := p.Metadata.CreateGroupBookmark(ctx, bookmark)
		if err != nil {
			// A failed bookmark insert is logged and skipped; it does not
			// abort the remaining groups.
			log.Printf("ingest: create group bookmark %s for chunk %s failed: %v", groupID, newChunkID, err)
			continue
		}
		if !created {
			continue
		}
		if err := p.Index.AddBookmark(ctx, qdrantPointID, groupID); err != nil {
			return fmt.Errorf("ingest: add qdrant bookmark: %w", err)
		}
	}

	return nil
}
