// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ingest

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/northbound/vectoringest/internal/model"
	"github.com/northbound/vectoringest/internal/vectorindex"
)

// BulkUploadChunks runs the bulk pipeline over messages: drop anything whose
// tracking_id already exists in its dataset, embed the rest concurrently,
// then persist the relational metadata and the vector points concurrently
// with each other. The two persistence phases are deliberately not
// transactional with one another, matching the original's
// futures::future::join over insert_bulk_chunk_metadatas_query and
// bulk_create_qdrant_points_query: a chunk's metadata can land without its
// vector point, or vice versa, if one phase fails and the other doesn't.
func (p *Pipeline) BulkUploadChunks(ctx context.Context, messages []model.IngestionMessage) error {
	messages = p.dropTrackingConflicts(ctx, messages)
	if len(messages) == 0 {
		return nil
	}

	type embedResult struct {
		vector []float32
		err    error
	}
	results := make([]embedResult, len(messages))

	var wg sync.WaitGroup
	wg.Add(len(messages))
	for i, msg := range messages {
		go func(i int, msg model.IngestionMessage) {
			defer wg.Done()
			cfg, err := msg.ParseDatasetConfig()
			if err != nil {
				results[i] = embedResult{err: err}
				return
			}
			vec, err := p.Embedder.Embed(ctx, msg.ChunkMetadata.Content, "doc", cfg)
			results[i] = embedResult{vector: vec, err: err}
		}(i, msg)
	}
	wg.Wait()

	var chunkMetadatas []model.ChunkMetadata
	var items []vectorindex.BulkItem
	for i, msg := range messages {
		if results[i].err != nil {
			log.Printf("ingest: bulk embed failed for chunk %s: %v", msg.ChunkMetadata.ID, results[i].err)
			continue
		}

		cfg, err := msg.ParseDatasetConfig()
		if err != nil {
			continue
		}

		qdrantPointID := uuid.New()
		if msg.ChunkMetadata.QdrantPointID != nil {
			qdrantPointID = *msg.ChunkMetadata.QdrantPointID
		}

		meta := msg.ChunkMetadata
		meta.QdrantPointID = &qdrantPointID
		chunkMetadatas = append(chunkMetadatas, meta)

		items = append(items, vectorindex.BulkItem{
			Point: model.QdrantPoint{
				ID:        qdrantPointID,
				Dense:     results[i].vector,
				Metadata:  meta,
				DatasetID: msg.ChunkMetadata.DatasetID,
			},
			Config: cfg,
		})
	}

	var metaErr error
	var bulkResults []vectorindex.BulkResult

	var persist sync.WaitGroup
	persist.Add(2)
	go func() {
		defer persist.Done()
		metaErr = p.Metadata.InsertBulk(ctx, chunkMetadatas)
	}()
	go func() {
		defer persist.Done()
		bulkResults = p.Index.BulkUpsert(ctx, items)
	}()
	persist.Wait()

	if metaErr != nil {
		log.Printf("ingest: bulk metadata insert failed: %v", metaErr)
	}
	for _, r := range bulkResults {
		if r.Err != nil {
			log.Printf("ingest: bulk qdrant upsert failed for point %s: %v", r.ID, r.Err)
		}
	}

	log.Printf("ingest: bulk uploaded %d chunks", len(items))
	return nil
}

// dropTrackingConflicts removes any message whose (dataset_id, tracking_id)
// already has a row in chunk_metadata, matching the original's silent
// retain-filter over get_chunks_by_tracking_id_query results: no event is
// emitted for a dropped message.
func (p *Pipeline) dropTrackingConflicts(ctx context.Context, messages []model.IngestionMessage) []model.IngestionMessage {
	trackingByDataset := map[uuid.UUID][]string{}
	for _, msg := range messages {
		if msg.ChunkMetadata.TrackingID != nil {
			trackingByDataset[msg.DatasetID] = append(trackingByDataset[msg.DatasetID], *msg.ChunkMetadata.TrackingID)
		}
	}
	if len(trackingByDataset) == 0 {
		return messages
	}

	existing := map[string]struct{}{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(len(trackingByDataset))
	for datasetID, trackingIDs := range trackingByDataset {
		go func(datasetID uuid.UUID, trackingIDs []string) {
			defer wg.Done()
			rows, err := p.Metadata.GetByTrackingIDs(ctx, datasetID, trackingIDs)
			if err != nil {
				log.Printf("ingest: get by tracking ids failed for dataset %s: %v", datasetID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, row := range rows {
				if row.TrackingID != nil {
					existing[datasetID.String()+"|"+*row.TrackingID] = struct{}{}
				}
			}
		}(datasetID, trackingIDs)
	}
	wg.Wait()

	if len(existing) == 0 {
		return messages
	}

	filtered := make([]model.IngestionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.ChunkMetadata.TrackingID != nil {
			key := msg.DatasetID.String() + "|" + *msg.ChunkMetadata.TrackingID
			if _, conflict := existing[key]; conflict {
				continue
			}
		}
		filtered = append(filtered, msg)
	}
	return filtered
}
