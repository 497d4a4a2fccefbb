// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package worker runs the ingestion fleet: each worker independently drains
// the queue, classifies the batch, runs the bulk pipeline over the bulk set
// and the single-upload pipeline (with per-chunk event recording) over the
// rest, then loops, generalizing the teacher's StartWorkers/workerLoop
// fan-out from a generic job handler to the ingestion core's fixed
// drain-classify-dispatch cycle.
package worker

import (
	"context"
	"log"
	"sync"

	"github.com/northbound/vectoringest/internal/classify"
	"github.com/northbound/vectoringest/internal/ingest"
	"github.com/northbound/vectoringest/internal/metadata"
	"github.com/northbound/vectoringest/internal/model"
	"github.com/northbound/vectoringest/internal/queue"
)

// Fleet bundles the collaborators a worker needs to drain and process a
// batch end to end.
type Fleet struct {
	Queue        *queue.Queue
	Pipeline     *ingest.Pipeline
	Metadata     *metadata.Store
	NumToProcess int64
}

// Run starts workerCount independent workers and blocks until ctx is
// cancelled and they have all returned.
func (f *Fleet) Run(ctx context.Context, workerCount int) {
	log.Printf("worker.Run: workerCount=%d", workerCount)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		go func() {
			defer wg.Done()
			f.loop(ctx, workerID)
		}()
	}
	wg.Wait()

	log.Printf("worker.Run: all workers stopped")
}

func (f *Fleet) loop(ctx context.Context, workerID int) {
	log.Printf("worker.loop: workerID=%d started", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker.loop: workerID=%d context cancelled, stopping", workerID)
			return
		default:
		}

		payloads, err := f.Queue.Drain(ctx, f.NumToProcess)
		if err != nil {
			log.Printf("worker.loop: workerID=%d drain cancelled: %v", workerID, err)
			return
		}
		if len(payloads) == 0 {
			continue
		}

		messages := queue.DecodeAll[model.IngestionMessage](payloads)
		if len(messages) == 0 {
			continue
		}

		single, bulk := classify.Split(messages)

		if len(bulk) > 0 {
			if err := f.Pipeline.BulkUploadChunks(ctx, bulk); err != nil {
				log.Printf("worker.loop: workerID=%d bulk upload failed: %v", workerID, err)
			}
		}

		for _, msg := range single {
			f.processSingle(ctx, workerID, msg)
		}
	}
}

func (f *Fleet) processSingle(ctx context.Context, workerID int, msg model.IngestionMessage) {
	err := f.Pipeline.UploadChunk(ctx, msg)

	var event model.Event
	if err != nil {
		log.Printf("worker.loop: workerID=%d failed to upload chunk %s: %v", workerID, msg.ChunkMetadata.ID, err)
		event = model.NewUploadFailedEvent(msg.ChunkMetadata.DatasetID, msg.ChunkMetadata.ID, err)
	} else {
		log.Printf("worker.loop: workerID=%d uploaded chunk %s", workerID, msg.ChunkMetadata.ID)
		event = model.NewUploadedEvent(msg.ChunkMetadata.DatasetID, msg.ChunkMetadata.ID)
	}

	if recErr := f.Metadata.RecordEvent(ctx, event); recErr != nil {
		log.Printf("worker.loop: workerID=%d failed to record event: %v", workerID, recErr)
	}
}
