// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package classify splits a drained batch of ingestion messages into the
// single-upload set (anything requiring dedup, group bookmarking, averaged
// embedding, or tracking-id upsert semantics) and the bulk set (everything
// else), mirroring the filter/retain pass at the top of the original
// ingestion loop.
package classify

import "github.com/northbound/vectoringest/internal/model"

// Split partitions messages into (single, bulk), disjoint by construction:
// bulk is every message whose chunk_metadata.id does not appear in single.
func Split(messages []model.IngestionMessage) (single, bulk []model.IngestionMessage) {
	single = make([]model.IngestionMessage, 0, len(messages))
	for _, msg := range messages {
		if IsSingleUpload(msg) {
			single = append(single, msg)
		}
	}

	singleIDs := make(map[string]struct{}, len(single))
	for _, msg := range single {
		singleIDs[msg.ChunkMetadata.ID.String()] = struct{}{}
	}

	bulk = make([]model.IngestionMessage, 0, len(messages))
	for _, msg := range messages {
		if _, isSingle := singleIDs[msg.ChunkMetadata.ID.String()]; !isSingle {
			bulk = append(bulk, msg)
		}
	}
	return single, bulk
}

// IsSingleUpload reports whether msg must go through the per-message
// single-upload pipeline rather than the bulk pipeline: dedup is active for
// its dataset, it requests split-and-average embedding, it names one or more
// groups to bookmark into, or it requests tracking-id upsert semantics.
func IsSingleUpload(msg model.IngestionMessage) bool {
	cfg, err := msg.ParseDatasetConfig()
	if err == nil && cfg.DedupEnabled() {
		return true
	}
	if msg.WantsSplitAvg() {
		return true
	}
	if msg.HasGroupIDs() {
		return true
	}
	if msg.WantsUpsertByTrackingID() {
		return true
	}
	return false
}
