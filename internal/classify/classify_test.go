// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package classify

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/northbound/vectoringest/internal/model"
)

func datasetConfigJSON(t *testing.T, collisionsEnabled bool, threshold float64) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(model.DatasetConfig{
		CollisionsEnabled:          collisionsEnabled,
		DuplicateDistanceThreshold: threshold,
	})
	if err != nil {
		t.Fatalf("marshal dataset config: %v", err)
	}
	return raw
}

func boolPtr(b bool) *bool { return &b }

func TestIsSingleUpload_DedupActive(t *testing.T) {
	msg := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		DatasetConfig: datasetConfigJSON(t, true, 0.95),
	}
	if !IsSingleUpload(msg) {
		t.Fatal("expected dedup-active message to be single-upload")
	}
}

func TestIsSingleUpload_SplitAvg(t *testing.T) {
	msg := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		Chunk:         model.ChunkOptions{SplitAvg: boolPtr(true)},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}
	if !IsSingleUpload(msg) {
		t.Fatal("expected split_avg message to be single-upload")
	}
}

func TestIsSingleUpload_GroupIDs(t *testing.T) {
	msg := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		Chunk:         model.ChunkOptions{GroupIDs: []uuid.UUID{uuid.New()}},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}
	if !IsSingleUpload(msg) {
		t.Fatal("expected message with group_ids to be single-upload")
	}
}

func TestIsSingleUpload_UpsertByTrackingID(t *testing.T) {
	msg := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		Chunk:         model.ChunkOptions{UpsertByTrackingID: boolPtr(true)},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}
	if !IsSingleUpload(msg) {
		t.Fatal("expected upsert_by_tracking_id message to be single-upload")
	}
}

func TestIsSingleUpload_PlainBulkMessage(t *testing.T) {
	msg := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}
	if IsSingleUpload(msg) {
		t.Fatal("expected plain message with no dedup/group/upsert to be bulk")
	}
}

func TestSplit_IsDisjoint(t *testing.T) {
	single := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		Chunk:         model.ChunkOptions{UpsertByTrackingID: boolPtr(true)},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}
	bulk := model.IngestionMessage{
		ChunkMetadata: model.ChunkMetadata{ID: uuid.New()},
		DatasetConfig: datasetConfigJSON(t, false, 1.0),
	}

	gotSingle, gotBulk := Split([]model.IngestionMessage{single, bulk})

	if len(gotSingle) != 1 || gotSingle[0].ChunkMetadata.ID != single.ChunkMetadata.ID {
		t.Fatalf("expected exactly the single-upload message in single set, got %+v", gotSingle)
	}
	if len(gotBulk) != 1 || gotBulk[0].ChunkMetadata.ID != bulk.ChunkMetadata.ID {
		t.Fatalf("expected exactly the bulk message in bulk set, got %+v", gotBulk)
	}
}
