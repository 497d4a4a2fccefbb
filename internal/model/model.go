// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package model holds the data shapes shared by every ingestion-core
// component: the queue payload, the chunk's relational metadata, and the
// point stored in the vector index.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChunkOptions carries the per-message upload knobs that ride alongside
// ChunkMetadata on the queue. Most fields are optional and zero-valued when
// absent from the JSON payload.
type ChunkOptions struct {
	// ChunkVector, when present, skips embedding entirely: the caller already
	// computed the dense vector.
	ChunkVector []float32 `json:"chunk_vector,omitempty"`
	// SplitAvg requests coarse-splitting the content into several chunks,
	// embedding each, and averaging the resulting vectors into one.
	SplitAvg *bool `json:"split_avg,omitempty"`
	// GroupIDs bookmark the resulting chunk into each named group.
	GroupIDs []uuid.UUID `json:"group_ids,omitempty"`
	// UpsertByTrackingID requests ON CONFLICT(dataset_id, tracking_id) semantics at
	// insert time instead of always inserting a new row.
	UpsertByTrackingID *bool `json:"upsert_by_tracking_id,omitempty"`
	// FileID associates the chunk with a source file, if any.
	FileID *uuid.UUID `json:"file_id,omitempty"`
}

func (o ChunkOptions) wantsSplitAvg() bool {
	return o.SplitAvg != nil && *o.SplitAvg
}

func (o ChunkOptions) wantsUpsertByTrackingID() bool {
	return o.UpsertByTrackingID != nil && *o.UpsertByTrackingID
}

func (o ChunkOptions) hasGroupIDs() bool {
	return len(o.GroupIDs) > 0
}

// ChunkMetadata is the relational record for one ingested chunk.
type ChunkMetadata struct {
	ID            uuid.UUID  `json:"id"`
	QdrantPointID *uuid.UUID `json:"qdrant_point_id,omitempty"`
	Content       string     `json:"content"`
	ChunkHTML     *string    `json:"chunk_html,omitempty"`
	Link          *string    `json:"link,omitempty"`
	TagSet        []string   `json:"tag_set,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	TrackingID    *string    `json:"tracking_id,omitempty"`
	TimeStamp     *time.Time `json:"time_stamp,omitempty"`
	DatasetID     uuid.UUID  `json:"dataset_id"`
	WeightedRank  *float64   `json:"weight,omitempty"`
}

// DatasetConfig is the per-dataset JSON blob embedded in every
// IngestionMessage, mirroring the upstream dataset server configuration.
type DatasetConfig struct {
	CollisionsEnabled         bool    `json:"COLLISIONS_ENABLED"`
	DuplicateDistanceThreshold float64 `json:"DUPLICATE_DISTANCE_THRESHOLD"`
	EmbeddingSize             int     `json:"EMBEDDING_SIZE"`
	EmbeddingBaseURL          string  `json:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey           string  `json:"EMBEDDING_API_KEY,omitempty"`
	EmbeddingModelName        string  `json:"EMBEDDING_MODEL_NAME,omitempty"`
	QdrantURL                 string  `json:"QDRANT_URL"`
	QdrantAPIKey              string  `json:"QDRANT_API_KEY,omitempty"`
	QdrantCollection          string  `json:"QDRANT_COLLECTION"`
}

// DedupEnabled reports whether this message should run the dedup probe at
// all, per the collision check in upload_chunk: duplicate_distance_threshold
// < 1.0 || COLLISIONS_ENABLED.
func (c DatasetConfig) DedupEnabled() bool {
	return c.DuplicateDistanceThreshold < 1.0 || c.CollisionsEnabled
}

// VectorName returns the named Qdrant vector space for this dataset's
// embedding dimension (see internal/bootstrap).
func (c DatasetConfig) VectorName() string {
	switch c.EmbeddingSize {
	case 384:
		return "384_vectors"
	case 768:
		return "768_vectors"
	case 1024:
		return "1024_vectors"
	default:
		return "1536_vectors"
	}
}

// IngestionMessage is the exact shape placed on the "ingestion" Redis list.
type IngestionMessage struct {
	ChunkMetadata      ChunkMetadata   `json:"chunk_metadata"`
	Chunk              ChunkOptions    `json:"chunk"`
	DatasetID          uuid.UUID       `json:"dataset_id"`
	DatasetConfig      json.RawMessage `json:"dataset_config"`
	UpsertByTrackingID bool            `json:"upsert_by_tracking_id"`
}

// ParseDatasetConfig decodes the message's embedded dataset configuration.
func (m IngestionMessage) ParseDatasetConfig() (DatasetConfig, error) {
	var cfg DatasetConfig
	if len(m.DatasetConfig) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(m.DatasetConfig, &cfg); err != nil {
		return DatasetConfig{}, err
	}
	return cfg, nil
}

// WantsSplitAvg reports whether the content should be coarse-split,
// embedded per-piece, and averaged rather than embedded whole.
func (m IngestionMessage) WantsSplitAvg() bool { return m.Chunk.wantsSplitAvg() }

// WantsUpsertByTrackingID reports the insert-conflict strategy requested
// either on the message envelope or the chunk options (both are honored,
// matching payload.upsert_by_tracking_id in the original).
func (m IngestionMessage) WantsUpsertByTrackingID() bool {
	return m.UpsertByTrackingID || m.Chunk.wantsUpsertByTrackingID()
}

// HasGroupIDs reports whether the chunk should be bookmarked into one or
// more groups after persistence.
func (m IngestionMessage) HasGroupIDs() bool { return m.Chunk.hasGroupIDs() }

// QdrantPoint is the payload persisted into the vector index for one chunk.
type QdrantPoint struct {
	ID       uuid.UUID
	Dense    []float32
	Sparse   map[uint32]float32
	Metadata ChunkMetadata
	DatasetID uuid.UUID
	GroupIDs []uuid.UUID
}

// EventKind enumerates the audit-log event types recorded alongside
// metadata writes.
type EventKind string

const (
	EventChunkUploaded     EventKind = "card_uploaded"
	EventChunkUploadFailed EventKind = "card_upload_failed"
)

// Event is one row in the audit/events table.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DatasetID uuid.UUID       `json:"dataset_id"`
	Kind      EventKind       `json:"event_type"`
	ChunkID   *uuid.UUID      `json:"chunk_id,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewUploadedEvent builds a CardUploaded event for chunkID in dataset.
func NewUploadedEvent(dataset uuid.UUID, chunkID uuid.UUID) Event {
	return Event{
		ID:        uuid.New(),
		DatasetID: dataset,
		Kind:      EventChunkUploaded,
		ChunkID:   &chunkID,
		CreatedAt: time.Now(),
	}
}

// NewUploadFailedEvent builds a CardUploadFailed event carrying the error
// text, matching the original's format!("Failed to upload chunk: {:?}", err).
func NewUploadFailedEvent(dataset uuid.UUID, chunkID uuid.UUID, cause error) Event {
	msg := "Failed to upload chunk: " + cause.Error()
	return Event{
		ID:        uuid.New(),
		DatasetID: dataset,
		Kind:      EventChunkUploadFailed,
		ChunkID:   &chunkID,
		Error:     &msg,
		CreatedAt: time.Now(),
	}
}

// ChunkGroupBookmark associates a chunk with a group it has been bookmarked
// into.
type ChunkGroupBookmark struct {
	ID      uuid.UUID `json:"id"`
	GroupID uuid.UUID `json:"group_id"`
	ChunkID uuid.UUID `json:"chunk_id"`
}

// NewChunkGroupBookmark mirrors ChunkGroupBookmark::from_details.
func NewChunkGroupBookmark(groupID, chunkID uuid.UUID) ChunkGroupBookmark {
	return ChunkGroupBookmark{ID: uuid.New(), GroupID: groupID, ChunkID: chunkID}
}
