// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package metadata is the Postgres gateway for chunk metadata, group
// bookmarks, duplicate collisions, and the event audit log, generalized
// from a pgxpool single-table store into the four-table relational schema
// the ingestion core owns.
package metadata

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbound/vectoringest/internal/model"
)

// Store is the Postgres-backed metadata gateway.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the ingestion schema exists.
func NewStore(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("metadata: connect database: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	const statements = `
CREATE TABLE IF NOT EXISTS chunk_metadata (
	id UUID PRIMARY KEY,
	dataset_id UUID NOT NULL,
	qdrant_point_id UUID,
	content TEXT NOT NULL,
	chunk_html TEXT,
	link TEXT,
	tag_set TEXT[],
	metadata JSONB,
	tracking_id TEXT,
	time_stamp TIMESTAMPTZ,
	file_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (dataset_id, tracking_id)
);

CREATE INDEX IF NOT EXISTS chunk_metadata_dataset_idx ON chunk_metadata (dataset_id);
CREATE INDEX IF NOT EXISTS chunk_metadata_tracking_idx ON chunk_metadata (dataset_id, tracking_id);

CREATE TABLE IF NOT EXISTS chunk_group_bookmarks (
	id UUID PRIMARY KEY,
	group_id UUID NOT NULL,
	chunk_id UUID NOT NULL REFERENCES chunk_metadata (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (group_id, chunk_id)
);

CREATE TABLE IF NOT EXISTS chunk_metadata_collisions (
	id UUID PRIMARY KEY,
	chunk_id UUID NOT NULL,
	collision_qdrant_point_id UUID NOT NULL,
	file_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	dataset_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	chunk_id UUID,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS events_dataset_idx ON events (dataset_id);
`
	_, err := s.pool.Exec(ctx, statements)
	return err
}

// InsertChunk inserts a single chunk, optionally upserting by
// (dataset_id, tracking_id) when upsertByTrackingID is set, matching
// insert_chunk_metadata_query's conflict behavior. Returns the persisted
// metadata, whose QdrantPointID reflects the row that now exists (the
// caller's on a fresh insert, or the pre-existing row's on conflict).
func (s *Store) InsertChunk(ctx context.Context, chunk model.ChunkMetadata, fileID *uuid.UUID, upsertByTrackingID bool) (model.ChunkMetadata, error) {
	query := `
INSERT INTO chunk_metadata (id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp, file_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	if upsertByTrackingID && chunk.TrackingID != nil {
		query += `
ON CONFLICT (dataset_id, tracking_id) DO UPDATE SET
	content = EXCLUDED.content,
	chunk_html = EXCLUDED.chunk_html,
	link = EXCLUDED.link,
	tag_set = EXCLUDED.tag_set,
	metadata = EXCLUDED.metadata,
	time_stamp = EXCLUDED.time_stamp,
	file_id = EXCLUDED.file_id`
	} else {
		query += ` ON CONFLICT (id) DO NOTHING`
	}

	query += `
RETURNING id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp`

	row := s.pool.QueryRow(ctx, query,
		chunk.ID, chunk.DatasetID, chunk.QdrantPointID, chunk.Content, chunk.ChunkHTML,
		chunk.Link, chunk.TagSet, chunk.Metadata, chunk.TrackingID, chunk.TimeStamp, fileID,
	)

	var out model.ChunkMetadata
	if err := row.Scan(&out.ID, &out.DatasetID, &out.QdrantPointID, &out.Content, &out.ChunkHTML,
		&out.Link, &out.TagSet, &out.Metadata, &out.TrackingID, &out.TimeStamp); err != nil {
		return model.ChunkMetadata{}, fmt.Errorf("metadata: insert chunk: %w", err)
	}
	return out, nil
}

// InsertBulk inserts many chunks in a single transaction, matching
// insert_bulk_chunk_metadatas_query's all-or-nothing semantics.
func (s *Store) InsertBulk(ctx context.Context, chunks []model.ChunkMetadata) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("metadata: begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
INSERT INTO chunk_metadata (id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING`

	for _, c := range chunks {
		if _, err := tx.Exec(ctx, query, c.ID, c.DatasetID, c.QdrantPointID, c.Content, c.ChunkHTML,
			c.Link, c.TagSet, c.Metadata, c.TrackingID, c.TimeStamp); err != nil {
			return fmt.Errorf("metadata: insert bulk chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("metadata: commit bulk insert: %w", err)
	}
	return nil
}

// InsertDuplicate records a collision between a newly ingested chunk and an
// existing point, matching insert_duplicate_chunk_metadata_query: in one
// transaction it inserts the chunk's metadata row with qdrant_point_id set to
// collisionPointID and a chunk_metadata_collisions row linking the two.
func (s *Store) InsertDuplicate(ctx context.Context, chunk model.ChunkMetadata, collisionPointID uuid.UUID, fileID *uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("metadata: begin insert duplicate: %w", err)
	}
	defer tx.Rollback(ctx)

	const chunkQuery = `
INSERT INTO chunk_metadata (id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp, file_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	if _, err := tx.Exec(ctx, chunkQuery, chunk.ID, chunk.DatasetID, collisionPointID, chunk.Content, chunk.ChunkHTML,
		chunk.Link, chunk.TagSet, chunk.Metadata, chunk.TrackingID, chunk.TimeStamp, fileID); err != nil {
		return fmt.Errorf("metadata: insert duplicate chunk: %w", err)
	}

	const query = `
INSERT INTO chunk_metadata_collisions (id, chunk_id, collision_qdrant_point_id, file_id)
VALUES ($1,$2,$3,$4)`
	if _, err := tx.Exec(ctx, query, uuid.New(), chunk.ID, collisionPointID, fileID); err != nil {
		return fmt.Errorf("metadata: insert duplicate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("metadata: commit insert duplicate: %w", err)
	}
	return nil
}

// GetByTrackingIDs returns the chunks already recorded under any of
// trackingIDs in dataset, matching get_chunks_by_tracking_id_query.
func (s *Store) GetByTrackingIDs(ctx context.Context, datasetID uuid.UUID, trackingIDs []string) ([]model.ChunkMetadata, error) {
	if len(trackingIDs) == 0 {
		return nil, nil
	}

	const query = `
SELECT id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp
FROM chunk_metadata
WHERE dataset_id = $1 AND tracking_id = ANY($2)`

	rows, err := s.pool.Query(ctx, query, datasetID, trackingIDs)
	if err != nil {
		return nil, fmt.Errorf("metadata: get by tracking ids: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetByPointIDs returns the chunk metadata rows for the given Qdrant point
// IDs, matching get_metadata_from_point_ids.
func (s *Store) GetByPointIDs(ctx context.Context, pointIDs []uuid.UUID) ([]model.ChunkMetadata, error) {
	if len(pointIDs) == 0 {
		return nil, nil
	}

	const query = `
SELECT id, dataset_id, qdrant_point_id, content, chunk_html, link, tag_set, metadata, tracking_id, time_stamp
FROM chunk_metadata
WHERE qdrant_point_id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, pointIDs)
	if err != nil {
		return nil, fmt.Errorf("metadata: get by point ids: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows pgx.Rows) ([]model.ChunkMetadata, error) {
	var out []model.ChunkMetadata
	for rows.Next() {
		var c model.ChunkMetadata
		if err := rows.Scan(&c.ID, &c.DatasetID, &c.QdrantPointID, &c.Content, &c.ChunkHTML,
			&c.Link, &c.TagSet, &c.Metadata, &c.TrackingID, &c.TimeStamp); err != nil {
			return nil, fmt.Errorf("metadata: scan chunk row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateGroupBookmark records a chunk's membership in a group, matching
// create_chunk_bookmark_query. Returns (false, nil) without error if the
// bookmark already exists, so callers can skip the Qdrant-side update.
func (s *Store) CreateGroupBookmark(ctx context.Context, bookmark model.ChunkGroupBookmark) (bool, error) {
	const query = `
INSERT INTO chunk_group_bookmarks (id, group_id, chunk_id)
VALUES ($1,$2,$3)
ON CONFLICT (group_id, chunk_id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query, bookmark.ID, bookmark.GroupID, bookmark.ChunkID)
	if err != nil {
		return false, fmt.Errorf("metadata: create group bookmark: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecordEvent appends an event row, matching create_event_query.
func (s *Store) RecordEvent(ctx context.Context, event model.Event) error {
	const query = `
INSERT INTO events (id, dataset_id, event_type, chunk_id, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := s.pool.Exec(ctx, query, event.ID, event.DatasetID, event.Kind, event.ChunkID, event.Error, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("metadata: record event: %w", err)
	}
	return nil
}
