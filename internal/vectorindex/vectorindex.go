// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package vectorindex is the Qdrant gateway used by the ingestion
// pipelines: point creation, point update, group bookmarking, bulk upsert,
// and the per-dataset top-match search that drives dedup.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/google/uuid"
	"github.com/northbound/vectoringest/internal/model"
)

// Index is a thin wrapper around the Qdrant points service client,
// generalized from a single unnamed vector space to the named
// dense vector spaces (one per embedding size) plus one sparse space that
// internal/bootstrap provisions.
type Index struct {
	pointsSvc  qdrant.PointsClient
	collection string
}

// New constructs an Index bound to an already-bootstrapped collection.
func New(conn *grpc.ClientConn, collection string) (*Index, error) {
	if conn == nil {
		return nil, errors.New("gRPC connection is required")
	}
	return &Index{
		pointsSvc:  qdrant.NewPointsClient(conn),
		collection: collection,
	}, nil
}

func pointID(id uuid.UUID) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id.String()}}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func stringListValue(items []string) *qdrant.Value {
	values := make([]*qdrant.Value, len(items))
	for i, item := range items {
		values[i] = stringValue(item)
	}
	return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
}

func integerValue(v int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
}

// buildPayload converts a chunk's metadata into the Qdrant payload fields
// that internal/bootstrap indexes: link, tag_set, dataset_id, chunk_html,
// metadata, time_stamp, group_ids.
func buildPayload(point model.QdrantPoint) map[string]*qdrant.Value {
	payload := map[string]*qdrant.Value{
		"dataset_id": stringValue(point.DatasetID.String()),
	}

	meta := point.Metadata
	if meta.Link != nil {
		payload["link"] = stringValue(*meta.Link)
	}
	if len(meta.TagSet) > 0 {
		payload["tag_set"] = stringListValue(meta.TagSet)
	}
	if meta.ChunkHTML != nil {
		payload["chunk_html"] = stringValue(*meta.ChunkHTML)
	}
	if len(meta.Metadata) > 0 {
		payload["metadata"] = stringValue(string(meta.Metadata))
	}
	if meta.TimeStamp != nil {
		payload["time_stamp"] = integerValue(meta.TimeStamp.Unix())
	}
	if len(point.GroupIDs) > 0 {
		ids := make([]string, len(point.GroupIDs))
		for i, g := range point.GroupIDs {
			ids[i] = g.String()
		}
		payload["group_ids"] = stringListValue(ids)
	}

	return payload
}

func namedVectors(point model.QdrantPoint, cfg model.DatasetConfig) *qdrant.Vectors {
	vectors := map[string]*qdrant.Vector{
		cfg.VectorName(): {Data: point.Dense},
	}
	if len(point.Sparse) > 0 {
		indices := make([]uint32, 0, len(point.Sparse))
		values := make([]float32, 0, len(point.Sparse))
		for idx, val := range point.Sparse {
			indices = append(indices, idx)
			values = append(values, val)
		}
		vectors["sparse_vectors"] = &qdrant.Vector{
			Data:    values,
			Indices: &qdrant.SparseIndices{Data: indices},
		}
	}
	return &qdrant.Vectors{
		VectorsOptions: &qdrant.Vectors_Vectors{
			Vectors: &qdrant.NamedVectors{Vectors: vectors},
		},
	}
}

// UpsertPoint creates or replaces a point in the index, generalizing the
// teacher's single-space Upsert to the named dense/sparse vector spaces
// provisioned by internal/bootstrap.
func (idx *Index) UpsertPoint(ctx context.Context, point model.QdrantPoint, cfg model.DatasetConfig) error {
	if len(point.Dense) == 0 {
		return errors.New("vectorindex: dense vector cannot be empty")
	}

	p := &qdrant.PointStruct{
		Id:      pointID(point.ID),
		Vectors: namedVectors(point, cfg),
		Payload: buildPayload(point),
	}

	_, err := idx.pointsSvc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         []*qdrant.PointStruct{p},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert point %s: %w", point.ID, err)
	}
	log.Printf("vectorindex: upserted point %s", point.ID)
	return nil
}

// UpdatePoint updates an existing point's vector and/or payload. Both
// arguments are optional: passing nil for both returns nil without making
// any request, so it neither changes the point nor checks that it exists.
// The collision branch of the single-upload path calls it that way,
// mirroring update_qdrant_point_query(None, collision_id, None, ...).
func (idx *Index) UpdatePoint(ctx context.Context, id uuid.UUID, vector *model.QdrantPoint, payload map[string]*qdrant.Value, cfg model.DatasetConfig) error {
	if vector == nil && payload == nil {
		return nil
	}

	selector := &qdrant.PointsSelector{
		PointsSelectorOneOf: &qdrant.PointsSelector_Points{
			Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{pointID(id)}},
		},
	}

	if vector != nil {
		_, err := idx.pointsSvc.UpdateVectors(ctx, &qdrant.UpdatePointVectors{
			CollectionName: idx.collection,
			Points: []*qdrant.PointVectors{
				{Id: pointID(id), Vectors: namedVectors(*vector, cfg)},
			},
		})
		if err != nil {
			return fmt.Errorf("vectorindex: update vector for point %s: %w", id, err)
		}
	}

	if payload != nil {
		_, err := idx.pointsSvc.SetPayload(ctx, &qdrant.SetPayloadPoints{
			CollectionName: idx.collection,
			Payload:        payload,
			PointsSelector: selector,
		})
		if err != nil {
			return fmt.Errorf("vectorindex: update payload for point %s: %w", id, err)
		}
	}

	return nil
}

// AddBookmark appends groupID to a point's group_ids payload field, first
// retrieving the current value so the operation is idempotent: re-adding a
// group the point is already bookmarked into is a no-op.
func (idx *Index) AddBookmark(ctx context.Context, id uuid.UUID, groupID uuid.UUID) error {
	retrieved, err := idx.pointsSvc.Get(ctx, &qdrant.GetPoints{
		CollectionName: idx.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: get point %s for bookmark: %w", id, err)
	}
	if len(retrieved.Result) == 0 {
		return fmt.Errorf("vectorindex: point %s not found for bookmark", id)
	}

	existing := map[string]struct{}{}
	if v, ok := retrieved.Result[0].Payload["group_ids"]; ok {
		for _, item := range v.GetListValue().GetValues() {
			existing[item.GetStringValue()] = struct{}{}
		}
	}

	groupStr := groupID.String()
	if _, ok := existing[groupStr]; ok {
		return nil
	}
	existing[groupStr] = struct{}{}

	ids := make([]string, 0, len(existing))
	for id := range existing {
		ids = append(ids, id)
	}

	_, err = idx.pointsSvc.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: idx.collection,
		Payload:        map[string]*qdrant.Value{"group_ids": stringListValue(ids)},
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{pointID(id)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: set group_ids on point %s: %w", id, err)
	}
	return nil
}

// BulkItem pairs a point with the dataset configuration that dictates which
// named vector space it belongs in.
type BulkItem struct {
	Point  model.QdrantPoint
	Config model.DatasetConfig
}

// BulkResult carries the per-item outcome of a BulkUpsert call.
type BulkResult struct {
	ID  uuid.UUID
	Err error
}

// BulkUpsert upserts items concurrently, one goroutine per item, matching
// the original's join_all-over-futures fan-out. Each item's success or
// failure is reported independently; a failure on one item does not stop
// the others.
func (idx *Index) BulkUpsert(ctx context.Context, items []BulkItem) []BulkResult {
	results := make([]BulkResult, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		go func(i int, item BulkItem) {
			defer wg.Done()
			err := idx.UpsertPoint(ctx, item.Point, item.Config)
			results[i] = BulkResult{ID: item.Point.ID, Err: err}
		}(i, item)
	}
	wg.Wait()

	return results
}

// TopMatch is the ID and score of the single most similar existing point.
type TopMatch struct {
	PointID uuid.UUID
	Score   float32
	Found   bool
}

// Search runs a top-1 cosine similarity search scoped to a single dataset
// via a payload filter on dataset_id, generalizing the teacher's unfiltered,
// single-tenant Search to the multi-dataset collection internal/bootstrap
// provisions. Returns a zero-score, Found=false sentinel when the dataset
// has no points yet.
func (idx *Index) Search(ctx context.Context, vector []float32, datasetID uuid.UUID, cfg model.DatasetConfig) (TopMatch, error) {
	if len(vector) == 0 {
		return TopMatch{}, errors.New("vectorindex: query vector cannot be empty")
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "dataset_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: datasetID.String()},
						},
					},
				},
			},
		},
	}

	result, err := idx.pointsSvc.Search(ctx, &qdrant.SearchPoints{
		CollectionName: idx.collection,
		Vector:         vector,
		VectorName:     ptrString(cfg.VectorName()),
		Filter:         filter,
		Limit:          1,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: false}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	})
	if err != nil {
		return TopMatch{}, fmt.Errorf("vectorindex: search dataset %s: %w", datasetID, err)
	}

	if len(result.Result) == 0 {
		return TopMatch{Found: false}, nil
	}

	scored := result.Result[0]
	id, err := uuid.Parse(scored.Id.GetUuid())
	if err != nil {
		return TopMatch{}, fmt.Errorf("vectorindex: parse matched point id: %w", err)
	}

	return TopMatch{PointID: id, Score: scored.Score, Found: true}, nil
}

func ptrString(s string) *string { return &s }
