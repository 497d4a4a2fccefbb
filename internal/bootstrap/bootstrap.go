// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package bootstrap provisions the Qdrant collection the ingestion core
// writes into: the named dense vector spaces, the sparse vector space, the
// collection-wide HNSW tuning, and the payload field indexes queries filter
// on. It is a one-time operation run by cmd/bootstrap-collection, grounded
// 1:1 on the original create_new_qdrant_collection_query.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// ErrCollectionAlreadyExists is returned when the target collection is
// already present; bootstrap never overwrites an existing collection.
var ErrCollectionAlreadyExists = errors.New("bootstrap: collection already exists")

// vectorSpace describes one named dense vector space in the collection.
type vectorSpace struct {
	name          string
	size          uint64
	quantizeBinary bool
	onDisk        bool
}

var denseSpaces = []vectorSpace{
	{name: "384_vectors", size: 384},
	{name: "768_vectors", size: 768},
	{name: "1024_vectors", size: 1024, quantizeBinary: true, onDisk: true},
	{name: "1536_vectors", size: 1536},
}

// payloadIndex names a field this package indexes after collection
// creation, alongside any type-specific parameters.
type payloadIndex struct {
	field     string
	fieldType qdrant.FieldType
	params    *qdrant.PayloadIndexParams
}

var payloadIndexes = []payloadIndex{
	{field: "link", fieldType: qdrant.FieldType_FieldTypeText},
	{field: "tag_set", fieldType: qdrant.FieldType_FieldTypeText},
	{field: "dataset_id", fieldType: qdrant.FieldType_FieldTypeKeyword},
	{
		field:     "chunk_html",
		fieldType: qdrant.FieldType_FieldTypeText,
		params: &qdrant.PayloadIndexParams{
			IndexParams: &qdrant.PayloadIndexParams_TextIndexParams{
				TextIndexParams: &qdrant.TextIndexParams{
					Tokenizer:   qdrant.TokenizerType_Whitespace,
					MinTokenLen: ptrUint64(2),
					MaxTokenLen: ptrUint64(10),
					Lowercase:   ptrBool(true),
				},
			},
		},
	},
	{field: "metadata", fieldType: qdrant.FieldType_FieldTypeKeyword},
	{field: "time_stamp", fieldType: qdrant.FieldType_FieldTypeInteger},
	{field: "group_ids", fieldType: qdrant.FieldType_FieldTypeKeyword},
}

func ptrUint64(v uint64) *uint64 { return &v }
func ptrBool(v bool) *bool       { return &v }

// CreateCollection provisions a brand-new collection named collectionName on
// the Qdrant instance reachable over conn. It fails with
// ErrCollectionAlreadyExists if the collection is already present.
func CreateCollection(ctx context.Context, conn *grpc.ClientConn, collectionName string) error {
	collectionsSvc := qdrant.NewCollectionsClient(conn)

	info, err := collectionsSvc.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: collectionName})
	if err == nil && info.Result != nil {
		return ErrCollectionAlreadyExists
	}

	vectorParams := make(map[string]*qdrant.VectorParams, len(denseSpaces))
	for _, space := range denseSpaces {
		params := &qdrant.VectorParams{
			Size:     space.size,
			Distance: qdrant.Distance_Cosine,
		}
		if space.quantizeBinary {
			params.QuantizationConfig = &qdrant.QuantizationConfig{
				Quantization: &qdrant.QuantizationConfig_Binary{
					Binary: &qdrant.BinaryQuantization{AlwaysRam: ptrBool(true)},
				},
			}
		}
		if space.onDisk {
			params.OnDisk = ptrBool(true)
		}
		vectorParams[space.name] = params
	}

	_, err = collectionsSvc.Create(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_ParamsMap{
				ParamsMap: &qdrant.VectorParamsMap{Map: vectorParams},
			},
		},
		HnswConfig: &qdrant.HnswConfigDiff{
			PayloadM: ptrUint64(16),
			M:        ptrUint64(0),
		},
		SparseVectorsConfig: &qdrant.SparseVectorConfig{
			Map: map[string]*qdrant.SparseVectorParams{
				"sparse_vectors": {
					Index: &qdrant.SparseIndexConfig{OnDisk: ptrBool(false)},
				},
			},
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrCollectionAlreadyExists
		}
		return fmt.Errorf("bootstrap: create collection %s: %w", collectionName, err)
	}

	for _, idx := range payloadIndexes {
		if err := createFieldIndex(ctx, collectionsSvc, collectionName, idx); err != nil {
			return err
		}
	}

	return nil
}

func createFieldIndex(ctx context.Context, svc qdrant.CollectionsClient, collectionName string, idx payloadIndex) error {
	_, err := svc.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collectionName,
		FieldName:      idx.field,
		FieldType:      &idx.fieldType,
		FieldIndexParams: idx.params,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: create field index %q: %w", idx.field, err)
	}
	return nil
}
