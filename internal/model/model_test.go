// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package model

import (
	"encoding/json"
	"testing"
)

func TestDatasetConfig_DedupEnabled(t *testing.T) {
	cases := []struct {
		name   string
		cfg    DatasetConfig
		expect bool
	}{
		{"collisions enabled, high threshold", DatasetConfig{CollisionsEnabled: true, DuplicateDistanceThreshold: 1.0}, true},
		{"collisions disabled, low threshold", DatasetConfig{CollisionsEnabled: false, DuplicateDistanceThreshold: 0.9}, true},
		{"collisions disabled, threshold at 1.0", DatasetConfig{CollisionsEnabled: false, DuplicateDistanceThreshold: 1.0}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.DedupEnabled(); got != tc.expect {
				t.Errorf("DedupEnabled() = %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestDatasetConfig_VectorName(t *testing.T) {
	cases := []struct {
		size int
		want string
	}{
		{384, "384_vectors"},
		{768, "768_vectors"},
		{1024, "1024_vectors"},
		{1536, "1536_vectors"},
		{0, "1536_vectors"},
	}

	for _, tc := range cases {
		cfg := DatasetConfig{EmbeddingSize: tc.size}
		if got := cfg.VectorName(); got != tc.want {
			t.Errorf("VectorName() for size %d = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestIngestionMessage_ParseDatasetConfig(t *testing.T) {
	raw, err := json.Marshal(DatasetConfig{EmbeddingSize: 768, CollisionsEnabled: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msg := IngestionMessage{DatasetConfig: raw}
	cfg, err := msg.ParseDatasetConfig()
	if err != nil {
		t.Fatalf("ParseDatasetConfig failed: %v", err)
	}
	if cfg.EmbeddingSize != 768 || !cfg.CollisionsEnabled {
		t.Errorf("unexpected parsed config: %+v", cfg)
	}
}

func TestIngestionMessage_WantsUpsertByTrackingID(t *testing.T) {
	upsert := true
	msg := IngestionMessage{Chunk: ChunkOptions{UpsertByTrackingID: &upsert}}
	if !msg.WantsUpsertByTrackingID() {
		t.Fatal("expected WantsUpsertByTrackingID to be true")
	}

	msg2 := IngestionMessage{UpsertByTrackingID: true}
	if !msg2.WantsUpsertByTrackingID() {
		t.Fatal("expected envelope-level upsert_by_tracking_id to be honored")
	}
}
