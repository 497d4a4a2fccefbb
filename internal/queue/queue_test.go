// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestQueue_Drain_MergesBlockingAndBatchPop(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	key := "test:ingestion:" + time.Now().Format("20060102150405")
	defer client.Del(ctx, key)

	if err := client.RPush(ctx, key, `{"a":1}`, `{"a":2}`, `{"a":3}`).Err(); err != nil {
		t.Fatalf("seed rpush failed: %v", err)
	}

	q := New(client, key)
	payloads, err := q.Drain(ctx, 10)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
}

func TestQueue_Drain_RespectsMaxBatch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	key := "test:ingestion:" + time.Now().Format("20060102150405.000000000")
	defer client.Del(ctx, key)

	for i := 0; i < 5; i++ {
		if err := client.RPush(ctx, key, `{"a":1}`).Err(); err != nil {
			t.Fatalf("seed rpush failed: %v", err)
		}
	}

	q := New(client, key)
	payloads, err := q.Drain(ctx, 2)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	// one blocking pop + up to 2 from the batch pop = 3
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads (1 blocking + 2 batch), got %d", len(payloads))
	}
}

func TestDecodeAll_DropsMalformedPayloads(t *testing.T) {
	type sample struct {
		A int `json:"a"`
	}

	payloads := [][]byte{
		[]byte(`{"a":1}`),
		[]byte(`not json`),
		[]byte(`{"a":3}`),
	}

	out := DecodeAll[sample](payloads)
	if len(out) != 2 {
		t.Fatalf("expected 2 decoded samples, got %d", len(out))
	}
	if out[0].A != 1 || out[1].A != 3 {
		t.Fatalf("unexpected decoded values: %+v", out)
	}
}
