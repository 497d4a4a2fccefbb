// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package queue implements the durable Redis-list adapter the ingestion
// worker fleet drains in a loop: one blocking pop to guarantee forward
// progress when the list is empty, merged with one non-blocking batch pop to
// pull up to numToProcess additional items already waiting.
package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list name the original ingestion service reads
// from ("ingestion").
const DefaultKey = "ingestion"

// Queue drains raw JSON payloads from the durable ingestion list.
type Queue struct {
	client *redis.Client
	key    string
}

// New constructs a Queue bound to key on client. An empty key defaults to
// DefaultKey.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key}
}

// Drain performs one blocking BLPOP (indefinite timeout) followed by one
// non-blocking RPOP of up to maxBatch additional elements, and returns the
// union as raw JSON byte slices. Per spec, if either sub-call errors the
// whole drain returns no payloads and no error — the loop simply iterates
// again, matching the original's `_ => continue` behavior on a redis error.
// The one exception is a BLPOP that fails because ctx is done: Drain then
// returns ctx.Err().
// Malformed JSON is not filtered here; callers decode per-element and drop
// what doesn't parse.
func (q *Queue) Drain(ctx context.Context, maxBatch int64) ([][]byte, error) {
	blocked, err := q.client.BLPop(ctx, 0, q.key).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Drain: blpop error on key=%s: %v", q.key, err)
		return nil, nil
	}
	if len(blocked) < 2 {
		return nil, nil
	}

	batch, err := q.client.RPopCount(ctx, q.key, int(maxBatch)).Result()
	if err != nil && err != redis.Nil {
		log.Printf("Drain: rpop-count error on key=%s: %v", q.key, err)
		return nil, nil
	}

	payloads := make([][]byte, 0, len(batch)+1)
	payloads = append(payloads, []byte(blocked[1]))
	for _, item := range batch {
		payloads = append(payloads, []byte(item))
	}
	return payloads, nil
}

// DecodeAll unmarshals each payload into a T, dropping and logging any
// element that fails to parse rather than failing the whole batch.
func DecodeAll[T any](payloads [][]byte) []T {
	out := make([]T, 0, len(payloads))
	for _, raw := range payloads {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			log.Printf("DecodeAll: dropping malformed payload: %v", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
