// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package embedding talks to the per-dataset embedding service named by
// DatasetConfig.EmbeddingBaseURL, retrying transient failures and giving up
// immediately on client errors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/northbound/vectoringest/internal/ingesterr"
	"github.com/northbound/vectoringest/internal/model"
)

// Embedder generates a dense embedding vector for a chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string, kind string, cfg model.DatasetConfig) ([]float32, error)
}

// HTTPEmbedder calls a remote embedding endpoint over HTTP, mirroring the
// request/response shape of the teacher's OpenAI embedder but reading the
// endpoint, key, and model from the dataset configuration carried on each
// message instead of from process-wide settings.
type HTTPEmbedder struct {
	client *http.Client
}

// NewHTTPEmbedder constructs an HTTPEmbedder with the given request timeout.
func NewHTTPEmbedder(timeout time.Duration) *HTTPEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEmbedder{client: &http.Client{Timeout: timeout}}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding for text, retrying on transient failures
// (network errors and 5xx responses) with an exponential backoff and failing
// immediately on 4xx responses, which are never retried.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string, kind string, cfg model.DatasetConfig) ([]float32, error) {
	op := func() ([]float32, error) {
		return e.embedOnce(ctx, text, cfg)
	}

	vec, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
	)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *HTTPEmbedder) embedOnce(ctx context.Context, text string, cfg model.DatasetConfig) ([]float32, error) {
	payload := embedRequest{Input: []string{text}, Model: cfg.EmbeddingModelName}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ingesterr.New(ingesterr.PermanentClient, "embedding.Embed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EmbeddingBaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, ingesterr.New(ingesterr.PermanentClient, "embedding.Embed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.EmbeddingAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.EmbeddingAPIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, ingesterr.New(ingesterr.Transient, "embedding.Embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, ingesterr.New(ingesterr.Transient, "embedding.Embed",
			fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(respBody)))
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, backoff.Permanent(ingesterr.New(ingesterr.PermanentClient, "embedding.Embed",
			fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(respBody))))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, backoff.Permanent(ingesterr.New(ingesterr.PermanentClient, "embedding.Embed", err))
	}
	if len(decoded.Data) == 0 {
		return nil, backoff.Permanent(ingesterr.New(ingesterr.PermanentClient, "embedding.Embed",
			fmt.Errorf("embedding service returned no vectors")))
	}

	vec := make([]float32, len(decoded.Data[0].Embedding))
	for i, v := range decoded.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
