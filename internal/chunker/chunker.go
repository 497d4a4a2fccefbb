// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package chunker implements the coarse, sentence-aware text splitter used
// to break long content into pieces small enough to embed individually when
// a message requests split-and-average embedding, plus the vector averaging
// that recombines the resulting embeddings into one.
package chunker

import (
	"fmt"
	"strings"
)

// CoarseChunker splits text with sentence-aware boundaries, the same
// algorithm the original coarse_doc_chunker uses: prefer breaking on a
// sentence or paragraph boundary within the tail of the window, falling back
// to a hard cut at the window size.
type CoarseChunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewCoarseChunker creates a chunker with the coarse-split defaults: ~2000
// characters per piece with 200 characters of overlap.
func NewCoarseChunker() *CoarseChunker {
	return &CoarseChunker{chunkSize: 2000, chunkOverlap: 200}
}

// Split breaks text into overlapping, sentence-aware pieces.
func (c *CoarseChunker) Split(text string) ([]string, error) {
	if len(text) == 0 {
		return []string{}, nil
	}

	var chunks []string
	start := 0
	textLen := len(text)

	for start < textLen {
		end := start + c.chunkSize
		if end > textLen {
			end = textLen
		}

		if end < textLen {
			searchStart := end - 200
			if searchStart < start {
				searchStart = start
			}

			bestBreak := end
			for i := end - 1; i >= searchStart; i-- {
				char := text[i]
				if (char == '.' || char == '!' || char == '?') && i+1 < len(text) {
					nextChar := text[i+1]
					if nextChar == ' ' || nextChar == '\n' || nextChar == '\r' {
						bestBreak = i + 1
						break
					}
				}
				if i+1 < len(text) && char == '\n' && text[i+1] == '\n' {
					bestBreak = i + 2
					break
				}
			}

			if bestBreak > start {
				end = bestBreak
			}
		}

		chunk := strings.TrimSpace(text[start:end])
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}

		if end >= textLen {
			break
		}

		start = end - c.chunkOverlap
		if start < 0 {
			start = 0
		}
		if start >= end {
			start = end
		}
	}

	return chunks, nil
}

// Average componentwise-averages a set of equal-length embedding vectors
// into one, mirroring average_embeddings. Returns an error if vectors is
// empty or the vectors disagree on dimension.
func Average(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("average_embeddings: no vectors to average")
	}

	dim := len(vectors[0])
	sum := make([]float32, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("average_embeddings: vector dimension mismatch: %d != %d", len(v), dim)
		}
		for i, x := range v {
			sum[i] += x
		}
	}

	n := float32(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}
