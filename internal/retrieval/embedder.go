// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Embedder produces a dense vector representation of a piece of text. All
// vectors returned by a single Embedder must share the same dimension.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dim returns the dimension of vectors this Embedder produces.
	Dim() int
}

// HashEmbedder is a deterministic, dependency-free Embedder. It hashes
// overlapping token shingles into a fixed-width vector and L2-normalizes the
// result, producing a crude but fully reproducible bag-of-features
// representation. It exists so the retrieval engine and its tests never
// depend on a live embedding service; swap in OllamaEmbedder for
// production-quality semantic recall.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing vectors of the given
// dimension. dim must be positive; callers typically use EMBEDDING_DIM from
// configuration.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 128
	}
	return &HashEmbedder{dim: dim}
}

// Dim returns the embedder's vector width.
func (h *HashEmbedder) Dim() int { return h.dim }

// Embed hashes each token (and each adjacent token pair) of text into a
// bucket of the output vector, weighted by term frequency, then
// L2-normalizes. Identical text always yields an identical vector.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	terms := tokenize(text)

	for _, term := range terms {
		bucket := hashBucket(term, h.dim)
		vec[bucket]++
	}
	for i := 0; i+1 < len(terms); i++ {
		bigram := terms[i] + "_" + terms[i+1]
		bucket := hashBucket(bigram, h.dim)
		vec[bucket]++
	}

	normalize(vec)
	return vec, nil
}

func hashBucket(s string, dim int) int {
	sum := sha256.Sum256([]byte(s))
	n := binary.BigEndian.Uint32(sum[:4])
	return int(n % uint32(dim))
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}

// OllamaEmbedder calls a local Ollama instance's /api/embed endpoint for
// production-quality embeddings. It is not used by default because it
// requires a live service and is non-deterministic across model versions.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOllamaEmbedder returns an OllamaEmbedder targeting baseURL (e.g.
// "http://localhost:11434") with the given model and expected output
// dimension.
func NewOllamaEmbedder(baseURL, model string, dim int) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Dim returns the embedder's expected vector width.
func (o *OllamaEmbedder) Dim() int { return o.dim }

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed requests an embedding for text from the configured Ollama instance.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed returned status %d", resp.StatusCode)
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ollama embed response: %w", err)
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama embed response contained no vectors")
	}
	return parsed.Embeddings[0], nil
}
