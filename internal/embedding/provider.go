// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/curator/internal/cache"
	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend"
)

// VectorSource reads precomputed item vectors. *database.DB implements it.
type VectorSource interface {
	ActiveModelID(ctx context.Context) (string, error)
	GetVectors(ctx context.Context, itemIDs []int, modelID string) (map[int][]float32, error)
}

// TextEmbedder embeds free text with a named model. *Client implements it.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// ProviderOptions sizes the provider caches. Zero values use the defaults.
type ProviderOptions struct {
	VectorCacheSize int
	TextCacheSize   int

	// TextCacheTTL bounds how long an interest embedding is reused.
	TextCacheTTL time.Duration
}

type vectorKey struct {
	model string
	item  int
}

type textKey struct {
	model string
	text  string
}

// Provider implements recommend.EmbeddingProvider on top of a vector store
// and an optional text embedding service.
type Provider struct {
	source VectorSource
	text   TextEmbedder

	vectors *cache.LRU[vectorKey, []float32]
	texts   *cache.LRU[textKey, []float32]
}

// NewProvider creates a Provider. text may be nil.
func NewProvider(source VectorSource, text TextEmbedder, opts ProviderOptions) *Provider {
	if opts.VectorCacheSize <= 0 {
		opts.VectorCacheSize = 50000
	}
	if opts.TextCacheSize <= 0 {
		opts.TextCacheSize = 1000
	}
	if opts.TextCacheTTL <= 0 {
		opts.TextCacheTTL = time.Hour
	}
	return &Provider{
		source:  source,
		text:    text,
		vectors: cache.NewLRU[vectorKey, []float32](opts.VectorCacheSize, 0),
		texts:   cache.NewLRU[textKey, []float32](opts.TextCacheSize, opts.TextCacheTTL),
	}
}

// ActiveModelID returns the active model of the vector source.
func (p *Provider) ActiveModelID(ctx context.Context) (string, error) {
	return p.source.ActiveModelID(ctx)
}

// GetVectors returns cached vectors and loads the rest from the source.
func (p *Provider) GetVectors(ctx context.Context, itemIDs []int, modelID string) (map[int][]float32, error) {
	out := make(map[int][]float32, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	keys := make([]vectorKey, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = vectorKey{model: modelID, item: id}
	}
	found, missing := p.vectors.GetMany(keys)
	metrics.RecordCacheLookup("item_vector", len(found), len(missing))
	for k, v := range found {
		out[k.item] = v
	}
	if len(missing) == 0 {
		return out, nil
	}

	ids := make([]int, len(missing))
	for i, k := range missing {
		ids[i] = k.item
	}
	loaded, err := p.source.GetVectors(ctx, ids, modelID)
	if err != nil {
		return nil, fmt.Errorf("load item vectors: %w", err)
	}
	for id, v := range loaded {
		p.vectors.Add(vectorKey{model: modelID, item: id}, v)
		out[id] = v
	}
	metrics.CacheSize.WithLabelValues("item_vector").Set(float64(p.vectors.Len()))
	return out, nil
}

// TextEmbedding embeds text, reusing recent results for the same embedder
// model. Without a text embedder it returns nil and no error.
func (p *Provider) TextEmbedding(ctx context.Context, text string) ([]float32, error) {
	if p.text == nil {
		return nil, nil
	}

	key := textKey{model: p.text.Model(), text: strings.ToLower(strings.TrimSpace(text))}
	if v, ok := p.texts.Get(key); ok {
		metrics.RecordCacheLookup("text_embedding", 1, 0)
		return v, nil
	}
	metrics.RecordCacheLookup("text_embedding", 0, 1)

	v, err := p.text.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	p.texts.Add(key, v)
	return v, nil
}

// InvalidateModel drops every cached item and text vector, typically after
// the active model changes.
func (p *Provider) InvalidateModel() {
	p.vectors.Clear()
	p.texts.Clear()
}

var _ recommend.EmbeddingProvider = (*Provider)(nil)
