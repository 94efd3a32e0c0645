// Copyright 2025 Veridia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prewarm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/veridia/clausewise/ai"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/storage"
)

// Config holds tunables for the prewarming run.
type Config struct {
	// BatchSize is the number of texts embedded per service call.
	BatchSize int

	// ReportInterval is how often to report progress (number of texts).
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Prewarmer embeds corpus texts into the vector cache.
type Prewarmer struct {
	cache      storage.VectorCache
	embedder   ai.Embedder
	normalizer *normalize.Normalizer
	config     *Config
	progress   io.Writer
}

// NewPrewarmer creates a prewarmer.
// progress: where to write progress output (typically os.Stderr)
func NewPrewarmer(cache storage.VectorCache, embedder ai.Embedder, normalizer *normalize.Normalizer, config *Config, progress io.Writer) (*Prewarmer, error) {
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}

	return &Prewarmer{
		cache:      cache,
		embedder:   embedder,
		normalizer: normalizer,
		config:     config,
		progress:   progress,
	}, nil
}

// Run embeds all texts not yet present in the cache. Texts are reduced
// to comparison grade and deduplicated first, so the cache keys line up
// with the similarity engine's lookups.
func (p *Prewarmer) Run(ctx context.Context, texts []string) error {
	pending, ids, err := p.pending(ctx, texts)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Fprintf(p.progress, "Cache already warm (0 texts to embed)\n")
		return nil
	}

	fmt.Fprintf(p.progress, "Prewarming %d texts (batch size: %d)\n",
		len(pending), p.config.BatchSize)

	tracker := NewProgressTracker(p.progress, len(pending), p.config.ReportInterval)
	tracker.Start()

	for start := 0; start < len(pending); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > len(pending) {
			end = len(pending)
		}

		batch := pending[start:end]
		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = p.embedder.EmbedTexts(ctx, batch)
			return embedErr
		}, p.config.MaxRetries, p.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding batch at %d: got %d vectors for %d texts", start, len(vectors), len(batch))
		}

		for i, vector := range vectors {
			if err := p.cache.PutVector(ctx, ids[start+i], vector); err != nil {
				return fmt.Errorf("caching vector: %w", err)
			}
		}

		tracker.Update(end)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(p.progress, "Prewarming complete. Embedded %d texts in %v (%.1f texts/sec)\n",
		len(pending), elapsed.Round(time.Second), float64(len(pending))/elapsed.Seconds())

	return nil
}

// pending normalizes and deduplicates the texts, dropping empties and
// texts whose vectors are already cached. The returned id slice is
// parallel to the text slice.
func (p *Prewarmer) pending(ctx context.Context, texts []string) ([]string, []core.ID, error) {
	seen := make(map[core.ID]struct{}, len(texts))
	var out []string
	var ids []core.ID

	for _, text := range texts {
		normalized := p.normalizer.Comparison(text)
		if normalized == "" {
			continue
		}

		id := core.IDFromContent(normalized)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, found, err := p.cache.GetVector(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("checking cache: %w", err)
		}
		if found {
			continue
		}

		out = append(out, normalized)
		ids = append(ids, id)
	}
	return out, ids, nil
}
