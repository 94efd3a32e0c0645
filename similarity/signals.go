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


package similarity

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/veridia/clausewise/core"
)

// EditRatio returns the normalized edit-distance similarity of two strings:
// 1 - distance/maxLength, in [0,1]. Two empty strings are identical.
func EditRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}

	dist := smetrics.Ukkonen(a, b, 1, 1, 1)
	ratio := 1 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// keywordOverlap computes the DF-weighted term overlap of two texts:
// sum of idf over shared tokens divided by sum of idf over the token union.
// Rare shared terms therefore count more than ubiquitous ones.
func (e *Engine) keywordOverlap(a, b string) float64 {
	ta := e.normalizer.Tokens(a)
	tb := e.normalizer.Tokens(b)

	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(ta))
	for _, t := range ta {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tb))
	for _, t := range tb {
		setB[t] = true
	}

	var shared, union float64
	for t := range setA {
		w := e.df.Idf(t)
		union += w
		if setB[t] {
			shared += w
		}
	}
	for t := range setB {
		if !setA[t] {
			union += e.df.Idf(t)
		}
	}

	if union == 0 {
		return 0
	}
	return shared / union
}

// synonymRatio computes the edit ratio after replacing domain terms with
// their canonical forms. Lookup is O(1) per token.
func (e *Engine) synonymRatio(na, nb string) float64 {
	return EditRatio(e.applySynonyms(na), e.applySynonyms(nb))
}

// applySynonyms rewrites each word of comparison-grade text through the
// synonym table.
func (e *Engine) applySynonyms(s string) string {
	if len(e.synonyms) == 0 {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		if canonical, ok := e.synonyms[w]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}

// semanticScore computes cosine similarity of the embedding vectors of the
// two comparison-grade texts, clamped to [0,1].
func (e *Engine) semanticScore(ctx context.Context, na, nb string) (float64, error) {
	va, err := e.vectorFor(ctx, na)
	if err != nil {
		return 0, err
	}
	vb, err := e.vectorFor(ctx, nb)
	if err != nil {
		return 0, err
	}
	return clamp01(cosine(va, vb)), nil
}

// vectorFor returns the embedding vector for text, consulting the cache
// keyed by content hash before calling the embedder.
func (e *Engine) vectorFor(ctx context.Context, text string) ([]float32, error) {
	id := core.IDFromContent(text)

	if e.cache != nil {
		vector, found, err := e.cache.GetVector(ctx, id)
		if err != nil {
			e.logger.Warn("vector cache read failed", "err", err)
		} else if found {
			return vector, nil
		}
	}

	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.PutVector(ctx, id, vector); err != nil {
			e.logger.Warn("vector cache write failed", "err", err)
		}
	}
	return vector, nil
}

// cosine computes the cosine similarity of two vectors.
func cosine(a, b []float32) float64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	if minLen == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
