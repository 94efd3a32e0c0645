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
	"math"

	"github.com/veridia/clausewise/normalize"
)

// DocFrequency holds per-token document frequencies over a text corpus.
// It weights the keyword signal so that rare shared terms count more than
// ubiquitous ones. Read-only after construction, safe for concurrent use.
type DocFrequency struct {
	df   map[string]int
	docs int
}

// NewDocFrequency builds a document-frequency table over the given texts.
// Each text counts a token at most once.
func NewDocFrequency(normalizer *normalize.Normalizer, texts []string) *DocFrequency {
	d := &DocFrequency{
		df: make(map[string]int),
	}
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, token := range normalizer.Tokens(text) {
			if seen[token] {
				continue
			}
			seen[token] = true
			d.df[token]++
		}
		d.docs++
	}
	return d
}

// Docs returns the number of documents the table was built from.
func (d *DocFrequency) Docs() int {
	if d == nil {
		return 0
	}
	return d.docs
}

// Idf returns the inverse-document-frequency weight for a token.
// Unknown tokens get the highest weight; a nil or empty table weights
// every token equally.
func (d *DocFrequency) Idf(token string) float64 {
	if d == nil || d.docs == 0 {
		return 1
	}
	return math.Log1p(float64(d.docs) / float64(d.df[token]+1))
}
