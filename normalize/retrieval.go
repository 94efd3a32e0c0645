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


package normalize

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Retrieval produces the retrieval-grade normalization: comparison-grade
// text tokenized to words, stopwords removed, remaining words stemmed.
// This collapses inflected word forms so "verzekeringen" and "verzekering"
// compare equal in the lexical signal.
func (n *Normalizer) Retrieval(text string) string {
	tokens := n.Tokens(text)
	if len(tokens) == 0 {
		return ""
	}

	stemmed := make([]string, 0, len(tokens))
	for _, token := range tokens {
		stemmed = append(stemmed, n.stem(token))
	}
	return strings.Join(stemmed, " ")
}

// Tokens splits text into lowercase word tokens with stopwords removed.
func (n *Normalizer) Tokens(text string) []string {
	s := n.Comparison(text)
	if s == "" {
		return nil
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if n.stopwords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// stem applies the snowball stemmer for the configured language.
// Tokens the stemmer rejects (digits, placeholders) pass through unchanged.
func (n *Normalizer) stem(token string) string {
	stemmed, err := snowball.Stem(token, n.language, false)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}
