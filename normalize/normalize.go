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
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LanguageDutch and LanguageEnglish are the supported stemmer languages.
const (
	LanguageDutch   = "dutch"
	LanguageEnglish = "english"
)

// Normalizer produces the three normalization grades for clause text.
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	language  string
	stopwords map[string]bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLanguage sets the stemmer and stopword language.
// Default is LanguageDutch.
func WithLanguage(language string) Option {
	return func(n *Normalizer) {
		if language != "" {
			n.language = language
		}
	}
}

// New creates a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		language: LanguageDutch,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.stopwords = stopwordsFor(n.language)
	return n
}

// Language returns the configured stemmer language.
func (n *Normalizer) Language() string {
	return n.language
}

// diacriticStripper removes combining marks after NFD decomposition,
// so "é" folds to "e" and "ï" to "i".
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// punctuationFolds maps typographic punctuation to its ASCII form.
var punctuationFolds = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", "\"", "”", "\"", "„", "\"",
	"–", "-", "—", "-", "−", "-",
	" ", " ", "…", "...",
)

// Comparison produces the comparison-grade normalization: lowercase,
// diacritics stripped, punctuation folded to ASCII, whitespace collapsed.
// Empty or whitespace-only input yields the empty string.
func (n *Normalizer) Comparison(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	s := strings.ToLower(text)

	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}

	s = punctuationFolds.Replace(s)

	// Drop everything outside the comparison alphabet. Currency signs and
	// basic punctuation are kept because they carry meaning in clauses.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" .,;:%/()'\"-", r):
			b.WriteRune(r)
		case r == '€' || r == '$':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// stopwordsFor returns the stopword set for a language.
// Unknown languages fall back to the Dutch set.
func stopwordsFor(language string) map[string]bool {
	if language == LanguageEnglish {
		return englishStopwords
	}
	return dutchStopwords
}

var dutchStopwords = map[string]bool{
	"de": true, "het": true, "een": true, "en": true, "van": true,
	"in": true, "op": true, "te": true, "met": true, "voor": true,
	"is": true, "zijn": true, "wordt": true, "worden": true, "dat": true,
	"die": true, "deze": true, "dit": true, "aan": true, "bij": true,
	"of": true, "als": true, "per": true, "tot": true, "niet": true,
	"ook": true, "naar": true, "door": true, "uit": true, "dan": true,
}

var englishStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true,
	"in": true, "on": true, "to": true, "with": true, "for": true,
	"is": true, "are": true, "be": true, "that": true, "this": true,
	"these": true, "at": true, "by": true, "or": true, "if": true,
	"as": true, "per": true, "not": true, "also": true, "from": true,
}
