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
	"regexp"
	"strings"
)

// Placeholders substituted for volatile tokens in canonical text.
const (
	PlaceholderAmount = "<amt>"
	PlaceholderDate   = "<date>"
	PlaceholderPostal = "<postal>"
)

// Volatile token patterns, applied to comparison-grade text (lowercase,
// single-spaced). Order matters: amounts before bare-number dates, postal
// codes before bare numbers.
var (
	// € 1.500,50 / eur 500 / 500 euro / $250
	amountPattern = regexp.MustCompile(`(?:[€$]|\beur\b|\beuro\b)\s*\d+(?:[.,]\d+)*|\b\d+(?:[.,]\d+)*\s*(?:euro|eur)\b`)

	// 1-1-2024, 01/01/24, 2024-01-01
	numericDatePattern = regexp.MustCompile(`\b\d{1,4}[-/]\d{1,2}[-/]\d{1,4}\b`)

	// 1 januari 2024 / 3 march 2023
	namedDatePattern = regexp.MustCompile(`\b\d{1,2} (?:januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december|january|february|march|may|june|july|august|october)(?: \d{2,4})?\b`)

	// Dutch postal code: 1234 ab
	postalPattern = regexp.MustCompile(`\b\d{4} ?[a-z]{2}\b`)
)

// Canonical produces the canonical-grade normalization: comparison-grade
// text with monetary amounts, dates and postal codes replaced by fixed
// placeholders. Clauses that differ only in such tokens yield identical
// canonical text and therefore identical content hashes.
func (n *Normalizer) Canonical(text string) string {
	s := n.Comparison(text)
	if s == "" {
		return ""
	}
	return CanonicalizeComparison(s)
}

// CanonicalizeComparison applies placeholder substitution to text that is
// already comparison-grade. Used by the clustering engine, which keeps the
// comparison text on the clause and derives the canonical form on demand.
func CanonicalizeComparison(s string) string {
	s = amountPattern.ReplaceAllString(s, PlaceholderAmount)
	s = namedDatePattern.ReplaceAllString(s, PlaceholderDate)
	s = numericDatePattern.ReplaceAllString(s, PlaceholderDate)
	s = postalPattern.ReplaceAllString(s, PlaceholderPostal)
	return strings.Join(strings.Fields(s), " ")
}
