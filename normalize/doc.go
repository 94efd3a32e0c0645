// Package normalize provides deterministic text canonicalization for policy clauses.
//
// Three grades of normalization are produced from the same input:
//   - Comparison: lowercased, diacritic-stripped, whitespace-collapsed text
//     used for clustering and literal similarity.
//   - Canonical: comparison text with volatile tokens (monetary amounts,
//     dates, postal codes) replaced by fixed placeholders, so clauses that
//     differ only in such tokens hash identically.
//   - Retrieval: stemmed keyword form feeding the lexical similarity signal.
//
// All functions are pure: the same input always yields the same output,
// empty or whitespace-only input yields the empty string, and no function
// returns an error.
package normalize
