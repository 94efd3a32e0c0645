// Package refmatch matches query texts against reference corpora.
//
// One generic matcher serves both corpora of the job: the small canonical
// clause library and the open-ended parsed-conditions corpus. A match
// runs three detections:
//
//  1. exact-substring containment of the query in the concatenated
//     corpus, a fast path that bypasses signal computation entirely
//  2. full similarity scoring against every corpus section, keeping the
//     maximum (ties broken by corpus order)
//  3. fragment decomposition: the fraction of query sentences literally
//     contained in the corpus, an independent detection signal for
//     stitched-together clauses
//
// Scoring a query against N sections is embarrassingly parallel; with a
// worker pool configured the scan fans out per section and reduces
// deterministically, so concurrent results are identical to sequential
// ones.
package refmatch
