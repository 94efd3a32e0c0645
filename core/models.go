package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Clause represents a single free-text policy clause after normalization.
// Clauses are immutable once created by ingestion.
type Clause struct {
	Id             ID
	RawText        string
	NormalizedText string // comparison-grade normalization of RawText
	SourceRef      string // where the clause came from (policy number, row reference)
	Length         int    // length of NormalizedText in runes
}

// Cluster groups near-duplicate clauses behind a single leader.
// Clusters are append-only within a run: members are added, never removed.
type Cluster struct {
	Id            int
	Leader        *Clause
	MemberIds     []ID // insertion order
	NotApplicable bool // true for the pseudo-cluster holding incomparable clauses
}

// Frequency returns the number of member clauses.
func (c *Cluster) Frequency() int {
	return len(c.MemberIds)
}

// ReferenceSection is one section of a reference document (clause library
// entry or parsed policy conditions). Immutable, externally loaded.
type ReferenceSection struct {
	Id             ID
	Title          string
	NormalizedText string
	SourceDocument string
	Position       int
}

// SignalKind identifies one similarity sub-signal.
// The set is closed; per-job availability is tracked separately.
type SignalKind int

const (
	// SignalLiteral is the edit-distance ratio on normalized strings.
	SignalLiteral SignalKind = iota + 1
	// SignalLexical is the edit-distance ratio after word-form collapsing.
	SignalLexical
	// SignalKeyword is document-frequency-weighted term overlap.
	SignalKeyword
	// SignalSynonym is the ratio after canonical domain-term substitution.
	SignalSynonym
	// SignalSemantic is cosine similarity of dense vector encodings.
	SignalSemantic
)

// String returns the configuration name of the signal.
func (s SignalKind) String() string {
	switch s {
	case SignalLiteral:
		return "literal"
	case SignalLexical:
		return "lexical"
	case SignalKeyword:
		return "keyword"
	case SignalSynonym:
		return "synonym"
	case SignalSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Signals lists all signal kinds in computation order, cheapest first.
func Signals() []SignalKind {
	return []SignalKind{SignalLiteral, SignalLexical, SignalKeyword, SignalSynonym, SignalSemantic}
}

// SimilarityBreakdown records how one comparison was scored.
// Ephemeral, produced per score call.
type SimilarityBreakdown struct {
	SignalScores   map[SignalKind]float64 // each in [0,1]
	WeightsUsed    map[SignalKind]float64 // renormalized over computed signals
	FinalScore     float64                // in [0,1]
	ShortCircuited bool
}

// Action is the closed set of recommendations the decision engine can emit.
type Action int

const (
	// ActionRemove recommends deleting the clause (covered by conditions).
	ActionRemove Action = iota + 1
	// ActionReplaceWithCode recommends replacing the clause with a library code.
	ActionReplaceWithCode
	// ActionVerifySimilarity asks a reviewer to confirm a probable library match.
	ActionVerifySimilarity
	// ActionStandardize recommends promoting a frequent clause to a standard text.
	ActionStandardize
	// ActionKeep recommends keeping the clause as-is.
	ActionKeep
	// ActionConsistencyCheck flags a unique clause for a consistency pass.
	ActionConsistencyCheck
	// ActionManualSplit flags a compound clause that needs manual splitting.
	ActionManualSplit
	// ActionManualReview is the default terminal recommendation.
	ActionManualReview
)

// String returns the export name of the action.
func (a Action) String() string {
	switch a {
	case ActionRemove:
		return "remove"
	case ActionReplaceWithCode:
		return "replace-with-code"
	case ActionVerifySimilarity:
		return "verify-similarity"
	case ActionStandardize:
		return "standardize"
	case ActionKeep:
		return "keep"
	case ActionConsistencyCheck:
		return "consistency-check"
	case ActionManualSplit:
		return "manual-split"
	case ActionManualReview:
		return "manual-review"
	default:
		return "unknown"
	}
}

// Confidence grades how certain the engine is about an advice.
type Confidence int

const (
	// ConfidenceHigh marks advice safe to act on without review.
	ConfidenceHigh Confidence = iota + 1
	// ConfidenceMedium marks advice that should be spot-checked.
	ConfidenceMedium
	// ConfidenceLow marks advice that needs a reviewer.
	ConfidenceLow
)

// String returns the export name of the confidence grade.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// Advice is the terminal recommendation for one cluster.
// Created exactly once per cluster.
type Advice struct {
	ClusterId  int
	Action     Action
	Confidence Confidence
	Reason     string            // audit trail: evaluated scores and matched rules
	Reference  *ReferenceSection // optional pointer to the matched section
	Stage      string            // name of the waterfall stage that fired
}
