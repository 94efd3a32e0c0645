// Package waterfall decides what to do with each clause cluster.
//
// A decision runs an ordered, first-match-wins rule cascade over the
// cluster's leader text:
//
//	AdminHygiene → MultiPatternGuard → ClauseLibraryMatch →
//	ConditionsMatch → FallbackHeuristics → ManualReview
//
// The first stage that fires emits the cluster's Advice and terminates
// the cascade; ManualReview always fires, so every cluster gets exactly
// one Advice. Each evaluated stage records its scores and the rule it
// matched (or fell through on) into the Advice reason, keeping every
// decision auditable after the fact.
package waterfall
