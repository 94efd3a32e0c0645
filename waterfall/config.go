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

package waterfall

import (
	"github.com/veridia/clausewise/core"
)

// Default thresholds. All of them are business-tunable; these are the
// values the cascade ships with.
const (
	DefaultLibraryHigh      = 0.90
	DefaultLibraryMid       = 0.80
	DefaultConditionsHigh   = 0.90
	DefaultConditionsMedium = 0.80
	DefaultConditionsLow    = 0.70
	DefaultFragmentFraction = 0.50
	DefaultMinFrequency     = 10
	DefaultGuardMinLength   = 400
	DefaultMaxClauseLength  = 600
	DefaultStaleYearBefore  = 2018
)

// Thresholds are the tunable score bands and limits of the cascade.
// Validation fails fast; out-of-range values are never clamped.
type Thresholds struct {
	// LibraryHigh and LibraryMid band the clause-library match score:
	// score ≥ LibraryHigh replaces with the library code, scores in
	// [LibraryMid, LibraryHigh) ask for a similarity check.
	LibraryHigh float64
	LibraryMid  float64

	// ConditionsHigh, ConditionsMedium and ConditionsLow band the
	// conditions-corpus match score for removal advice.
	ConditionsHigh   float64
	ConditionsMedium float64
	ConditionsLow    float64

	// FragmentFraction is the fraction of query sentences that must be
	// found verbatim in the conditions corpus for a fragment-based
	// removal.
	FragmentFraction float64

	// MinFrequency is the cluster frequency at which a clause becomes a
	// standardization candidate.
	MinFrequency int

	// GuardMinLength is the minimum leader length (runes) for the
	// multi-pattern guard to fire.
	GuardMinLength int

	// MaxClauseLength is the leader length (runes) above which a clause
	// is flagged for manual split review.
	MaxClauseLength int

	// StaleYearBefore marks any year strictly below it as stale.
	StaleYearBefore int
}

// DefaultThresholds returns the thresholds the cascade ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LibraryHigh:      DefaultLibraryHigh,
		LibraryMid:       DefaultLibraryMid,
		ConditionsHigh:   DefaultConditionsHigh,
		ConditionsMedium: DefaultConditionsMedium,
		ConditionsLow:    DefaultConditionsLow,
		FragmentFraction: DefaultFragmentFraction,
		MinFrequency:     DefaultMinFrequency,
		GuardMinLength:   DefaultGuardMinLength,
		MaxClauseLength:  DefaultMaxClauseLength,
		StaleYearBefore:  DefaultStaleYearBefore,
	}
}

// Validate checks bands and limits.
func (t Thresholds) Validate() error {
	for _, v := range []float64{
		t.LibraryHigh, t.LibraryMid,
		t.ConditionsHigh, t.ConditionsMedium, t.ConditionsLow,
		t.FragmentFraction,
	} {
		if v < 0 || v > 1 {
			return ErrInvalidThreshold
		}
	}
	if t.LibraryMid >= t.LibraryHigh {
		return ErrBandOrder
	}
	if t.ConditionsLow >= t.ConditionsMedium || t.ConditionsMedium >= t.ConditionsHigh {
		return ErrBandOrder
	}
	if t.MinFrequency <= 0 {
		return ErrInvalidFrequency
	}
	if t.GuardMinLength <= 0 || t.MaxClauseLength <= 0 {
		return ErrInvalidLength
	}
	return nil
}

// KeywordRule maps a set of keywords to a fixed advice. The rule fires
// when every keyword appears in the leader's comparison-grade text.
// Rules are evaluated in table order; the first hit wins.
type KeywordRule struct {
	Name       string
	Keywords   []string
	Action     core.Action
	Confidence core.Confidence
	Reason     string
}

// Validate checks the rule is well-formed.
func (r KeywordRule) Validate() error {
	if len(r.Keywords) == 0 {
		return ErrInvalidKeywordRule
	}
	if err := core.ValidateAction(r.Action); err != nil {
		return ErrInvalidKeywordRule
	}
	if err := core.ValidateConfidence(r.Confidence); err != nil {
		return ErrInvalidKeywordRule
	}
	return nil
}
