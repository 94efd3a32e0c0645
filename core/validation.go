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


package core

import "fmt"

// ValidateClause validates a Clause according to domain rules.
//
// Validation rules:
//   - RawText must not be empty
//
// NOT validated (populated by the pipeline):
//   - NormalizedText (empty until the normalizer runs)
//   - Length (derived from NormalizedText)
//   - ID (0 is valid until content hashing runs)
func ValidateClause(clause *Clause) error {
	if clause == nil {
		return fmt.Errorf("%w: clause is nil", ErrInvalidClause)
	}

	if clause.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidClause, ErrEmptyText)
	}

	return nil
}

// ValidateSection validates a ReferenceSection according to domain rules.
func ValidateSection(section *ReferenceSection) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}

	if section.NormalizedText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptySectionText)
	}

	return nil
}

// ValidateAdvice validates an Advice according to domain rules.
//
// Validation rules:
//   - Action must be one of the closed enum values
//   - Confidence must be one of the closed enum values
func ValidateAdvice(advice *Advice) error {
	if advice == nil {
		return fmt.Errorf("%w: advice is nil", ErrInvalidAdvice)
	}

	if err := ValidateAction(advice.Action); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAdvice, err)
	}

	if err := ValidateConfidence(advice.Confidence); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAdvice, err)
	}

	return nil
}

// ValidateAction validates that an Action has a valid value.
func ValidateAction(action Action) error {
	if action < ActionRemove || action > ActionManualReview {
		return fmt.Errorf("%w: value %d", ErrInvalidAction, action)
	}
	return nil
}

// ValidateConfidence validates that a Confidence has a valid value.
func ValidateConfidence(confidence Confidence) error {
	if confidence < ConfidenceHigh || confidence > ConfidenceLow {
		return fmt.Errorf("%w: value %d", ErrInvalidConfidence, confidence)
	}
	return nil
}

// ValidateScore validates that a similarity score lies in [0,1].
func ValidateScore(score float64) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: value %g", ErrScoreOutOfRange, score)
	}
	return nil
}
