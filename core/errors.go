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

import "errors"

// Domain validation errors
var (
	// ErrInvalidClause indicates a Clause failed validation.
	ErrInvalidClause = errors.New("invalid clause")

	// ErrInvalidAdvice indicates an Advice failed validation.
	ErrInvalidAdvice = errors.New("invalid advice")

	// ErrEmptyText indicates the RawText field is empty.
	ErrEmptyText = errors.New("clause text cannot be empty")

	// ErrInvalidAction indicates an Action value outside the closed enum.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidConfidence indicates a Confidence value outside the closed enum.
	ErrInvalidConfidence = errors.New("invalid confidence")

	// ErrScoreOutOfRange indicates a similarity score outside [0,1].
	ErrScoreOutOfRange = errors.New("score must be between 0 and 1")

	// ErrInvalidSection indicates a ReferenceSection failed validation.
	ErrInvalidSection = errors.New("invalid reference section")

	// ErrEmptySectionText indicates a reference section with no text.
	ErrEmptySectionText = errors.New("reference section text cannot be empty")
)
