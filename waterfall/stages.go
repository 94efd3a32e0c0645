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
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/refmatch"
)

// Stage names as they appear in Advice.Stage and in audit trails.
const (
	StageAdminHygiene      = "admin-hygiene"
	StageMultiPatternGuard = "multi-pattern-guard"
	StageClauseLibrary     = "clause-library"
	StageConditions        = "conditions"
	StageFallback          = "fallback-heuristics"
	StageManualReview      = "manual-review"
)

// candidate is the per-cluster view the stages evaluate.
type candidate struct {
	cluster *core.Cluster
	raw     string // leader raw text
	text    string // leader comparison-grade text
	length  int    // length of text in runes
}

// stage evaluates one rule of the cascade. A nil advice means fall
// through; the note is appended to the audit trail either way.
type stage interface {
	name() string
	evaluate(ctx context.Context, cand *candidate) (advice *core.Advice, note string)
}

// placeholderTexts are administrative non-clauses that show up in
// policy exports. Matched after comparison-grade normalization.
var placeholderTexts = map[string]struct{}{
	"n.v.t.":           {},
	"n.v.t":            {},
	"nvt":              {},
	"-":                {},
	"p.m.":             {},
	"pm":               {},
	"zie polis":        {},
	"zie polisblad":    {},
	"zie voorwaarden":  {},
	"vervallen":        {},
	"vervallen clause": {},
}

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// adminHygiene weeds out administrative noise: empty texts,
// placeholders, clauses anchored on long-expired dates, and corrupted
// exports. Hygiene hits are terminal with high confidence.
type adminHygiene struct {
	thresholds Thresholds
}

func (s *adminHygiene) name() string { return StageAdminHygiene }

func (s *adminHygiene) evaluate(_ context.Context, cand *candidate) (*core.Advice, string) {
	if cand.text == "" {
		return advice(cand, s.name(), core.ActionRemove, core.ConfidenceHigh), "empty text"
	}

	if _, ok := placeholderTexts[cand.text]; ok {
		return advice(cand, s.name(), core.ActionRemove, core.ConfidenceHigh),
			fmt.Sprintf("placeholder text %q", cand.text)
	}

	if year, stale := s.staleYear(cand.text); stale {
		return advice(cand, s.name(), core.ActionRemove, core.ConfidenceHigh),
			fmt.Sprintf("stale date: latest year %d predates %d", year, s.thresholds.StaleYearBefore)
	}

	if corrupted(cand.raw) {
		return advice(cand, s.name(), core.ActionManualReview, core.ConfidenceHigh),
			"corrupted text"
	}

	return nil, "clean"
}

// staleYear reports whether the text mentions years at all and the
// most recent one predates the configured cutoff.
func (s *adminHygiene) staleYear(text string) (int, bool) {
	latest := 0
	for _, m := range yearPattern.FindAllString(text, -1) {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if year > latest {
			latest = year
		}
	}
	return latest, latest > 0 && latest < s.thresholds.StaleYearBefore
}

// corrupted reports whether the raw text looks like a broken export:
// replacement runes from a bad decode, or mostly non-textual content.
func corrupted(raw string) bool {
	if strings.ContainsRune(raw, utf8.RuneError) {
		return true
	}

	total, textual := 0, 0
	for _, r := range raw {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			textual++
		}
	}
	if total < 20 {
		return false
	}
	return float64(textual)/float64(total) < 0.6
}

// referenceCodePattern matches embedded clause-code tokens such as
// "VP 523" or "BRA-2104" in the raw text.
var referenceCodePattern = regexp.MustCompile(`\b[A-Z]{2,5}[ -]?\d{2,4}\b`)

// multiPatternGuard stops compound clauses before any matcher can
// latch onto one of their halves. A long text carrying two or more
// distinct clause codes is almost always several clauses pasted
// together; splitting is a human call.
type multiPatternGuard struct {
	thresholds Thresholds
}

func (s *multiPatternGuard) name() string { return StageMultiPatternGuard }

func (s *multiPatternGuard) evaluate(_ context.Context, cand *candidate) (*core.Advice, string) {
	codes := distinctCodes(cand.raw)
	if len(codes) >= 2 && cand.length >= s.thresholds.GuardMinLength {
		return advice(cand, s.name(), core.ActionManualSplit, core.ConfidenceHigh),
			fmt.Sprintf("%d distinct clause codes (%s) in %d runes", len(codes), strings.Join(codes, ", "), cand.length)
	}
	return nil, fmt.Sprintf("codes=%d length=%d", len(codes), cand.length)
}

func distinctCodes(raw string) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0, 2)
	for _, m := range referenceCodePattern.FindAllString(raw, -1) {
		key := strings.Map(func(r rune) rune {
			if r == ' ' || r == '-' {
				return -1
			}
			return r
		}, m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		codes = append(codes, m)
	}
	return codes
}

// libraryMatch scores the leader against the canonical clause library.
type libraryMatch struct {
	matcher    *refmatch.Matcher
	thresholds Thresholds
}

func (s *libraryMatch) name() string { return StageClauseLibrary }

func (s *libraryMatch) evaluate(ctx context.Context, cand *candidate) (*core.Advice, string) {
	if s.matcher == nil || s.matcher.Size() == 0 {
		return nil, "no corpus"
	}

	match := s.matcher.BestMatch(ctx, cand.raw)
	if match.Section == nil {
		return nil, "no match"
	}

	score := match.Breakdown.FinalScore
	switch {
	case score >= s.thresholds.LibraryHigh:
		a := advice(cand, s.name(), core.ActionReplaceWithCode, core.ConfidenceHigh)
		a.Reference = match.Section
		return a, fmt.Sprintf("score %.3f ≥ %.2f against %s", score, s.thresholds.LibraryHigh, match.Section.Title)
	case score >= s.thresholds.LibraryMid:
		a := advice(cand, s.name(), core.ActionVerifySimilarity, core.ConfidenceMedium)
		a.Reference = match.Section
		return a, fmt.Sprintf("score %.3f in [%.2f, %.2f) against %s", score, s.thresholds.LibraryMid, s.thresholds.LibraryHigh, match.Section.Title)
	default:
		return nil, fmt.Sprintf("best score %.3f below %.2f", score, s.thresholds.LibraryMid)
	}
}

// conditionsMatch scores the leader against the parsed policy
// conditions. Sub-checks run in order and the first hit terminates:
// exact substring, composite-score banding, fragment decomposition.
type conditionsMatch struct {
	matcher    *refmatch.Matcher
	thresholds Thresholds
}

func (s *conditionsMatch) name() string { return StageConditions }

func (s *conditionsMatch) evaluate(ctx context.Context, cand *candidate) (*core.Advice, string) {
	if s.matcher == nil || s.matcher.Size() == 0 {
		return nil, "no corpus"
	}

	match := s.matcher.BestMatch(ctx, cand.raw)

	if match.ExactSubstring {
		a := advice(cand, s.name(), core.ActionRemove, core.ConfidenceHigh)
		a.Reference = match.Section
		return a, "verbatim in conditions"
	}

	score := match.Breakdown.FinalScore
	switch {
	case score >= s.thresholds.ConditionsHigh:
		a := advice(cand, s.name(), core.ActionRemove, core.ConfidenceHigh)
		a.Reference = match.Section
		return a, fmt.Sprintf("score %.3f ≥ %.2f", score, s.thresholds.ConditionsHigh)
	case score >= s.thresholds.ConditionsMedium:
		a := advice(cand, s.name(), core.ActionRemove, core.ConfidenceMedium)
		a.Reference = match.Section
		return a, fmt.Sprintf("score %.3f in [%.2f, %.2f)", score, s.thresholds.ConditionsMedium, s.thresholds.ConditionsHigh)
	case score >= s.thresholds.ConditionsLow:
		a := advice(cand, s.name(), core.ActionManualReview, core.ConfidenceLow)
		a.Reference = match.Section
		return a, fmt.Sprintf("score %.3f in [%.2f, %.2f)", score, s.thresholds.ConditionsLow, s.thresholds.ConditionsMedium)
	}

	if match.FragmentFraction > s.thresholds.FragmentFraction {
		a := advice(cand, s.name(), core.ActionRemove, core.ConfidenceMedium)
		a.Reference = match.Section
		return a, fmt.Sprintf("%.0f%% of sentences found verbatim in conditions", match.FragmentFraction*100)
	}

	return nil, fmt.Sprintf("score %.3f fragments %.2f below all bands", score, match.FragmentFraction)
}

// fallbackHeuristics covers clusters no matcher could place: a
// keyword-rule table, then a frequency rule, then a length rule, then
// a uniqueness rule.
type fallbackHeuristics struct {
	rules      []KeywordRule
	thresholds Thresholds
}

func (s *fallbackHeuristics) name() string { return StageFallback }

func (s *fallbackHeuristics) evaluate(_ context.Context, cand *candidate) (*core.Advice, string) {
	for _, rule := range s.rules {
		if !matchesKeywords(cand.text, rule.Keywords) {
			continue
		}
		a := advice(cand, s.name(), rule.Action, rule.Confidence)
		note := fmt.Sprintf("keyword rule %q", rule.Name)
		if rule.Reason != "" {
			note += ": " + rule.Reason
		}
		return a, note
	}

	frequency := cand.cluster.Frequency()
	if frequency >= s.thresholds.MinFrequency {
		return advice(cand, s.name(), core.ActionStandardize, core.ConfidenceMedium),
			fmt.Sprintf("frequency %d ≥ %d, standardization candidate", frequency, s.thresholds.MinFrequency)
	}

	if cand.length > s.thresholds.MaxClauseLength {
		return advice(cand, s.name(), core.ActionManualSplit, core.ConfidenceLow),
			fmt.Sprintf("length %d > %d, review for splitting", cand.length, s.thresholds.MaxClauseLength)
	}

	if frequency == 1 {
		return advice(cand, s.name(), core.ActionConsistencyCheck, core.ConfidenceLow),
			"unique clause"
	}

	return nil, fmt.Sprintf("frequency %d, no rule fired", frequency)
}

func matchesKeywords(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if !strings.Contains(text, keyword) {
			return false
		}
	}
	return len(keywords) > 0
}

// manualReview is the terminal default. Always fires.
type manualReview struct{}

func (s *manualReview) name() string { return StageManualReview }

func (s *manualReview) evaluate(_ context.Context, cand *candidate) (*core.Advice, string) {
	return advice(cand, s.name(), core.ActionManualReview, core.ConfidenceLow), "no earlier stage fired"
}

func advice(cand *candidate, stage string, action core.Action, confidence core.Confidence) *core.Advice {
	return &core.Advice{
		ClusterId:  cand.cluster.Id,
		Action:     action,
		Confidence: confidence,
		Stage:      stage,
	}
}
