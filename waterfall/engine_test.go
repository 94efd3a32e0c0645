package waterfall

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
	"github.com/veridia/clausewise/refmatch"
	"github.com/veridia/clausewise/similarity"
)

func newTestEngine(t *testing.T, library, conditions *refmatch.Matcher, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(library, conditions, normalize.New(), opts...)
	require.NoError(t, err)
	return engine
}

func newMatcher(t *testing.T, name string, texts ...string) *refmatch.Matcher {
	t.Helper()
	n := normalize.New()

	simEngine, err := similarity.NewEngine(n, map[core.SignalKind]float64{
		core.SignalLiteral: 0.6,
		core.SignalKeyword: 0.4,
	})
	require.NoError(t, err)

	sections := make([]*core.ReferenceSection, len(texts))
	for i, text := range texts {
		sections[i] = &core.ReferenceSection{
			Id:             core.IDFromContent(fmt.Sprintf("%s-%d", name, i)),
			Title:          fmt.Sprintf("%s %d", name, i+1),
			NormalizedText: n.Comparison(text),
			SourceDocument: name + ".pdf",
			Position:       i,
		}
	}

	matcher, err := refmatch.NewMatcher(name, sections, simEngine, n)
	require.NoError(t, err)
	return matcher
}

// makeCluster builds a cluster whose leader has the given raw text and
// whose frequency is the given member count.
func makeCluster(id, frequency int, raw string) *core.Cluster {
	n := normalize.New()
	normalized := n.Comparison(raw)

	leader := &core.Clause{
		Id:             core.IDFromContent(fmt.Sprintf("leader-%d", id)),
		RawText:        raw,
		NormalizedText: normalized,
		Length:         len([]rune(normalized)),
	}

	members := make([]core.ID, frequency)
	for i := range members {
		members[i] = core.IDFromContent(fmt.Sprintf("member-%d-%d", id, i))
	}

	return &core.Cluster{Id: id, Leader: leader, MemberIds: members}
}

func TestDecide_AdminHygiene(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	t.Run("empty text", func(t *testing.T) {
		advice, err := engine.Decide(context.Background(), makeCluster(1, 1, "   "))
		require.NoError(t, err)
		assert.Equal(t, core.ActionRemove, advice.Action)
		assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
		assert.Equal(t, StageAdminHygiene, advice.Stage)
	})

	t.Run("placeholder", func(t *testing.T) {
		advice, err := engine.Decide(context.Background(), makeCluster(2, 3, "N.v.t."))
		require.NoError(t, err)
		assert.Equal(t, core.ActionRemove, advice.Action)
		assert.Equal(t, StageAdminHygiene, advice.Stage)
		assert.Contains(t, advice.Reason, "placeholder")
	})

	t.Run("stale date", func(t *testing.T) {
		advice, err := engine.Decide(context.Background(),
			makeCluster(3, 1, "Deze clausule geldt uitsluitend voor polissen afgesloten vóór 1 januari 2009."))
		require.NoError(t, err)
		assert.Equal(t, core.ActionRemove, advice.Action)
		assert.Equal(t, StageAdminHygiene, advice.Stage)
		assert.Contains(t, advice.Reason, "stale date")
	})

	t.Run("recent date passes", func(t *testing.T) {
		advice, err := engine.Decide(context.Background(),
			makeCluster(4, 1, "Deze clausule geldt voor polissen afgesloten vanaf 1 januari 2024."))
		require.NoError(t, err)
		assert.NotEqual(t, StageAdminHygiene, advice.Stage)
	})

	t.Run("corrupted text", func(t *testing.T) {
		advice, err := engine.Decide(context.Background(),
			makeCluster(5, 1, "�� dekking geldt voor schade door storm"))
		require.NoError(t, err)
		assert.Equal(t, core.ActionManualReview, advice.Action)
		assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
		assert.Equal(t, StageAdminHygiene, advice.Stage)
	})
}

func TestDecide_MultiPatternGuard(t *testing.T) {
	// Scenario: a long compound clause with two distinct clause codes
	// must route to manual splitting even though its text sits verbatim
	// in the conditions corpus.
	sentence := "De verzekering dekt schade aan de woning door brand bliksem ontploffing en storm inclusief gevolgschade. "
	raw := "Conform VP 523 geldt het volgende. " + strings.Repeat(sentence, 9) + "Daarnaast is BRA-2104 van toepassing."

	conditions := newMatcher(t, "conditions", raw)
	engine := newTestEngine(t, nil, conditions)

	advice, err := engine.Decide(context.Background(), makeCluster(1, 2, raw))
	require.NoError(t, err)

	assert.Equal(t, core.ActionManualSplit, advice.Action)
	assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
	assert.Equal(t, StageMultiPatternGuard, advice.Stage)
	assert.Contains(t, advice.Reason, "VP 523")
	assert.Contains(t, advice.Reason, "BRA-2104")
}

func TestDecide_MultiPatternGuard_ShortClausePasses(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	// Two codes but far below the guard length threshold.
	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 1, "Zie VP 523 en BRA-2104 voor de volledige dekkingsomschrijving van deze polis."))
	require.NoError(t, err)
	assert.NotEqual(t, StageMultiPatternGuard, advice.Stage)
}

func TestDecide_ClauseLibraryMatch(t *testing.T) {
	library := newMatcher(t, "library",
		"Meeverzekerd is schade door storm en hagel aan de woning en de bijgebouwen.",
	)

	t.Run("high band replaces with code", func(t *testing.T) {
		thresholds := DefaultThresholds()
		thresholds.LibraryHigh = 0.60
		thresholds.LibraryMid = 0.40

		engine := newTestEngine(t, library, nil, WithThresholds(thresholds))
		advice, err := engine.Decide(context.Background(),
			makeCluster(1, 2, "Meeverzekerd is schade door storm en bliksem aan de woning en de bijgebouwen."))
		require.NoError(t, err)

		assert.Equal(t, core.ActionReplaceWithCode, advice.Action)
		assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
		assert.Equal(t, StageClauseLibrary, advice.Stage)
		require.NotNil(t, advice.Reference)
		assert.Equal(t, "library 1", advice.Reference.Title)
	})

	t.Run("mid band asks for verification", func(t *testing.T) {
		thresholds := DefaultThresholds()
		thresholds.LibraryHigh = 0.99
		thresholds.LibraryMid = 0.40

		engine := newTestEngine(t, library, nil, WithThresholds(thresholds))
		advice, err := engine.Decide(context.Background(),
			makeCluster(2, 2, "Meeverzekerd is schade door storm en bliksem aan de woning en de bijgebouwen."))
		require.NoError(t, err)

		assert.Equal(t, core.ActionVerifySimilarity, advice.Action)
		assert.Equal(t, core.ConfidenceMedium, advice.Confidence)
		assert.Equal(t, StageClauseLibrary, advice.Stage)
	})
}

func TestDecide_ConditionsExactSubstring(t *testing.T) {
	// Scenario: a clause found verbatim in the conditions corpus must be
	// removed with high confidence via the exact-substring path.
	clause := "Meeverzekerd is schade door storm aan de woning en de bijgebouwen."
	conditions := newMatcher(t, "conditions",
		"Gedekt is schade door brand. "+clause+" De premie is per jaar verschuldigd.",
	)

	engine := newTestEngine(t, nil, conditions)
	advice, err := engine.Decide(context.Background(), makeCluster(1, 3, clause))
	require.NoError(t, err)

	assert.Equal(t, core.ActionRemove, advice.Action)
	assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
	assert.Equal(t, StageConditions, advice.Stage)
	assert.Contains(t, advice.Reason, "verbatim")
}

func TestDecide_ConditionsScoreBands(t *testing.T) {
	conditions := newMatcher(t, "conditions",
		"Meeverzekerd is schade door storm en hagel aan de woning.",
	)

	t.Run("low band routes to manual review", func(t *testing.T) {
		thresholds := DefaultThresholds()
		thresholds.ConditionsHigh = 0.98
		thresholds.ConditionsMedium = 0.97
		thresholds.ConditionsLow = 0.40

		engine := newTestEngine(t, nil, conditions, WithThresholds(thresholds))
		advice, err := engine.Decide(context.Background(),
			makeCluster(1, 2, "Meeverzekerd is schade door storm en bliksem aan de woning."))
		require.NoError(t, err)

		assert.Equal(t, core.ActionManualReview, advice.Action)
		assert.Equal(t, core.ConfidenceLow, advice.Confidence)
		assert.Equal(t, StageConditions, advice.Stage)
	})
}

func TestDecide_ConditionsFragmentFraction(t *testing.T) {
	conditions := newMatcher(t, "conditions",
		"Gedekt is schade door brand en blikseminslag aan de verzekerde woning.",
		"Meeverzekerd is schade door storm en hagel aan de bijgebouwen van de woning.",
	)

	// Both sentences occur verbatim in different sections, so neither a
	// whole-query substring nor a single high-scoring section exists,
	// but the fragment fraction is 100%.
	raw := "Gedekt is schade door brand en blikseminslag aan de verzekerde woning. " +
		"Meeverzekerd is schade door storm en hagel aan de bijgebouwen van de woning."

	thresholds := DefaultThresholds()
	thresholds.ConditionsHigh = 0.99
	thresholds.ConditionsMedium = 0.985
	thresholds.ConditionsLow = 0.98

	engine := newTestEngine(t, nil, conditions, WithThresholds(thresholds))
	advice, err := engine.Decide(context.Background(), makeCluster(1, 2, raw))
	require.NoError(t, err)

	assert.Equal(t, core.ActionRemove, advice.Action)
	assert.Equal(t, StageConditions, advice.Stage)
	assert.Contains(t, advice.Reason, "sentences found verbatim")
}

func TestDecide_FallbackFrequency(t *testing.T) {
	// Scenario: frequency 25, no library, conditions or keyword match.
	engine := newTestEngine(t, nil, nil)

	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 25, "Aanvullend is meeverzekerd de schade aan zonweringen en antennes."))
	require.NoError(t, err)

	assert.Equal(t, core.ActionStandardize, advice.Action)
	assert.Equal(t, core.ConfidenceMedium, advice.Confidence)
	assert.Equal(t, StageFallback, advice.Stage)
	assert.Contains(t, advice.Reason, "frequency 25")
}

func TestDecide_FallbackKeywordRule(t *testing.T) {
	rules := []KeywordRule{
		{
			Name:       "terrorism-pool",
			Keywords:   []string{"terrorisme"},
			Action:     core.ActionKeep,
			Confidence: core.ConfidenceHigh,
			Reason:     "mandatory pool clause",
		},
	}

	engine := newTestEngine(t, nil, nil, WithKeywordRules(rules))
	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 25, "Schade door terrorisme is verzekerd conform het protocol van de NHT."))
	require.NoError(t, err)

	assert.Equal(t, core.ActionKeep, advice.Action)
	assert.Equal(t, core.ConfidenceHigh, advice.Confidence)
	assert.Contains(t, advice.Reason, "terrorism-pool")
	assert.Contains(t, advice.Reason, "mandatory pool clause")
}

func TestDecide_FallbackLongClause(t *testing.T) {
	sentence := "de dekking omvat tevens de kosten van opruiming en herstel na een gedekte gebeurtenis. "
	raw := strings.Repeat(sentence, 9)

	engine := newTestEngine(t, nil, nil)
	advice, err := engine.Decide(context.Background(), makeCluster(1, 3, raw))
	require.NoError(t, err)

	assert.Equal(t, core.ActionManualSplit, advice.Action)
	assert.Equal(t, core.ConfidenceLow, advice.Confidence)
	assert.Equal(t, StageFallback, advice.Stage)
}

func TestDecide_FallbackUniqueClause(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 1, "Aanvullend is meeverzekerd de schade aan zonweringen en antennes."))
	require.NoError(t, err)

	assert.Equal(t, core.ActionConsistencyCheck, advice.Action)
	assert.Equal(t, StageFallback, advice.Stage)
}

func TestDecide_ManualReviewDefault(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	// Frequency 2: not unique, not frequent, not long, no match anywhere.
	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 2, "Aanvullend is meeverzekerd de schade aan zonweringen en antennes."))
	require.NoError(t, err)

	assert.Equal(t, core.ActionManualReview, advice.Action)
	assert.Equal(t, core.ConfidenceLow, advice.Confidence)
	assert.Equal(t, StageManualReview, advice.Stage)
}

func TestDecide_ReasonCarriesFullTrail(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	advice, err := engine.Decide(context.Background(),
		makeCluster(1, 25, "Aanvullend is meeverzekerd de schade aan zonweringen en antennes."))
	require.NoError(t, err)

	assert.Contains(t, advice.Reason, StageAdminHygiene+": clean")
	assert.Contains(t, advice.Reason, StageMultiPatternGuard+":")
	assert.Contains(t, advice.Reason, StageClauseLibrary+": no corpus")
	assert.Contains(t, advice.Reason, StageConditions+": no corpus")
	assert.Contains(t, advice.Reason, StageFallback+":")
}

func TestDecide_Deterministic(t *testing.T) {
	conditions := newMatcher(t, "conditions",
		"Meeverzekerd is schade door storm en hagel aan de woning.",
		"Uitgesloten is schade door opzet of grove schuld van de verzekerde.",
	)
	engine := newTestEngine(t, nil, conditions)
	cluster := makeCluster(1, 4, "Meeverzekerd is schade door storm en bliksem aan de woning.")

	first, err := engine.Decide(context.Background(), cluster)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Decide(context.Background(), cluster)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDecide_NilCluster(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Decide(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilCluster)

	_, err = engine.Decide(context.Background(), &core.Cluster{Id: 1})
	assert.ErrorIs(t, err, ErrNilCluster)
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
		want   error
	}{
		{"defaults", func(t *Thresholds) {}, nil},
		{"score above one", func(t *Thresholds) { t.LibraryHigh = 1.2 }, ErrInvalidThreshold},
		{"library bands inverted", func(t *Thresholds) { t.LibraryMid = 0.95 }, ErrBandOrder},
		{"conditions bands inverted", func(t *Thresholds) { t.ConditionsLow = 0.85 }, ErrBandOrder},
		{"zero frequency", func(t *Thresholds) { t.MinFrequency = 0 }, ErrInvalidFrequency},
		{"zero guard length", func(t *Thresholds) { t.GuardMinLength = 0 }, ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds := DefaultThresholds()
			tt.mutate(&thresholds)
			err := thresholds.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestKeywordRule_Validate(t *testing.T) {
	valid := KeywordRule{Name: "x", Keywords: []string{"a"}, Action: core.ActionKeep, Confidence: core.ConfidenceHigh}
	assert.NoError(t, valid.Validate())

	noKeywords := valid
	noKeywords.Keywords = nil
	assert.ErrorIs(t, noKeywords.Validate(), ErrInvalidKeywordRule)

	badAction := valid
	badAction.Action = 0
	assert.ErrorIs(t, badAction.Validate(), ErrInvalidKeywordRule)
}
