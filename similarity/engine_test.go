package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridia/clausewise/ai/mock"
	"github.com/veridia/clausewise/core"
	"github.com/veridia/clausewise/normalize"
)

// fullWeights is a five-signal configuration summing to exactly 1.0.
func fullWeights() map[core.SignalKind]float64 {
	return map[core.SignalKind]float64{
		core.SignalLiteral:  0.30,
		core.SignalLexical:  0.20,
		core.SignalKeyword:  0.20,
		core.SignalSynonym:  0.10,
		core.SignalSemantic: 0.20,
	}
}

func TestNewEngine(t *testing.T) {
	n := normalize.New()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(n, fullWeights())
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("nil normalizer", func(t *testing.T) {
		_, err := NewEngine(nil, fullWeights())
		assert.Equal(t, ErrNormalizerRequired, err)
	})

	t.Run("empty weights", func(t *testing.T) {
		_, err := NewEngine(n, nil)
		assert.Equal(t, ErrNoWeights, err)
	})

	t.Run("weights not summing to one", func(t *testing.T) {
		_, err := NewEngine(n, map[core.SignalKind]float64{
			core.SignalLiteral: 0.5,
			core.SignalLexical: 0.4,
		})
		assert.ErrorIs(t, err, ErrWeightSum)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := NewEngine(n, map[core.SignalKind]float64{
			core.SignalLiteral: 1.5,
			core.SignalLexical: -0.5,
		})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})

	t.Run("unknown signal", func(t *testing.T) {
		_, err := NewEngine(n, map[core.SignalKind]float64{
			core.SignalKind(42): 1.0,
		})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})
}

func TestEngine_Availability(t *testing.T) {
	n := normalize.New()

	t.Run("semantic unavailable without embedder", func(t *testing.T) {
		engine, err := NewEngine(n, fullWeights())
		require.NoError(t, err)

		assert.False(t, engine.Available(core.SignalSemantic))
		assert.NotContains(t, engine.AvailableSignals(), core.SignalSemantic)
	})

	t.Run("semantic available with embedder", func(t *testing.T) {
		engine, err := NewEngine(n, fullWeights(), WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)

		assert.True(t, engine.Available(core.SignalSemantic))
	})

	t.Run("zero weight disables a signal", func(t *testing.T) {
		engine, err := NewEngine(n, map[core.SignalKind]float64{
			core.SignalLiteral: 1.0,
			core.SignalLexical: 0.0,
		})
		require.NoError(t, err)

		assert.False(t, engine.Available(core.SignalLexical))
		assert.Equal(t, []core.SignalKind{core.SignalLiteral}, engine.AvailableSignals())
	})
}

func TestScore_SingleSignalReturnsRawScore(t *testing.T) {
	n := normalize.New()
	engine, err := NewEngine(n, map[core.SignalKind]float64{core.SignalLiteral: 1.0})
	require.NoError(t, err)

	a := "dekking geldt voor schade door storm"
	b := "dekking geldt voor schade door brand en storm"

	breakdown := engine.Score(context.Background(), a, b)
	raw := engine.LiteralRatio(a, b)

	assert.InDelta(t, raw, breakdown.FinalScore, 1e-9,
		"single available signal must return its raw score unmodified")
	assert.InDelta(t, 1.0, breakdown.WeightsUsed[core.SignalLiteral], 1e-9)
}

func TestScore_ShortCircuit(t *testing.T) {
	n := normalize.New()
	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(n, fullWeights(), WithEmbedder(embedder))
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("identical texts exit high", func(t *testing.T) {
		embedder.Reset()
		breakdown := engine.Score(ctx, "schade door storm", "schade door storm")

		assert.True(t, breakdown.ShortCircuited)
		assert.InDelta(t, 1.0, breakdown.FinalScore, 1e-9)
		assert.Len(t, breakdown.SignalScores, 1)
		assert.Equal(t, 0, embedder.CallCount(), "expensive signals must be skipped")
	})

	t.Run("unrelated texts exit low", func(t *testing.T) {
		embedder.Reset()
		breakdown := engine.Score(ctx, "aansprakelijkheid van de verzekeraar", "qqqq zzzz xxxx")

		assert.True(t, breakdown.ShortCircuited)
		assert.Less(t, breakdown.FinalScore, 0.5)
		assert.Equal(t, 0, embedder.CallCount())
	})

	t.Run("short-circuited composite equals raw literal", func(t *testing.T) {
		a, b := "schade door storm", "schade door storm"
		breakdown := engine.Score(ctx, a, b)
		assert.InDelta(t, engine.LiteralRatio(a, b), breakdown.FinalScore, 1e-9)
	})
}

func TestScore_UndecidedBandGatesSemanticSignal(t *testing.T) {
	n := normalize.New()

	a := "dekking geldt voor schade door storm"
	b := "dekking geldt voor schade door brand en storm"

	t.Run("band covering all scores invokes embedder", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		engine, err := NewEngine(n, fullWeights(),
			WithEmbedder(embedder),
			WithUndecidedBand(0.0, 1.0))
		require.NoError(t, err)

		breakdown := engine.Score(context.Background(), a, b)
		require.False(t, breakdown.ShortCircuited)
		assert.Positive(t, embedder.CallCount())
		assert.Contains(t, breakdown.SignalScores, core.SignalSemantic)
	})

	t.Run("band excluding the running composite skips embedder", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		engine, err := NewEngine(n, fullWeights(),
			WithEmbedder(embedder),
			WithUndecidedBand(0.9999, 1.0))
		require.NoError(t, err)

		breakdown := engine.Score(context.Background(), a, b)
		require.False(t, breakdown.ShortCircuited)
		assert.Equal(t, 0, embedder.CallCount())
		assert.NotContains(t, breakdown.SignalScores, core.SignalSemantic)
	})
}

func TestScore_RenormalizationOverAvailableSubset(t *testing.T) {
	n := normalize.New()

	a := "dekking geldt voor schade door storm"
	b := "dekking geldt voor schade door brand en storm"

	withSemantic, err := NewEngine(n, fullWeights(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithUndecidedBand(0.0, 1.0))
	require.NoError(t, err)

	withoutSemantic, err := NewEngine(n, fullWeights())
	require.NoError(t, err)

	full := withSemantic.Score(context.Background(), a, b)
	degraded := withoutSemantic.Score(context.Background(), a, b)

	require.Contains(t, full.SignalScores, core.SignalSemantic)
	require.NotContains(t, degraded.SignalScores, core.SignalSemantic)

	// The degraded composite must equal the renormalized average of the
	// four non-semantic signals from the full run, not a diluted score.
	weights := fullWeights()
	var weighted, weightSum float64
	for kind, score := range full.SignalScores {
		if kind == core.SignalSemantic {
			continue
		}
		weighted += weights[kind] * score
		weightSum += weights[kind]
	}
	expected := weighted / weightSum

	assert.InDelta(t, expected, degraded.FinalScore, 1e-9)

	var usedSum float64
	for _, w := range degraded.WeightsUsed {
		usedSum += w
	}
	assert.InDelta(t, 1.0, usedSum, 1e-9, "used weights must renormalize to 1.0")
}

func TestScore_EmbedderFailureDegradesGracefully(t *testing.T) {
	n := normalize.New()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model unavailable")
	}

	engine, err := NewEngine(n, fullWeights(),
		WithEmbedder(embedder),
		WithUndecidedBand(0.0, 1.0))
	require.NoError(t, err)

	a := "dekking geldt voor schade door storm"
	b := "dekking geldt voor schade door brand en storm"

	breakdown := engine.Score(context.Background(), a, b)

	assert.NotContains(t, breakdown.SignalScores, core.SignalSemantic)
	assert.NoError(t, core.ValidateScore(breakdown.FinalScore))

	var usedSum float64
	for _, w := range breakdown.WeightsUsed {
		usedSum += w
	}
	assert.InDelta(t, 1.0, usedSum, 1e-9)
}

func TestScore_FinalScoreAlwaysInRange(t *testing.T) {
	n := normalize.New()
	engine, err := NewEngine(n, fullWeights(), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)

	pairs := [][2]string{
		{"", ""},
		{"schade", ""},
		{"schade door storm", "schade door storm"},
		{"de premie bedraagt € 100", "de premie bedraagt € 200"},
		{"aansprakelijkheid", "qqqq zzzz"},
	}

	for _, pair := range pairs {
		breakdown := engine.Score(context.Background(), pair[0], pair[1])
		assert.NoError(t, core.ValidateScore(breakdown.FinalScore),
			"pair %q vs %q", pair[0], pair[1])
	}
}

func TestScore_Deterministic(t *testing.T) {
	n := normalize.New()
	engine, err := NewEngine(n, fullWeights(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithUndecidedBand(0.0, 1.0))
	require.NoError(t, err)

	a := "dekking geldt voor schade door storm"
	b := "dekking geldt voor schade door brand en storm"

	first := engine.Score(context.Background(), a, b)
	for i := 0; i < 5; i++ {
		again := engine.Score(context.Background(), a, b)
		assert.Equal(t, first, again)
	}
}
