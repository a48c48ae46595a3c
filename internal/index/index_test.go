package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	require.Equal(t, []string{"store", "water", "in", "clean", "containers"},
		Tokenize("Store  Water\tin clean\ncontainers"))
	require.Empty(t, Tokenize("   \t\n "))
	require.Empty(t, Tokenize(""))
}

func TestBuild_SkipsEmptyText(t *testing.T) {
	ix := Build([]CorpusRecord{
		{ID: "a", Text: "store water in clean containers"},
		{ID: "b", Text: "   "},
		{ID: "c", Text: ""},
		{ID: "d", Text: "tie a bowline knot"},
	})
	require.Equal(t, 2, ix.Count())
	require.Equal(t, "a", ix.Chunk(0).ID)
	require.Equal(t, "d", ix.Chunk(1).ID)
}

func TestBuild_AssignsMissingIDs(t *testing.T) {
	ix := Build([]CorpusRecord{
		{Text: "filter water with cloth and charcoal"},
		{Text: "signal for rescue with a mirror"},
	})
	require.Equal(t, 2, ix.Count())
	require.NotEmpty(t, ix.Chunk(0).ID)
	require.NotEmpty(t, ix.Chunk(1).ID)
	require.NotEqual(t, ix.Chunk(0).ID, ix.Chunk(1).ID)
}

func TestScores_UniqueTermScoresPositive(t *testing.T) {
	ix := Build([]CorpusRecord{
		{ID: "a", Text: "purify water by boiling"},
		{ID: "b", Text: "build a shelter from branches"},
		{ID: "c", Text: "navigate by the stars"},
	})

	scores := ix.Scores(Tokenize("boiling"))
	require.Greater(t, scores[0], 0.0)
	require.Zero(t, scores[1])
	require.Zero(t, scores[2])
}

func TestScores_NoMatchIsZeroNotError(t *testing.T) {
	ix := Build([]CorpusRecord{
		{ID: "a", Text: "store water in clean containers"},
	})
	scores := ix.Scores(Tokenize("quantum chromodynamics"))
	require.Equal(t, []float64{0}, scores)

	scores = ix.Scores(nil)
	require.Equal(t, []float64{0}, scores)
}

func TestScores_Deterministic(t *testing.T) {
	records := []CorpusRecord{
		{ID: "a", Text: "store water in clean containers before an emergency"},
		{ID: "b", Text: "rotate stored water every six months"},
		{ID: "c", Text: "water purification tablets and filters"},
		{ID: "d", Text: "tie a bowline knot around a tree"},
	}
	ix := Build(records)

	tokens := Tokenize("how do I store water")
	first := ix.Scores(tokens)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, ix.Scores(tokens))
	}
}

func TestScores_LengthNormalization(t *testing.T) {
	// Same term frequency, shorter doc should score at least as high.
	ix := Build([]CorpusRecord{
		{ID: "short", Text: "water storage"},
		{ID: "long", Text: "water storage is a thing people talk about at length without saying much"},
	})
	scores := ix.Scores(Tokenize("water"))
	require.GreaterOrEqual(t, scores[0], scores[1])
	require.Greater(t, scores[1], 0.0)
}

func TestBuild_EmptyCorpus(t *testing.T) {
	ix := Build(nil)
	require.Zero(t, ix.Count())
	require.Empty(t, ix.Scores(Tokenize("anything")))
}
