package services

import (
	"testing"

	"rex-retrieval/internal/index"

	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T, records []index.CorpusRecord) *index.Index {
	t.Helper()
	return index.Build(records)
}

func TestRetrieve_TopKBoundAndOrdering(t *testing.T) {
	ix := buildTestIndex(t, []index.CorpusRecord{
		{ID: "a", Text: "water storage water containers water"},
		{ID: "b", Text: "water storage basics"},
		{ID: "c", Text: "knots and rope work"},
		{ID: "d", Text: "fire starting with flint"},
	})
	r := NewRetriever(ix)

	got := r.Retrieve("water storage", 2)
	require.Len(t, got, 2)
	require.GreaterOrEqual(t, got[0].LexicalScore, got[1].LexicalScore)

	// topK larger than the corpus returns everything.
	got = r.Retrieve("water storage", 100)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i-1].LexicalScore, got[i].LexicalScore)
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	ix := buildTestIndex(t, []index.CorpusRecord{
		{ID: "a", Text: "store water in clean containers"},
		{ID: "b", Text: "rotate stored water regularly"},
		{ID: "c", Text: "water filters and purification"},
		{ID: "d", Text: "tie a bowline knot"},
	})
	r := NewRetriever(ix)

	first := r.Retrieve("how do I store water", 3)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, r.Retrieve("how do I store water", 3))
	}
}

func TestRetrieve_TiesKeepCorpusOrder(t *testing.T) {
	// Identical texts force identical scores; corpus order must decide.
	ix := buildTestIndex(t, []index.CorpusRecord{
		{ID: "first", Text: "identical survival text"},
		{ID: "second", Text: "identical survival text"},
		{ID: "third", Text: "identical survival text"},
	})
	r := NewRetriever(ix)

	got := r.Retrieve("survival", 3)
	require.Equal(t, "first", got[0].Chunk.ID)
	require.Equal(t, "second", got[1].Chunk.ID)
	require.Equal(t, "third", got[2].Chunk.ID)
}

func TestRetrieve_NoMatchesStillReturns(t *testing.T) {
	ix := buildTestIndex(t, []index.CorpusRecord{
		{ID: "a", Text: "store water in clean containers"},
		{ID: "b", Text: "tie a bowline knot"},
	})
	r := NewRetriever(ix)

	got := r.Retrieve("unrelated nonsense phrase", 2)
	require.Len(t, got, 2)
	require.Zero(t, got[0].LexicalScore)
	require.Zero(t, got[1].LexicalScore)
	// Zero-score ties fall back to corpus order.
	require.Equal(t, "a", got[0].Chunk.ID)
}

func TestRetrieve_InvalidInputs(t *testing.T) {
	ix := buildTestIndex(t, []index.CorpusRecord{{ID: "a", Text: "water"}})
	r := NewRetriever(ix)

	require.Nil(t, r.Retrieve("water", 0))
	require.Nil(t, NewRetriever(nil).Retrieve("water", 5))
}

func TestRetrieve_WaterStorageScenario(t *testing.T) {
	ix := buildTestIndex(t, []index.CorpusRecord{
		{ID: "a", Text: "store water in clean containers"},
		{ID: "b", Text: "tie a bowline knot"},
	})
	r := NewRetriever(ix)

	got := r.Retrieve("how do I store water", 2)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].Chunk.ID)
	require.Greater(t, got[0].LexicalScore, 0.0)
	require.Greater(t, got[0].LexicalScore, got[1].LexicalScore)
}
