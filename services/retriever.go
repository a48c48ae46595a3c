package services

import (
	"sort"

	"rex-retrieval/internal/index"
)

// ScoredCandidate is one retrieved chunk with its per-stage scores. Lexical
// and rerank scores live on different scales and are never compared or
// summed; rerank order replaces lexical order outright.
type ScoredCandidate struct {
	Chunk        index.Chunk
	LexicalScore float64
	RerankScore  float64
	Reranked     bool

	// pos is the chunk's corpus position, the stable secondary sort key.
	pos int
}

// Retriever performs first-stage BM25 retrieval over a shared read-only
// index. It holds no mutable state and is safe for concurrent use.
type Retriever struct {
	idx *index.Index
}

func NewRetriever(ix *index.Index) *Retriever {
	return &Retriever{idx: ix}
}

// Retrieve scores every chunk against the query and returns the topK best,
// ordered by lexical score descending with ties broken by corpus order.
// Identical (query, index) pairs always produce identical output, including
// tie order. A query matching nothing returns zero-scored candidates rather
// than an error.
func (r *Retriever) Retrieve(query string, topK int) []ScoredCandidate {
	if r == nil || r.idx == nil || topK < 1 {
		return nil
	}

	scores := r.idx.Scores(index.Tokenize(query))
	candidates := make([]ScoredCandidate, len(scores))
	for i, s := range scores {
		candidates[i] = ScoredCandidate{
			Chunk:        r.idx.Chunk(i),
			LexicalScore: s,
			pos:          i,
		}
	}

	// Stable sort over the corpus-ordered slice keeps equal scores in
	// insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LexicalScore > candidates[j].LexicalScore
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
