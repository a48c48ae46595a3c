package index

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	bm25K1 = 1.5  // Term frequency saturation
	bm25B  = 0.75 // Length normalization
)

type posting struct {
	DocNum uint32 `msgpack:"d"`
	TF     uint32 `msgpack:"t"`
}

// Index is an immutable BM25 index over a fixed chunk set. Once built (or
// loaded) it is never mutated, so concurrent readers need no locking.
// Replacing the corpus means building a new Index and swapping the pointer.
type Index struct {
	chunks       []Chunk
	postings     map[string][]posting
	idf          map[string]float64
	docLengths   []uint32
	avgDocLength float64
}

// Build constructs an index from corpus records. Records with empty or
// whitespace-only text are skipped, not errors; the caller can compare the
// returned count against its input size to log the discrepancy. Records
// without an ID get a generated one so every chunk is addressable in debug
// output.
func Build(records []CorpusRecord) *Index {
	// chunks and docLengths start non-nil so a corpus whose records are all
	// skipped still serializes as a valid empty bundle.
	ix := &Index{
		chunks:     []Chunk{},
		docLengths: []uint32{},
		postings:   make(map[string][]posting),
		idf:        make(map[string]float64),
	}

	var totalLen int64
	for _, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}

		docNum := uint32(len(ix.chunks))
		ix.chunks = append(ix.chunks, Chunk{
			ID:         id,
			Text:       rec.Text,
			Title:      rec.Title,
			Category:   rec.Category,
			SourcePath: rec.SourcePath,
		})

		tokens := Tokenize(rec.Text)
		termFreq := make(map[string]int, len(tokens))
		for _, t := range tokens {
			termFreq[t]++
		}
		for term, tf := range termFreq {
			ix.postings[term] = append(ix.postings[term], posting{DocNum: docNum, TF: uint32(tf)})
		}

		ix.docLengths = append(ix.docLengths, uint32(len(tokens)))
		totalLen += int64(len(tokens))
	}

	if len(ix.chunks) > 0 {
		ix.avgDocLength = float64(totalLen) / float64(len(ix.chunks))
	}
	ix.computeIDF()
	return ix
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return len(ix.chunks)
}

// Chunks returns the indexed chunk set in insertion order. The slice is
// shared and read-only; callers must not modify it.
func (ix *Index) Chunks() []Chunk {
	return ix.chunks
}

// Chunk returns the chunk at position i in corpus order.
func (ix *Index) Chunk(i int) Chunk {
	return ix.chunks[i]
}

// Scores computes a BM25 score per chunk for the given query tokens and
// returns them indexed by chunk position. A query with no matching terms
// produces all zeros, never an error. Each call allocates its own score
// slice, so concurrent queries share no scratch state.
func (ix *Index) Scores(queryTokens []string) []float64 {
	scores := make([]float64, len(ix.chunks))
	if len(ix.chunks) == 0 || ix.avgDocLength <= 0 {
		return scores
	}

	// Repeated query tokens add their contribution once per occurrence,
	// matching get_scores semantics of classic BM25 implementations.
	for _, term := range queryTokens {
		idf := ix.idf[term]
		if idf <= 0 {
			continue
		}
		for _, p := range ix.postings[term] {
			docLen := float64(ix.docLengths[p.DocNum])
			tf := float64(p.TF)
			numerator := tf * (bm25K1 + 1)
			denominator := tf + bm25K1*(1-bm25B+bm25B*(docLen/ix.avgDocLength))
			scores[p.DocNum] += idf * (numerator / denominator)
		}
	}
	return scores
}

// computeIDF derives per-term IDF from document frequencies. Uses the
// non-negative Lucene formulation ln(1 + (N-df+0.5)/(df+0.5)) so a term
// unique to one chunk always scores strictly positive.
func (ix *Index) computeIDF() {
	n := float64(len(ix.chunks))
	for term, ps := range ix.postings {
		df := float64(len(ps))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		if idf < 0 {
			idf = 0
		}
		ix.idf[term] = idf
	}
}
