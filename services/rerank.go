package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker"
)

// RerankScorer scores a batch of passages against one query with a
// cross-encoder style relevance model. Higher means more relevant. The score
// scale is model-defined and unrelated to BM25.
//
// Implementations must be safe for concurrent use.
type RerankScorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Reranker is the optional second retrieval stage. Absence (nil Reranker in
// the pipeline) is a normal configuration, and every scoring failure degrades
// to lexical order instead of surfacing an error.
type Reranker struct {
	scorer RerankScorer
}

func NewReranker(scorer RerankScorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank re-scores candidates with the cross-encoder and returns the topN by
// rerank score, ties kept in lexical order. The second return value is false
// when the scorer was unavailable or failed; the result is then the input
// truncated to topN in the original lexical order. Rerank never fails the
// pipeline.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []ScoredCandidate, topN int) ([]ScoredCandidate, bool) {
	if topN > len(candidates) {
		topN = len(candidates)
	}
	if topN <= 0 {
		return nil, true
	}
	if r == nil || r.scorer == nil {
		return passThrough(candidates, topN), false
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Chunk.Text
	}

	scores, err := r.scorer.Score(ctx, query, passages)
	if err != nil || len(scores) != len(candidates) {
		return passThrough(candidates, topN), false
	}

	reranked := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		c.RerankScore = scores[i]
		c.Reranked = true
		reranked[i] = c
	}
	// Input is in lexical order, so the stable sort breaks rerank-score ties
	// by lexical rank.
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})

	return reranked[:topN], true
}

func passThrough(candidates []ScoredCandidate, topN int) []ScoredCandidate {
	out := make([]ScoredCandidate, topN)
	copy(out, candidates[:topN])
	return out
}

// CrossEncoderClient scores (query, passage) pairs against an HTTP reranking
// service exposing a TEI-style POST /rerank endpoint. Calls go through a
// circuit breaker so a down model server is skipped quickly instead of
// stalling every query until its timeout.
type CrossEncoderClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewCrossEncoderClient(baseURL string, timeout time.Duration) *CrossEncoderClient {
	settings := gobreaker.Settings{
		Name:    "reranker",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &CrossEncoderClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *CrossEncoderClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.score(ctx, query, passages)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

func (c *CrossEncoderClient) score(ctx context.Context, query string, passages []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequest{Query: query, Texts: passages})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var ranked []rerankScore
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		return nil, fmt.Errorf("decoding reranker response: %w", err)
	}

	// Every passage must come back exactly once; a truncated or duplicated
	// response would otherwise leave silent zero scores in the ranking.
	scores := make([]float64, len(passages))
	seen := make([]bool, len(passages))
	for _, rs := range ranked {
		if rs.Index < 0 || rs.Index >= len(scores) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", rs.Index)
		}
		if seen[rs.Index] {
			return nil, fmt.Errorf("reranker returned duplicate index %d", rs.Index)
		}
		seen[rs.Index] = true
		scores[rs.Index] = rs.Score
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("reranker response missing score for passage %d", i)
		}
	}
	return scores, nil
}
