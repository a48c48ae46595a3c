package services

import (
	"context"
	"strings"

	"rex-retrieval/internal/index"
	"rex-retrieval/internal/logger"
)

const contextSeparator = "\n\n"

// PipelineOptions carries the tunable retrieval knobs. Zero values are not
// defaulted here; build them from config.
type PipelineOptions struct {
	TopK           int
	MinScore       float64
	MaxContextDocs int
	RerankTopN     int
	MaxTotalChars  int
}

// PipelineResult is the outcome of one query. Grounded=false means the
// corpus had nothing relevant enough and the caller should use its
// general-knowledge prompt; that is a valid outcome, not an error.
type PipelineResult struct {
	Grounded     bool
	ContextBlock string
	Used         []index.Chunk
	Candidates   []ScoredCandidate
	BestScore    float64
	Reranked     bool
}

// Pipeline runs a query through lexical retrieval, the relevance gate, the
// optional reranking stage and context assembly. It holds only shared
// read-only state and is safe for concurrent use.
type Pipeline struct {
	retriever *Retriever
	reranker  *Reranker // nil when stage-2 reranking is not configured
	opts      PipelineOptions
}

func NewPipeline(retriever *Retriever, reranker *Reranker, opts PipelineOptions) *Pipeline {
	return &Pipeline{retriever: retriever, reranker: reranker, opts: opts}
}

// Run executes the pipeline with the configured options.
func (p *Pipeline) Run(ctx context.Context, query string) PipelineResult {
	return p.RunWithOptions(ctx, query, p.opts)
}

// RunWithOptions executes the pipeline with per-call option overrides.
func (p *Pipeline) RunWithOptions(ctx context.Context, query string, opts PipelineOptions) PipelineResult {
	var res PipelineResult
	if p == nil || p.retriever == nil {
		// Index unavailable: degrade to ungrounded rather than fail.
		return res
	}

	candidates := p.retriever.Retrieve(query, opts.TopK)
	res.Candidates = candidates
	if len(candidates) > 0 {
		res.BestScore = candidates[0].LexicalScore
	}

	if !ShouldGround(candidates, opts.MinScore) {
		logger.Debug("retrieval below grounding threshold",
			"best_score", res.BestScore, "threshold", opts.MinScore, "candidates", len(candidates))
		return res
	}
	res.Grounded = true

	ranked := candidates
	if p.reranker != nil {
		reranked, ok := p.reranker.Rerank(ctx, query, candidates, opts.RerankTopN)
		if ok {
			res.Reranked = true
		} else {
			logger.Warn("reranker unavailable, keeping lexical order", "candidates", len(candidates))
		}
		ranked = reranked
	}
	if len(ranked) > opts.MaxContextDocs {
		ranked = ranked[:opts.MaxContextDocs]
	}

	res.ContextBlock, res.Used = AssembleContext(ranked, opts.MaxTotalChars)
	return res
}

// ShouldGround decides whether the candidate set is trustworthy enough to use
// as grounding context. BM25 scores are unbounded and corpus-dependent; a low
// top score means the corpus has nothing relevant and injecting it would
// mislead the model. An empty candidate set never grounds.
func ShouldGround(candidates []ScoredCandidate, threshold float64) bool {
	if len(candidates) == 0 {
		return false
	}
	return candidates[0].LexicalScore >= threshold
}

// AssembleContext concatenates passage texts in rank order, each prefixed
// with its bracketed title when present, separated by blank lines. Assembly
// stops before the first passage that would push the total past maxChars:
// passages are dropped whole, never truncated, so an excerpt is always intact.
func AssembleContext(ranked []ScoredCandidate, maxChars int) (string, []index.Chunk) {
	var parts []string
	var used []index.Chunk
	total := 0

	for _, c := range ranked {
		text := c.Chunk.Text
		if title := strings.TrimSpace(c.Chunk.Title); title != "" {
			text = "[" + title + "] " + text
		}

		cost := len(text)
		if len(parts) > 0 {
			cost += len(contextSeparator)
		}
		if total+cost > maxChars {
			break
		}

		parts = append(parts, text)
		used = append(used, c.Chunk)
		total += cost
	}

	return strings.Join(parts, contextSeparator), used
}
