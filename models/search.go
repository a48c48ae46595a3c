package models

// SearchRequest is the debug retrieval request body. TopK overrides the
// configured first-stage candidate count when positive.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchHit is one scored passage with enough provenance to render in a
// debug view.
type SearchHit struct {
	ID           string  `json:"id"`
	Title        string  `json:"title,omitempty"`
	Category     string  `json:"category,omitempty"`
	SourcePath   string  `json:"source_path,omitempty"`
	Snippet      string  `json:"snippet"`
	LexicalScore float64 `json:"lexical_score"`
	RerankScore  float64 `json:"rerank_score,omitempty"`
}

// SearchResponse reports the pipeline outcome for one query. Grounded=false
// with an empty context block is a valid result, not an error.
type SearchResponse struct {
	Grounded     bool        `json:"grounded"`
	BestScore    float64     `json:"best_score"`
	Reranked     bool        `json:"reranked"`
	ContextBlock string      `json:"context_block"`
	Results      []SearchHit `json:"results"`
}
