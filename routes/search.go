package routes

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"rex-retrieval/internal/config"
	"rex-retrieval/internal/index"
	"rex-retrieval/internal/logger"
	"rex-retrieval/middleware"
	"rex-retrieval/models"
	"rex-retrieval/services"
	"rex-retrieval/utils"

	"github.com/gin-gonic/gin"
)

const snippetChars = 320

// SetupSearchRoutes registers the retrieval debug surface. The pipeline owns
// all scoring; these handlers only validate input and shape provenance for
// debug views. ix may be nil when the index artifact was missing at startup,
// in which case search degrades to ungrounded responses.
func SetupSearchRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.Pipeline, ix *index.Index) {
	router.GET("/healthz", func(c *gin.Context) {
		status := gin.H{"status": "ok", "index": "ready", "docs": 0}
		if ix == nil {
			status["index"] = "unavailable"
		} else {
			status["docs"] = ix.Count()
		}
		c.JSON(http.StatusOK, status)
	})

	router.POST("/api/search", func(c *gin.Context) {
		if pipeline == nil {
			utils.RespondWithInternalError(c, "Retrieval pipeline not initialized", nil)
			return
		}

		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		query := strings.TrimSpace(req.Query)
		if query == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "empty_query",
				"Query must not be empty", nil)
			return
		}

		opts := services.PipelineOptions{
			TopK:           cfg.BM25TopK,
			MinScore:       cfg.MinBM25Score,
			MaxContextDocs: cfg.MaxContextDocs,
			RerankTopN:     cfg.RerankTopN,
			MaxTotalChars:  cfg.MaxTotalChars,
		}
		if req.TopK > 0 {
			opts.TopK = req.TopK
		}

		result := pipeline.RunWithOptions(c.Request.Context(), query, opts)

		logger.Info("search completed",
			"request_id", middleware.GetRequestID(c),
			"grounded", result.Grounded,
			"reranked", result.Reranked,
			"candidates", len(result.Candidates),
		)

		resp := models.SearchResponse{
			Grounded:     result.Grounded,
			BestScore:    result.BestScore,
			Reranked:     result.Reranked,
			ContextBlock: result.ContextBlock,
			Results:      make([]models.SearchHit, 0, len(result.Candidates)),
		}
		for _, cand := range result.Candidates {
			hit := models.SearchHit{
				ID:           cand.Chunk.ID,
				Title:        cand.Chunk.Title,
				Category:     cand.Chunk.Category,
				SourcePath:   cand.Chunk.SourcePath,
				Snippet:      snippet(cand.Chunk.Text),
				LexicalScore: cand.LexicalScore,
			}
			if cand.Reranked {
				hit.RerankScore = cand.RerankScore
			}
			resp.Results = append(resp.Results, hit)
		}

		c.JSON(http.StatusOK, resp)
	})
}

func snippet(text string) string {
	if len(text) <= snippetChars {
		return text
	}
	// Back off to a rune boundary so the byte cut never splits a multibyte
	// character, then prefer ending on a word boundary.
	end := snippetChars
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + " ..."
}
