package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Index artifact produced by cmd/buildindex.
	IndexPath string

	// Retrieval knobs. MinBM25Score is scale-dependent: it was tuned against
	// this corpus and BM25 parameterization and must be recalibrated if
	// either changes.
	BM25TopK       int
	MinBM25Score   float64
	MaxContextDocs int
	RerankTopN     int
	MaxTotalChars  int

	// Reranker service. Empty URL disables stage-2 reranking entirely.
	RerankerURL     string
	RerankerTimeout int

	// Chunking for PDF corpus ingestion
	MaxChunkSize int
	ChunkOverlap int
	MinChunkSize int

	RateLimitReqs   int
	RateLimitWindow int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		IndexPath: getEnv("BM25_INDEX_PATH", "data/bm25.idx"),

		BM25TopK:       getEnvInt("BM25_TOPK", 50),
		MinBM25Score:   getEnvFloat64("MIN_BM25_SCORE", 2.0),
		MaxContextDocs: getEnvInt("MAX_CONTEXT_DOCS", 5),
		RerankTopN:     getEnvInt("RERANK_TOPN", 3),
		MaxTotalChars:  getEnvInt("MAX_TOTAL_CHARS", 3500),

		RerankerURL:     getEnv("RERANKER_URL", ""),
		RerankerTimeout: getEnvInt("RERANKER_TIMEOUT", 15),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 200),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	if cfg.BM25TopK < 1 {
		return nil, fmt.Errorf("BM25_TOPK must be >= 1, got %d", cfg.BM25TopK)
	}
	if cfg.RerankTopN < 1 {
		return nil, fmt.Errorf("RERANK_TOPN must be >= 1, got %d", cfg.RerankTopN)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
