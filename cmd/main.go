package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rex-retrieval/internal/config"
	"rex-retrieval/internal/index"
	"rex-retrieval/internal/logger"
	"rex-retrieval/middleware"
	"rex-retrieval/routes"
	"rex-retrieval/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Load the corpus index once; it is shared read-only for the process
	// lifetime. A missing or corrupt artifact is not fatal: the service runs
	// in ungrounded-only mode and /healthz reports the index as unavailable.
	var ix *index.Index
	var retriever *services.Retriever
	loaded, err := index.Load(cfg.IndexPath)
	switch {
	case err == nil:
		ix = loaded
		retriever = services.NewRetriever(ix)
		logger.Info("Loaded survival corpus index", "path", cfg.IndexPath, "docs", ix.Count())
	case errors.Is(err, index.ErrIndexNotFound), errors.Is(err, index.ErrIndexCorrupt):
		logger.Error("Index unavailable, running ungrounded-only", "path", cfg.IndexPath, "error", err.Error())
	default:
		log.Fatal("Failed to load index:", err)
	}

	// Stage-2 reranking is optional; without a URL the pipeline stays lexical.
	var reranker *services.Reranker
	if cfg.RerankerURL != "" {
		scorer := services.NewCrossEncoderClient(cfg.RerankerURL,
			time.Duration(cfg.RerankerTimeout)*time.Second)
		reranker = services.NewReranker(scorer)
		logger.Info("Cross-encoder reranker enabled", "url", cfg.RerankerURL)
	}

	pipeline := services.NewPipeline(retriever, reranker, services.PipelineOptions{
		TopK:           cfg.BM25TopK,
		MinScore:       cfg.MinBM25Score,
		MaxContextDocs: cfg.MaxContextDocs,
		RerankTopN:     cfg.RerankTopN,
		MaxTotalChars:  cfg.MaxTotalChars,
	})

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.NewRateLimiter(cfg).Middleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	routes.SetupSearchRoutes(router, cfg, pipeline, ix)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Retrieval service starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
