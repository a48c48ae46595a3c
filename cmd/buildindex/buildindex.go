// Command buildindex builds the BM25 index artifact consumed by the serving
// process. The corpus is either a JSONL file (one {id?, title?, text|body}
// object per line) or a directory of PDFs to extract and chunk.
package main

import (
	"flag"
	"fmt"
	"log"

	"rex-retrieval/internal/config"
	"rex-retrieval/internal/index"
	"rex-retrieval/internal/logger"
	"rex-retrieval/services"
)

func main() {
	corpusPath := flag.String("corpus", "", "Path to corpus JSONL")
	pdfDir := flag.String("pdf-dir", "", "Directory of PDFs to extract and chunk")
	outPath := flag.String("out", "", "Path to write BM25 index (e.g., data/bm25.idx)")
	flag.Parse()

	if *outPath == "" {
		log.Fatal("--out is required")
	}
	if (*corpusPath == "") == (*pdfDir == "") {
		log.Fatal("exactly one of --corpus or --pdf-dir is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	var records []index.CorpusRecord
	if *corpusPath != "" {
		records, err = services.ReadCorpusJSONL(*corpusPath)
	} else {
		chunker := services.NewChunkingService(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
		records, err = services.ReadPDFDir(*pdfDir, chunker)
	}
	if err != nil {
		log.Fatal("Failed to read corpus:", err)
	}

	ix := index.Build(records)
	if err := ix.Save(*outPath); err != nil {
		log.Fatal("Failed to write index:", err)
	}

	fmt.Printf("Built BM25 index with %d docs -> %s\n", ix.Count(), *outPath)
}
