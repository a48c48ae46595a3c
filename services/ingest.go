package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"rex-retrieval/internal/index"
	"rex-retrieval/internal/logger"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// corpusLine is one newline-delimited JSON corpus record. Only text (or its
// body alias) is required; everything else is optional provenance.
type corpusLine struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	Body       string `json:"body"`
	Category   string `json:"category"`
	SourcePath string `json:"source_path"`
}

// ReadCorpusJSONL reads corpus records from a JSONL file. Records whose text
// is empty after trimming are skipped with a warning; malformed JSON fails
// the whole read since a broken corpus should not silently produce a partial
// index.
func ReadCorpusJSONL(path string) ([]index.CorpusRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer file.Close()

	var records []index.CorpusRecord
	skipped := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj corpusLine
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", lineNo, err)
		}

		text := obj.Text
		if text == "" {
			text = obj.Body
		}
		if strings.TrimSpace(text) == "" {
			skipped++
			continue
		}

		records = append(records, index.CorpusRecord{
			ID:         obj.ID,
			Title:      obj.Title,
			Text:       text,
			Category:   obj.Category,
			SourcePath: obj.SourcePath,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	if skipped > 0 {
		logger.Warn("skipped corpus records with empty text", "skipped", skipped, "kept", len(records))
	}
	return records, nil
}

// ReadPDFDir walks dir for PDF files, extracts their text and chunks it into
// corpus records. Each chunk gets a fresh ID and carries the source file as
// provenance. Files that fail extraction are skipped with a warning so one
// bad scan does not abort a whole corpus build.
func ReadPDFDir(dir string, chunker *ChunkingService) ([]index.CorpusRecord, error) {
	var records []index.CorpusRecord

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		text, err := extractPDFText(path)
		if err != nil {
			logger.Warn("skipping unreadable PDF", "path", path, "error", err.Error())
			return nil
		}

		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		category := filepath.Base(filepath.Dir(path))
		for _, chunk := range chunker.ChunkText(text) {
			records = append(records, index.CorpusRecord{
				ID:         uuid.NewString(),
				Title:      title,
				Text:       chunk,
				Category:   category,
				SourcePath: path,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return records, nil
}

func extractPDFText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract PDF page", "path", path, "page", i, "error", err.Error())
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if extracted == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}
	return extracted, nil
}
