package services

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCorpusJSONL_Basic(t *testing.T) {
	path := writeCorpus(t, `{"id":"a","title":"Water","text":"store water in clean containers"}
{"id":"b","text":"tie a bowline knot"}
`)
	records, err := ReadCorpusJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "a" || records[0].Title != "Water" {
		t.Errorf("record 0 = %+v", records[0])
	}
}

func TestReadCorpusJSONL_BodyFallback(t *testing.T) {
	path := writeCorpus(t, `{"id":"a","body":"body text only"}
`)
	records, err := ReadCorpusJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Text != "body text only" {
		t.Fatalf("body field not picked up: %+v", records)
	}
}

func TestReadCorpusJSONL_SkipsEmptyText(t *testing.T) {
	path := writeCorpus(t, `{"id":"a","text":"   "}
{"id":"b","text":""}
{"id":"c","text":"kept"}

{"id":"d"}
`)
	records, err := ReadCorpusJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "c" {
		t.Fatalf("expected only record c, got %+v", records)
	}
}

func TestReadCorpusJSONL_MalformedLineFails(t *testing.T) {
	path := writeCorpus(t, `{"id":"a","text":"fine"}
{not json}
`)
	if _, err := ReadCorpusJSONL(path); err == nil {
		t.Fatal("expected error on malformed JSON line")
	}
}

func TestReadCorpusJSONL_MissingFile(t *testing.T) {
	if _, err := ReadCorpusJSONL(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestReadPDFDir_EmptyDir(t *testing.T) {
	records, err := ReadPDFDir(t.TempDir(), NewChunkingService(1000, 200, 200))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("empty dir produced %d records", len(records))
	}
}

func TestReadPDFDir_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadPDFDir(dir, NewChunkingService(1000, 200, 200))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("unreadable PDF should be skipped, got %d records", len(records))
	}
}
