package services

import (
	"strings"
	"testing"
)

func TestChunkText_EmptyAndWhitespace(t *testing.T) {
	cs := NewChunkingService(1000, 200, 200)
	if got := cs.ChunkText(""); len(got) != 0 {
		t.Errorf("ChunkText(\"\") = %v, want none", got)
	}
	if got := cs.ChunkText("   \n\n  \t"); len(got) != 0 {
		t.Errorf("whitespace-only input produced %v", got)
	}
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	cs := NewChunkingService(1000, 200, 200)
	got := cs.ChunkText("Boil water for one minute before drinking.")
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if !strings.Contains(got[0], "Boil water") {
		t.Errorf("chunk lost its text: %q", got[0])
	}
}

func TestChunkText_RespectsMaxSize(t *testing.T) {
	cs := NewChunkingService(300, 50, 100)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Water storage is a core preparedness skill. ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}

	chunks := cs.ChunkText(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		// Overlap seeding can nudge a chunk slightly past max; sentences are
		// never split, so the bound is max plus one overlap window.
		if len(c) > 300+50 {
			t.Errorf("chunk %d is %d chars, exceeds bound", i, len(c))
		}
	}
}

func TestChunkText_OverlapCarriesTail(t *testing.T) {
	cs := NewChunkingService(200, 60, 50)

	text := "First section about water purification and boiling times in detail. " +
		strings.Repeat("More detail on filters and chemical treatment follows here. ", 6)
	chunks := cs.ChunkText(text)
	if len(chunks) < 2 {
		t.Skip("input did not split; nothing to verify")
	}

	// The head of each later chunk repeats words from the previous chunk.
	tail := chunks[0][len(chunks[0])-40:]
	words := strings.Fields(tail)
	if len(words) == 0 {
		t.Fatal("no tail words")
	}
	if !strings.Contains(chunks[1], words[len(words)-1]) {
		t.Errorf("chunk 2 does not overlap chunk 1: tail %q, head %q", tail, chunks[1][:40])
	}
}

func TestChunkText_OversizedParagraphSplitsAtSentences(t *testing.T) {
	cs := NewChunkingService(120, 0, 40)

	paragraph := "Store water in food-grade containers. Rotate it every six months. " +
		"Keep containers off concrete floors. Label each with the fill date. " +
		"Treat questionable water before drinking it."
	chunks := cs.ChunkText(paragraph)
	if len(chunks) < 2 {
		t.Fatalf("oversized paragraph did not split: %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
}
