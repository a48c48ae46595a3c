package services

import (
	"regexp"
	"strings"
)

// ChunkingService splits extracted document text into corpus-sized chunks
// with paragraph and sentence boundary awareness, carrying a configurable
// overlap between consecutive chunks so retrieval does not lose context at
// chunk edges.
type ChunkingService struct {
	maxChunkSize   int
	overlap        int
	minChunkSize   int
	sentenceRegex  *regexp.Regexp
	paragraphRegex *regexp.Regexp
}

func NewChunkingService(maxChunkSize, overlap, minChunkSize int) *ChunkingService {
	return &ChunkingService{
		maxChunkSize:   maxChunkSize,
		overlap:        overlap,
		minChunkSize:   minChunkSize,
		sentenceRegex:  regexp.MustCompile(`[.!?]+\s+`),
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// ChunkText splits text into chunks of at most maxChunkSize characters,
// preferring paragraph boundaries and falling back to sentence boundaries for
// oversized paragraphs.
func (cs *ChunkingService) ChunkText(text string) []string {
	var chunks []string
	current := new(strings.Builder)
	seeded := 0 // length of the overlap seed at the head of current

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		seeded = 0
		if len(chunk) == 0 {
			return
		}
		chunks = append(chunks, chunk)
		// Seed the next chunk with the tail of this one.
		if cs.overlap > 0 && len(chunk) > cs.overlap {
			current.WriteString(overlapTail(chunk, cs.overlap))
			current.WriteString(" ")
			seeded = current.Len()
		}
	}

	for _, paragraph := range cs.paragraphRegex.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		for _, piece := range cs.splitOversized(paragraph) {
			fresh := current.Len() - seeded
			if fresh >= cs.minChunkSize && current.Len()+len(piece)+1 > cs.maxChunkSize {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(piece)
		}
	}

	// Emit the remainder only if it holds more than the overlap seed.
	if current.Len() > seeded {
		if tail := strings.TrimSpace(current.String()); len(tail) > 0 {
			chunks = append(chunks, tail)
		}
	}
	return chunks
}

// splitOversized breaks a paragraph longer than maxChunkSize at sentence
// boundaries; sentences themselves are never split.
func (cs *ChunkingService) splitOversized(paragraph string) []string {
	if len(paragraph) <= cs.maxChunkSize {
		return []string{paragraph}
	}

	var pieces []string
	piece := new(strings.Builder)
	for _, sentence := range cs.splitSentences(paragraph) {
		if piece.Len()+len(sentence)+1 > cs.maxChunkSize && piece.Len() > 0 {
			pieces = append(pieces, piece.String())
			piece.Reset()
		}
		if piece.Len() > 0 {
			piece.WriteString(" ")
		}
		piece.WriteString(sentence)
	}
	if piece.Len() > 0 {
		pieces = append(pieces, piece.String())
	}
	return pieces
}

func (cs *ChunkingService) splitSentences(text string) []string {
	bounds := cs.sentenceRegex.FindAllStringIndex(text, -1)
	var sentences []string
	start := 0
	for _, b := range bounds {
		sentences = append(sentences, strings.TrimSpace(text[start:b[1]]))
		start = b[1]
	}
	if start < len(text) {
		if rest := strings.TrimSpace(text[start:]); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// overlapTail returns roughly the last n characters of text, snapped forward
// to a word boundary.
func overlapTail(text string, n int) string {
	tail := text[len(text)-n:]
	if i := strings.IndexAny(tail, " \n"); i >= 0 {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}
