package index

import "strings"

// Tokenize lowercases text and splits it on whitespace.
//
// This is the single normalization function for both index building and
// query scoring. BM25 scores are only meaningful when both sides use the
// identical tokenizer, so any richer tokenization must replace this function,
// not bypass it.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
