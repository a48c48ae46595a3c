// Package index implements the corpus index backing first-stage lexical
// retrieval: an immutable set of document chunks plus BM25 term statistics
// derived from them. Indexes are built offline (cmd/buildindex), persisted as
// a msgpack bundle, and loaded read-only by the serving process.
package index

// Chunk is an indexed unit of the source corpus (a paragraph or section of a
// survival document) carrying identity and provenance.
type Chunk struct {
	ID         string `json:"id" msgpack:"id"`
	Text       string `json:"text" msgpack:"text"`
	Title      string `json:"title,omitempty" msgpack:"title"`
	Category   string `json:"category,omitempty" msgpack:"category"`
	SourcePath string `json:"source_path,omitempty" msgpack:"source_path"`
}

// CorpusRecord is one input record for index building, before empty-text
// filtering and ID assignment.
type CorpusRecord struct {
	ID         string
	Title      string
	Text       string
	Category   string
	SourcePath string
}
