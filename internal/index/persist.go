package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const indexFormatVersion = "1.0.0"

var (
	// ErrIndexNotFound means the index artifact does not exist at the given
	// path. Callers decide whether that is fatal or means ungrounded-only.
	ErrIndexNotFound = errors.New("bm25 index not found")

	// ErrIndexCorrupt means the artifact exists but cannot be decoded into
	// the expected shape.
	ErrIndexCorrupt = errors.New("bm25 index corrupt")
)

// bm25State is the serialized lexical model, separate from the chunks so the
// bundle keeps the {docs, bm25} shape.
type bm25State struct {
	Postings     map[string][]posting `msgpack:"postings"`
	DocLengths   []uint32             `msgpack:"doc_lengths"`
	AvgDocLength float64              `msgpack:"avg_doc_len"`
}

type indexSnapshot struct {
	Version string    `msgpack:"v"`
	Docs    []Chunk   `msgpack:"docs"`
	BM25    bm25State `msgpack:"bm25"`
}

// Save writes the index bundle to path. The file is written to a temporary
// sibling and renamed so a serving process never observes a half-written
// index.
func (ix *Index) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	snap := indexSnapshot{
		Version: indexFormatVersion,
		Docs:    ix.chunks,
		BM25: bm25State{
			Postings:     ix.postings,
			DocLengths:   ix.docLengths,
			AvgDocLength: ix.avgDocLength,
		},
	}
	if err := msgpack.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads an index bundle from path. It returns ErrIndexNotFound when the
// artifact is absent and ErrIndexCorrupt when it cannot be decoded into the
// expected shape. Loading is side-effect-free beyond the returned index; the
// result should be cached and shared, not reloaded per query.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	var snap indexSnapshot
	if err := msgpack.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrIndexCorrupt, path, err)
	}
	if snap.Version == "" || !versionCompatible(snap.Version) {
		return nil, fmt.Errorf("%w: unsupported format version %q in %s", ErrIndexCorrupt, snap.Version, path)
	}
	if snap.Docs == nil || snap.BM25.Postings == nil {
		return nil, fmt.Errorf("%w: missing docs or bm25 state in %s", ErrIndexCorrupt, path)
	}
	if len(snap.BM25.DocLengths) != len(snap.Docs) {
		return nil, fmt.Errorf("%w: doc length table size %d does not match %d docs in %s",
			ErrIndexCorrupt, len(snap.BM25.DocLengths), len(snap.Docs), path)
	}

	ix := &Index{
		chunks:       snap.Docs,
		postings:     snap.BM25.Postings,
		docLengths:   snap.BM25.DocLengths,
		avgDocLength: snap.BM25.AvgDocLength,
		idf:          make(map[string]float64),
	}
	if ix.avgDocLength <= 0 && len(ix.docLengths) > 0 {
		var total int64
		for _, l := range ix.docLengths {
			total += int64(l)
		}
		ix.avgDocLength = float64(total) / float64(len(ix.docLengths))
	}
	// IDF is a pure function of the postings; recompute instead of trusting
	// the artifact.
	ix.computeIDF()
	return ix, nil
}

// versionCompatible accepts snapshots with the same major version.
func versionCompatible(v string) bool {
	want, _, _ := strings.Cut(indexFormatVersion, ".")
	got, _, _ := strings.Cut(v, ".")
	return got == want
}
