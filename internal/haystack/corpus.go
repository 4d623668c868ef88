// Package haystack assembles token-accurate synthetic contexts from a
// corpus of source documents and computes sentence-boundary-aware needle
// insertion plans over them.
package haystack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is one source text in the corpus pool.
type Document struct {
	Name string
	Text string
}

// Corpus is an ordered pool of source documents. Order is stable (sorted
// by name), so haystack assembly is deterministic for a fixed pool.
type Corpus struct {
	docs []Document
}

// NewCorpus creates a corpus from the given documents, sorted by name.
func NewCorpus(docs []Document) *Corpus {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Corpus{docs: sorted}
}

// LoadCorpus reads all .txt files under dir into a corpus.
func LoadCorpus(dir string) (*Corpus, error) {
	return LoadCorpusFS(os.DirFS(dir))
}

// LoadCorpusFS reads all .txt files from fsys into a corpus.
// Files are discovered recursively and ordered by path.
func LoadCorpusFS(fsys fs.FS) (*Corpus, error) {
	var docs []Document
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("haystack: reading %s: %w", path, err)
		}
		docs = append(docs, Document{Name: path, Text: string(raw)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("haystack: loading corpus: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("haystack: %w: no .txt documents found", ErrInsufficientCorpus)
	}
	return NewCorpus(docs), nil
}

// Len returns the number of documents in the pool.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Documents returns the ordered document pool.
func (c *Corpus) Documents() []Document {
	return c.docs
}
