package tokenizer

import (
	"strings"
	"sync"
)

// Words is a whitespace-segmenting Tokenizer. Each whitespace-delimited
// word (with its surrounding whitespace) counts as one token. It is deterministic,
// needs no vocabulary download, and round-trips Encode/Decode exactly, so
// it serves offline runs and tests where tiktoken data is unavailable.
// Counts run roughly 25% low against BPE tokenizers on English prose.
type Words struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

var _ Tokenizer = (*Words)(nil)

// NewWords creates an empty word tokenizer.
func NewWords() *Words {
	return &Words{ids: map[string]int{}}
}

// split segments text into word tokens. Whitespace travels with the word it
// follows (leading whitespace with the first word), so joining the parts
// reproduces the input exactly.
func (w *Words) split(text string) []string {
	if text == "" {
		return nil
	}
	var parts []string
	start := 0
	seenWord := false
	prevSpace := false
	for i, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !isSpace && prevSpace && seenWord {
			parts = append(parts, text[start:i])
			start = i
			seenWord = false
		}
		if !isSpace {
			seenWord = true
		}
		prevSpace = isSpace
	}
	parts = append(parts, text[start:])
	return parts
}

// intern maps a word to a stable id, allocating one if needed.
func (w *Words) intern(word string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.ids[word]; ok {
		return id
	}
	id := len(w.words)
	w.ids[word] = id
	w.words = append(w.words, word)
	return id
}

// Count returns the number of word tokens in text.
func (w *Words) Count(text string) int {
	return len(w.split(text))
}

// Encode converts text to its token sequence.
func (w *Words) Encode(text string) []int {
	parts := w.split(text)
	tokens := make([]int, len(parts))
	for i, p := range parts {
		tokens[i] = w.intern(p)
	}
	return tokens
}

// Decode converts a token sequence back to text.
func (w *Words) Decode(tokens []int) string {
	var b strings.Builder
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range tokens {
		if id >= 0 && id < len(w.words) {
			b.WriteString(w.words[id])
		}
	}
	return b.String()
}

// Slice returns the text spanned by tokens [start, end).
func (w *Words) Slice(text string, start, end int) string {
	parts := w.split(text)
	if start < 0 {
		start = 0
	}
	if end > len(parts) {
		end = len(parts)
	}
	if start >= end {
		return ""
	}
	return strings.Join(parts[start:end], "")
}
