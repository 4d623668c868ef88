package haystack

import (
	"fmt"
	"strings"

	"github.com/Aisuko/rp-needle/internal/tokenizer"
)

// TrimMode controls how the builder cuts the assembled text down to the
// target token count.
type TrimMode int

const (
	// TrimExact hard-trims the token slice so the haystack is exactly the
	// target length. The needle token budget is reserved upfront by the
	// caller, so the rendered haystack-with-needle hits the requested
	// context length exactly.
	TrimExact TrimMode = iota

	// TrimSentence cuts at the nearest sentence boundary at or before the
	// target. The haystack may fall short of the target by one sentence
	// tail; it never exceeds it. Falls back to a hard trim when no
	// boundary exists before the limit.
	TrimSentence
)

// BuildOptions configures haystack assembly.
type BuildOptions struct {
	Trim TrimMode

	// Repeat wraps around the document pool when it cannot supply the
	// target on its own. Off by default: an undersized corpus is a
	// configuration error, not something to paper over silently.
	Repeat bool
}

// Haystack is an assembled context of a declared target token length.
type Haystack struct {
	Text   string
	Tokens []int
	Target int
}

// Len returns the actual token count of the haystack.
func (h Haystack) Len() int {
	return len(h.Tokens)
}

// Builder assembles haystacks from a corpus. It is stateless across calls:
// the same (corpus, target, options) always yields the same haystack.
type Builder struct {
	tok    tokenizer.Tokenizer
	corpus *Corpus
	opts   BuildOptions
}

// NewBuilder creates a Builder over the given tokenizer and corpus.
func NewBuilder(tok tokenizer.Tokenizer, corpus *Corpus, opts BuildOptions) *Builder {
	return &Builder{tok: tok, corpus: corpus, opts: opts}
}

// Build assembles a haystack of the target token length. Documents are
// concatenated in pool order until the cumulative count reaches the target,
// then the tail is trimmed according to the configured TrimMode.
func (b *Builder) Build(targetTokens int) (Haystack, error) {
	if targetTokens <= 0 {
		return Haystack{}, fmt.Errorf("haystack: target must be positive, got %d", targetTokens)
	}

	var sb strings.Builder
	docs := b.corpus.Documents()
	i := 0
	for b.tok.Count(sb.String()) < targetTokens {
		if i >= len(docs) {
			if !b.opts.Repeat {
				return Haystack{}, fmt.Errorf("haystack: %w: %d tokens available, %d requested",
					ErrInsufficientCorpus, b.tok.Count(sb.String()), targetTokens)
			}
			i = 0
		}
		sb.WriteString(docs[i].Text)
		i++
	}

	tokens := b.tok.Encode(sb.String())
	cut := targetTokens
	if b.opts.Trim == TrimSentence {
		if snap := boundaryAtOrBefore(b.tok, tokens, targetTokens); snap > 0 {
			cut = snap
		}
	}
	tokens = tokens[:cut]

	return Haystack{
		Text:   b.tok.Decode(tokens),
		Tokens: tokens,
		Target: targetTokens,
	}, nil
}
