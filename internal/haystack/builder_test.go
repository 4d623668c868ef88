package haystack

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Aisuko/rp-needle/internal/tokenizer"
)

// sentenceText returns count sentences of exactly ten word tokens each, so
// sentence boundaries sit at multiples of ten in word-token space.
func sentenceText(count int) string {
	var b strings.Builder
	for i := range count {
		for j := range 9 {
			fmt.Fprintf(&b, "word%d-%d ", i, j)
		}
		b.WriteString("end. ")
	}
	return b.String()
}

// testCorpus returns a corpus of docs documents, sentences sentences each.
func testCorpus(docs, sentences int) *Corpus {
	out := make([]Document, docs)
	for i := range docs {
		out[i] = Document{Name: fmt.Sprintf("doc%02d.txt", i), Text: sentenceText(sentences)}
	}
	return NewCorpus(out)
}

func TestBuilder_ExactTrim(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(3, 3), BuildOptions{Trim: TrimExact})

	for _, target := range []int{1, 10, 37, 50, 90} {
		h, err := b.Build(target)
		if err != nil {
			t.Fatalf("Build(%d) error = %v", target, err)
		}
		if h.Len() != target {
			t.Errorf("Build(%d).Len() = %d, want exact target", target, h.Len())
		}
		if h.Target != target {
			t.Errorf("Build(%d).Target = %d, want %d", target, h.Target, target)
		}
		if got := tok.Count(h.Text); got != target {
			t.Errorf("Build(%d) text re-counts to %d tokens", target, got)
		}
	}
}

func TestBuilder_SentenceTrim(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(3, 3), BuildOptions{Trim: TrimSentence})

	tests := []struct {
		target int
		want   int
	}{
		{target: 50, want: 50}, // already on a boundary
		{target: 55, want: 50}, // snaps back one partial sentence
		{target: 49, want: 40},
		{target: 5, want: 5}, // no boundary before target, hard trim fallback
	}

	for _, tt := range tests {
		h, err := b.Build(tt.target)
		if err != nil {
			t.Fatalf("Build(%d) error = %v", tt.target, err)
		}
		if h.Len() != tt.want {
			t.Errorf("Build(%d).Len() = %d, want %d", tt.target, h.Len(), tt.want)
		}
		if h.Len() > tt.target {
			t.Errorf("Build(%d) exceeded target: %d tokens", tt.target, h.Len())
		}
	}
}

func TestBuilder_InsufficientCorpus(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(2, 2), BuildOptions{})

	// The pool holds 40 tokens total.
	if _, err := b.Build(41); !errors.Is(err, ErrInsufficientCorpus) {
		t.Errorf("Build(41) error = %v, want ErrInsufficientCorpus", err)
	}
}

func TestBuilder_Repeat(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(2, 2), BuildOptions{Repeat: true})

	// 40 tokens in the pool, 100 requested: the pool wraps.
	h, err := b.Build(100)
	if err != nil {
		t.Fatalf("Build(100) error = %v", err)
	}
	if h.Len() != 100 {
		t.Errorf("Build(100).Len() = %d, want 100", h.Len())
	}
}

func TestBuilder_InvalidTarget(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(1, 1), BuildOptions{})

	for _, target := range []int{0, -5} {
		if _, err := b.Build(target); err == nil {
			t.Errorf("Build(%d) expected error", target)
		}
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	t.Parallel()

	tok := tokenizer.NewWords()
	b := NewBuilder(tok, testCorpus(3, 3), BuildOptions{})

	first, err := b.Build(42)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := b.Build(42)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if first.Text != second.Text {
		t.Error("identical builds produced different haystacks")
	}
}
