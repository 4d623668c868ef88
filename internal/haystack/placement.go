package haystack

import (
	"math"
	"strings"

	"github.com/Aisuko/rp-needle/internal/tokenizer"
)

// Insertion pairs a needle with its token offset into the pre-insertion
// haystack.
type Insertion struct {
	Needle string
	Offset int
}

// InsertionPlan is the ordered set of insertions for one trial.
// Offsets are strictly increasing.
type InsertionPlan []Insertion

// PlanInsertions computes the insertion plan for the given needles at the
// given depth.
//
// The first needle targets floor(N × depth/100), snapped to the nearest
// sentence boundary at or before that offset so no existing sentence is
// split. With K needles the remaining depth range (100 − depth) is divided
// evenly: needle i targets depth + i × (100−depth)/K, each offset computed
// against the original pre-insertion length. When two snapped offsets
// coincide, the later needle is pushed to the next sentence boundary. Plan
// offsets never decrease and needle order is preserved; offsets can only tie
// at the end of the haystack, once no later boundary exists. Rendered
// positions stay strictly increasing either way, because Apply shifts each
// needle by the token length of the needles before it.
//
// Depth 100 places the needle at the very end of the haystack without
// snapping. Depth 0 resolves to offset 0; the rendered prompt carries a
// system preamble ahead of the haystack, so a depth-0 needle never sits at
// the absolute first token of the prompt.
func PlanInsertions(tok tokenizer.Tokenizer, h Haystack, depthPercent float64, needles []string) (InsertionPlan, error) {
	if depthPercent < 0 || depthPercent > 100 {
		return nil, ErrInvalidDepth
	}
	if len(needles) == 0 {
		return nil, ErrNoNeedle
	}

	n := h.Len()
	k := len(needles)
	interval := (100 - depthPercent) / float64(k)

	plan := make(InsertionPlan, 0, k)
	prev := -1
	for i, needle := range needles {
		target := depthPercent + float64(i)*interval
		offset := int(math.Floor(float64(n) * target / 100))
		if offset > n {
			offset = n
		}
		if offset < n {
			offset = boundaryAtOrBefore(tok, h.Tokens, offset)
		}
		if offset <= prev {
			offset = boundaryAfter(tok, h.Tokens, prev)
			if offset <= prev {
				// No boundary left; advance token by token until the end.
				offset = min(prev+1, n)
			}
		}
		plan = append(plan, Insertion{Needle: needle, Offset: offset})
		prev = offset
	}
	return plan, nil
}

// Apply materialises the plan into the haystack. Insertions are applied in
// increasing offset order; because the output is rebuilt segment by segment
// against pre-insertion offsets, each needle's final position is shifted by
// the token length of every needle before it, keeping rendered positions
// strictly increasing.
//
// The returned haystack's token count is h.Len() plus the token length of
// all needles.
func Apply(tok tokenizer.Tokenizer, h Haystack, plan InsertionPlan) Haystack {
	out := make([]int, 0, h.Len())
	cursor := 0
	for _, ins := range plan {
		out = append(out, h.Tokens[cursor:ins.Offset]...)
		out = append(out, tok.Encode(ins.Needle)...)
		cursor = ins.Offset
	}
	out = append(out, h.Tokens[cursor:]...)

	return Haystack{
		Text:   tok.Decode(out),
		Tokens: out,
		Target: h.Target,
	}
}

// sentenceEnders terminate a sentence. Closing quotes after the punctuation
// are tolerated by trimming them before the suffix check.
const sentenceEnders = ".!?"

// endsSentence reports whether the single token id decodes to text that
// closes a sentence.
func endsSentence(tok tokenizer.Tokenizer, id int) bool {
	text := strings.TrimRight(tok.Decode([]int{id}), " \t\r\n\"'”’)")
	if text == "" {
		return false
	}
	return strings.ContainsRune(sentenceEnders, rune(text[len(text)-1]))
}

// boundaryAtOrBefore returns the largest sentence boundary ≤ offset, where
// a boundary at position i means token i−1 ends a sentence. Returns 0 when
// no boundary exists before the offset.
func boundaryAtOrBefore(tok tokenizer.Tokenizer, tokens []int, offset int) int {
	if offset > len(tokens) {
		offset = len(tokens)
	}
	for i := offset; i > 0; i-- {
		if endsSentence(tok, tokens[i-1]) {
			return i
		}
	}
	return 0
}

// boundaryAfter returns the smallest sentence boundary strictly greater
// than offset, capped at len(tokens).
func boundaryAfter(tok tokenizer.Tokenizer, tokens []int, offset int) int {
	for i := offset + 1; i < len(tokens); i++ {
		if endsSentence(tok, tokens[i-1]) {
			return i
		}
	}
	return len(tokens)
}
