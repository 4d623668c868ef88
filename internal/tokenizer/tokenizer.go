// Package tokenizer provides token counting and token-bounded slicing over
// text. The haystack builder and the needle placement engine both work in
// token space, so the tokenizer is the one external capability everything
// else is expressed against.
package tokenizer

// Tokenizer converts text to token counts and token-bounded slices.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Encode converts text to its token sequence.
	Encode(text string) []int

	// Decode converts a token sequence back to text.
	Decode(tokens []int) string

	// Slice returns the text spanned by tokens [start, end).
	// Indices are clamped to the valid range.
	Slice(text string, start, end int) string
}

// sliceTokens clamps [start, end) to len(tokens) and returns the sub-slice.
func sliceTokens(tokens []int, start, end int) []int {
	if start < 0 {
		start = 0
	}
	if end > len(tokens) {
		end = len(tokens)
	}
	if start >= end {
		return nil
	}
	return tokens[start:end]
}
