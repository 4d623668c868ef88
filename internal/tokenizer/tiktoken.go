package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when no encoding is configured. cl100k_base is
// the GPT-4 encoding and a close enough approximation for other providers.
const DefaultEncoding = "cl100k_base"

// Tiktoken is a Tokenizer backed by a tiktoken BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

var _ Tokenizer = (*Tiktoken)(nil)

// NewTiktoken creates a Tiktoken for the named encoding.
// An empty name selects DefaultEncoding.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %q: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// NewTiktokenForModel creates a Tiktoken using the encoding registered for
// the given model name, falling back to DefaultEncoding for unknown models.
func NewTiktokenForModel(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return NewTiktoken(DefaultEncoding)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Encode converts text to its token sequence.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts a token sequence back to text.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Slice returns the text spanned by tokens [start, end).
func (t *Tiktoken) Slice(text string, start, end int) string {
	tokens := t.enc.Encode(text, nil, nil)
	sub := sliceTokens(tokens, start, end)
	if len(sub) == 0 {
		return ""
	}
	return t.enc.Decode(sub)
}
