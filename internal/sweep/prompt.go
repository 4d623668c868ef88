package sweep

import (
	"fmt"

	"github.com/Aisuko/rp-needle/internal/provider"
)

// systemPreamble precedes the haystack in every trial prompt. Its presence
// also guarantees a depth-0 needle is never the absolute first token of
// the prompt.
const systemPreamble = "You are a helpful AI bot that answers questions for a user. Keep your response short and direct"

// RenderPrompt builds the trial messages: system preamble, the rendered
// haystack, then the retrieval question with an instruction to stay inside
// the document.
func RenderPrompt(context, question string) []provider.LLMMessage {
	return []provider.LLMMessage{
		{Role: provider.MessageRoleSystem, Content: systemPreamble},
		{Role: provider.MessageRoleUser, Content: context},
		{
			Role:    provider.MessageRoleUser,
			Content: fmt.Sprintf("%s Don't give information outside the document or repeat your findings", question),
		},
	}
}
