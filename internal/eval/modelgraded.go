package eval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Aisuko/rp-needle/internal/provider"
	"github.com/Aisuko/rp-needle/internal/results"
)

// accuracyCriteria is the grading rubric given to the scoring model.
// Scores are on the 1/3/5/7/10 scale.
const accuracyCriteria = `Score 1: The answer is completely unrelated to the reference.
Score 3: The answer has minor relevance but does not align with the reference.
Score 5: The answer has moderate relevance but contains inaccuracies.
Score 7: The answer aligns with the reference but has minor omissions.
Score 10: The answer is completely accurate and aligns perfectly with the reference.
Only respond with a numerical score.`

// scorePattern extracts the first integer from the grading reply.
var scorePattern = regexp.MustCompile(`\d+`)

// ModelGraded scores responses by asking a grading model to rate how
// completely and accurately the response reproduces the needle fact(s).
type ModelGraded struct {
	grader    provider.Provider
	question  string
	reference string
	logger    *slog.Logger
}

var _ Evaluator = (*ModelGraded)(nil)

// NewModelGraded creates a model-graded evaluator. The reference answer is
// the needle text (all needles joined, in multi-needle mode); the question
// is the retrieval question posed to the model under test.
func NewModelGraded(grader provider.Provider, question, reference string, logger *slog.Logger) *ModelGraded {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ModelGraded{grader: grader, question: question, reference: reference, logger: logger}
}

// Score issues the grading prompt and parses a numeric score from the reply.
func (m *ModelGraded) Score(ctx context.Context, response string) (results.Score, error) {
	prompt := fmt.Sprintf(`Compare the following response to the reference answer and score it based on accuracy:

Question: %s
Reference Answer: %s
Response to Evaluate: %s

%s

Provide only a numerical score (1, 3, 5, 7, or 10):`,
		m.question, m.reference, response, accuracyCriteria)

	temp := 0.0
	reply, err := m.grader.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleUser, Content: prompt},
		},
		MaxTokens:   10,
		Temperature: &temp,
	})
	if err != nil {
		return results.NullScore(), fmt.Errorf("eval: grading call: %w", err)
	}

	score, err := parseScore(reply.Content)
	if err != nil {
		m.logger.Warn("grading reply not parsable", "reply", reply.Content)
		return results.NullScore(), err
	}
	return results.ScoreOf(score), nil
}

// parseScore extracts a numeric score from a grading reply. Tolerates
// prose around the number; fails when no digits are present.
func parseScore(reply string) (float64, error) {
	trimmed := strings.TrimSpace(reply)
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, nil
	}
	match := scorePattern.FindString(trimmed)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableScore, reply)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableScore, reply)
	}
	return v, nil
}
