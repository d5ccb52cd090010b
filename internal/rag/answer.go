package rag

import (
	"context"
	"errors"
	"strings"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/llm"
)

// AnswerGenerator writes the final answer from formatted clauses.
type AnswerGenerator struct {
	model llm.ChatModel
}

// NewAnswerGenerator creates an AnswerGenerator.
func NewAnswerGenerator(model llm.ChatModel) *AnswerGenerator {
	return &AnswerGenerator{model: model}
}

// Answer makes one model call at temperature 0. A failed call or a blank
// reply comes back as *GenerationError.
func (g *AnswerGenerator) Answer(ctx context.Context, clauses, question string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := answerPrompt(clauses, question)
	logger.DebugContext(ctx, "sending answer prompt", "prompt_length", len(prompt))

	answer, err := g.model.Complete(ctx, prompt, llm.ChatParams{Temperature: 0})
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err)
		return "", &GenerationError{Stage: "answer", Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", &GenerationError{Stage: "answer", Err: errors.New("model returned an empty answer")}
	}
	return answer, nil
}
