package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks policy-rag/internal/llm ChatModel,Embedder

import "context"

// ChatParams holds parameters for a single completion request.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	// Answer generation always sends 0.
	Temperature float32
}

// ChatModel renders a prompt into generated text. Both the OpenAI-compatible
// Client and the GeminiClient implement it.
type ChatModel interface {
	// Complete sends prompt as a single user turn and returns the generated text.
	Complete(ctx context.Context, prompt string, params ChatParams) (string, error)
}

// Embedder maps texts to fixed-size vectors. The same model must be used at
// ingestion and at query time.
type Embedder interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
