package llm

import (
	"context"
	"fmt"
)

// Provider names accepted by NewProviders.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Providers selects and configures the chat and embedding backends.
type Providers struct {
	ChatProvider string
	ChatBaseURL  string
	ChatModel    string
	APIKey       string

	EmbeddingProvider string
	EmbeddingBaseURL  string
	EmbeddingModel    string
	VectorSize        int

	GeminiAPIKey string
}

// NewProviders builds the chat model and embedder named by p. When both use
// Gemini they share one client.
func NewProviders(ctx context.Context, p Providers) (ChatModel, Embedder, error) {
	var gemini *GeminiClient
	geminiClient := func() (*GeminiClient, error) {
		if gemini != nil {
			return gemini, nil
		}
		client, err := NewGeminiClient(ctx, GeminiOptions{
			APIKey:         p.GeminiAPIKey,
			Model:          p.ChatModel,
			EmbeddingModel: p.EmbeddingModel,
			ExpectedSize:   p.VectorSize,
		})
		if err != nil {
			return nil, err
		}
		gemini = client
		return gemini, nil
	}

	var chat ChatModel
	switch p.ChatProvider {
	case ProviderOpenAI:
		chat = NewClient(p.ChatBaseURL, p.APIKey, p.ChatModel)
	case ProviderGemini:
		client, err := geminiClient()
		if err != nil {
			return nil, nil, err
		}
		chat = client
	default:
		return nil, nil, fmt.Errorf("unsupported chat provider %q", p.ChatProvider)
	}

	var embedder Embedder
	switch p.EmbeddingProvider {
	case ProviderOpenAI:
		embedder = NewEmbeddingsClient(p.EmbeddingBaseURL, p.APIKey, p.EmbeddingModel, p.VectorSize)
	case ProviderGemini:
		client, err := geminiClient()
		if err != nil {
			return nil, nil, err
		}
		embedder = client
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider %q", p.EmbeddingProvider)
	}

	return chat, embedder, nil
}

// ValidateEmbedder embeds a probe text and checks the vector size, so a
// mismatched model fails at startup instead of at the first query.
func ValidateEmbedder(ctx context.Context, embedder Embedder, vectorSize int) error {
	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != vectorSize {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", vectorSize, got)
	}
	return nil
}
