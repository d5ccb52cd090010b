package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiEmbedBatch is the Gemini API limit on contents per batchEmbedContents call.
const geminiEmbedBatch = 100

// GeminiClient talks to the Google Gemini API for both chat and embeddings.
type GeminiClient struct {
	client         *genai.Client
	Model          string
	EmbeddingModel string
	ExpectedSize   int
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// ExpectedSize is the vector size every embedding must have; 0 skips the check.
	ExpectedSize int
	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string
}

// NewGeminiClient creates a Gemini-backed ChatModel and Embedder.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		Model:          opts.Model,
		EmbeddingModel: opts.EmbeddingModel,
		ExpectedSize:   opts.ExpectedSize,
	}, nil
}

// Complete generates text for prompt with the configured Gemini model.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = g.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(params.Temperature),
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// EmbedTexts embeds texts with the configured Gemini embedding model.
func (g *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiEmbedBatch {
		end := min(start+geminiEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.EmbeddingModel, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini embed content: %w", err)
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(contents), len(resp.Embeddings))
		}

		for i, emb := range resp.Embeddings {
			if emb == nil {
				return nil, fmt.Errorf("embedding %d is missing", start+i)
			}
			if g.ExpectedSize > 0 && len(emb.Values) != g.ExpectedSize {
				return nil, fmt.Errorf("embedding %d has size %d, expected %d", start+i, len(emb.Values), g.ExpectedSize)
			}
			result = append(result, emb.Values)
		}
	}
	return result, nil
}
