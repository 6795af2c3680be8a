package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// Client converts text into embedding vectors via the OpenAI API.
type Client struct {
	api   *openai.Client
	model openai.EmbeddingModel
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: openai.SmallEmbedding3,
	}, nil
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, domain.NewProviderError("openai.embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, domain.NewProviderError("openai.embed", fmt.Errorf("empty embedding response"))
	}
	return resp.Data[0].Embedding, nil
}
