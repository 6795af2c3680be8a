package answergen

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// GeminiClient implements domain.AnswerGenerator on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("project id and location are required for the gemini client")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Answer implements domain.AnswerGenerator.
func (g *GeminiClient) Answer(ctx context.Context, answerCtx domain.AnswerContext, question string) (string, error) {
	system := BuildSystemPrompt(answerCtx)

	var contents []*genai.Content
	for _, m := range answerCtx.History {
		role := genai.Role(genai.RoleUser)
		if m.Author == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", domain.NewProviderError("gemini.answer", err)
	}

	text := res.Text()
	if text == "" {
		return "", domain.NewProviderError("gemini.answer", fmt.Errorf("empty completion"))
	}

	return text, nil
}
