package answergen

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// OpenAIClient implements domain.AnswerGenerator on the chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Answer implements domain.AnswerGenerator.
func (c *OpenAIClient) Answer(ctx context.Context, answerCtx domain.AnswerContext, question string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(answerCtx)},
	}

	for _, m := range answerCtx.History {
		role := openai.ChatMessageRoleUser
		if m.Author == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == "context_length_exceeded" {
			return "", domain.ErrContextTooLarge
		}
		return "", domain.NewProviderError("openai.answer", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", domain.NewProviderError("openai.answer", fmt.Errorf("empty completion"))
	}

	return resp.Choices[0].Message.Content, nil
}
