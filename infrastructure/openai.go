package infrastructure

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
