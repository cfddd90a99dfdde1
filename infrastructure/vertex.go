package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexClient uses Gemini through Vertex AI with application default
// credentials.
type VertexClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewVertexClient(ctx context.Context, project, location, model string) (*VertexClient, error) {
	if project == "" {
		return nil, errors.New("VERTEX_PROJECT environment variable not set")
	}
	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	return &VertexClient{client: client, model: m}, nil
}

func (v *VertexClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", errors.New("no text in vertex response")
	}
	return strings.TrimSpace(b.String()), nil
}

func (v *VertexClient) Close() error {
	return v.client.Close()
}
