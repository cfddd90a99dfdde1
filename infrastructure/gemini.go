package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiModels are tried in order until one answers.
var geminiModels = []string{
	"gemini-2.0-flash-001",
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-flash-latest",
}

// GeminiClient talks to the Gemini REST API directly.
type GeminiClient struct {
	apiKey  string
	baseURL string
	models  []string
	http    *http.Client
	log     *logrus.Entry
}

func NewGeminiClient(apiKey string, log *logrus.Entry) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		models:  geminiModels,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}, nil
}

// Generate returns the first candidate's text, falling back through the
// model list on failure.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, model := range g.models {
		text, err := g.generateWithModel(ctx, prompt, model)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		g.log.WithError(err).WithField("model", model).Warn("gemini model failed")
	}
	return "", fmt.Errorf("all gemini models failed: %w", lastErr)
}

func (g *GeminiClient) generateWithModel(ctx context.Context, prompt, model string) (string, error) {
	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.2,
			"topP":        0.8,
			"topK":        40,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", errors.New("no text in gemini response")
	}
	return strings.TrimSpace(text.String()), nil
}
