package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"job-board/domain"
)

type AssistantUsecase struct {
	ai  Generator
	log *logrus.Entry
}

func NewAssistantUsecase(ai Generator, log *logrus.Entry) *AssistantUsecase {
	return &AssistantUsecase{ai: ai, log: log}
}

// ListingSuggestion is the assistant's rewrite of a listing.
type ListingSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SuggestCategory maps a listing onto one of domain.Categories. Anything the
// model answers outside that list becomes "other".
func (uc *AssistantUsecase) SuggestCategory(ctx context.Context, title, description string) (string, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		return "", domain.Invalid("title", "title or description is required")
	}

	prompt := fmt.Sprintf(`You classify job listings.

Allowed categories: %s

Job title: %s
Job description:
%s

Respond ONLY with valid JSON in this exact format:
{"category": "<one of the allowed categories>"}`,
		strings.Join(domain.Categories, ", "), title, truncateRunes(description, 4000))

	text, err := uc.ai.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("category suggestion failed: %w", err)
	}

	category := strings.ToLower(strings.TrimSpace(gjson.Get(CleanJSON(text), "category").String()))
	if !domain.IsCategory(category) {
		uc.log.WithField("answer", category).Debug("model answered an unknown category")
		return "other", nil
	}
	return category, nil
}

func (uc *AssistantUsecase) OptimizeListing(ctx context.Context, title, description string) (*ListingSuggestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.Invalid("description", "is required")
	}

	prompt := fmt.Sprintf(`You are an expert recruiter improving a job listing.
Rewrite the title to be clear and specific. Rewrite the description to be well
structured, inclusive and concise. Keep every fact; do not invent benefits,
salaries or requirements.

Title: %s
Description:
%s

Respond ONLY with valid JSON in this exact format:
{"title": "<improved title>", "description": "<improved description>"}`,
		title, truncateRunes(description, 8000))

	text, err := uc.ai.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("listing optimization failed: %w", err)
	}

	cleaned := CleanJSON(text)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("listing optimization returned invalid JSON: %.200s", cleaned)
	}
	result := gjson.Parse(cleaned)
	s := &ListingSuggestion{
		Title:       strings.TrimSpace(result.Get("title").String()),
		Description: strings.TrimSpace(result.Get("description").String()),
	}
	if s.Title == "" {
		s.Title = title
	}
	if s.Description == "" {
		s.Description = description
	}
	return s, nil
}

// ChatReply answers a support chat message given the earlier conversation.
func (uc *AssistantUsecase) ChatReply(ctx context.Context, history []domain.ChatMessage, message string) (string, error) {
	var b strings.Builder
	b.WriteString(`You are the support assistant of a job board. Help users search and post
job listings, promote listings, build their CV and manage their account.
Answer briefly and politely. If you cannot help, say that a human agent will
follow up.

Conversation so far:
`)
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Body)
	}
	fmt.Fprintf(&b, "user: %s\nassistant:", message)

	text, err := uc.ai.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// CleanJSON strips markdown fences and any prose around the first JSON
// object in a model answer.
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
