package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Sure! Here it is: {\"a\":1} Hope it helps.", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestAssistantUsecase_SuggestCategory(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGenerator{reply: "```json\n{\"category\": \"Software\"}\n```"}
	uc := NewAssistantUsecase(gen, testLog())
	category, err := uc.SuggestCategory(ctx, "Go Developer", "Backend services")
	require.NoError(t, err)
	assert.Equal(t, "software", category)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "customer-service")

	gen.reply = `{"category": "astronaut"}`
	category, err = uc.SuggestCategory(ctx, "Moon walker", "")
	require.NoError(t, err)
	assert.Equal(t, "other", category)

	_, err = uc.SuggestCategory(ctx, " ", "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	gen.err = errModelDown
	_, err = uc.SuggestCategory(ctx, "Go Developer", "")
	assert.ErrorIs(t, err, errModelDown)
}

func TestAssistantUsecase_OptimizeListing(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: `Here you go: {"title": "Senior Go Engineer", "description": "We build APIs."}`}
	uc := NewAssistantUsecase(gen, testLog())

	s, err := uc.OptimizeListing(ctx, "go dev", "we do apis")
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer", s.Title)
	assert.Equal(t, "We build APIs.", s.Description)

	gen.reply = `{"description": "Better text"}`
	s, err = uc.OptimizeListing(ctx, "go dev", "we do apis")
	require.NoError(t, err)
	assert.Equal(t, "go dev", s.Title, "missing fields keep the original")

	gen.reply = "I cannot help with that"
	_, err = uc.OptimizeListing(ctx, "go dev", "we do apis")
	assert.Error(t, err)
}

func TestAssistantUsecase_ChatReplyIncludesHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "  You can promote it from your dashboard. "}
	uc := NewAssistantUsecase(gen, testLog())
	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Body: "I posted a job"},
		{Role: domain.ChatRoleAssistant, Body: "Great!"},
	}

	reply, err := uc.ChatReply(context.Background(), history, "How do I promote it?")
	require.NoError(t, err)
	assert.Equal(t, "You can promote it from your dashboard.", reply)
	assert.Contains(t, gen.prompts[0], "user: I posted a job")
	assert.Contains(t, gen.prompts[0], "assistant: Great!")
	assert.Contains(t, gen.prompts[0], "user: How do I promote it?")
}
