package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

const (
	chatContextMessages = 10
	chatHistoryLimit    = 200
	chatFallbackReply   = "Thanks for your message. A member of our team will get back to you shortly."
)

type ChatUsecase struct {
	repo      ChatRepository
	assistant *AssistantUsecase
	broadcast ChatBroadcaster
	log       *logrus.Entry
	now       func() time.Time
}

func NewChatUsecase(repo ChatRepository, assistant *AssistantUsecase, log *logrus.Entry) *ChatUsecase {
	return &ChatUsecase{repo: repo, assistant: assistant, log: log, now: utcNow}
}

// SetBroadcaster attaches the live hub. Messages are only persisted until one
// is set.
func (uc *ChatUsecase) SetBroadcaster(b ChatBroadcaster) {
	uc.broadcast = b
}

// ValidSessionID accepts 1-64 characters of letters, digits, '-' and '_'.
func ValidSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		ok := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// Send stores a user message and answers it. When the model fails the user
// gets a canned reply instead of an error.
func (uc *ChatUsecase) Send(ctx context.Context, sessionID string, actor domain.Actor, body string) (*domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if err := validateChat(sessionID, body); err != nil {
		return nil, err
	}

	history, err := uc.repo.Recent(ctx, sessionID, chatContextMessages)
	if err != nil {
		return nil, err
	}
	if _, err := uc.post(ctx, sessionID, actor, domain.ChatRoleUser, body); err != nil {
		return nil, err
	}

	reply, err := uc.assistant.ChatReply(ctx, history, body)
	if err != nil || reply == "" {
		uc.log.WithError(err).WithField("session", sessionID).Warn("chat reply failed, using fallback")
		reply = chatFallbackReply
	}
	return uc.post(ctx, sessionID, domain.Actor{}, domain.ChatRoleAssistant, reply)
}

// PostAgentMessage lets an admin answer in a session.
func (uc *ChatUsecase) PostAgentMessage(ctx context.Context, actor domain.Actor, sessionID, body string) (*domain.ChatMessage, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	body = strings.TrimSpace(body)
	if err := validateChat(sessionID, body); err != nil {
		return nil, err
	}
	return uc.post(ctx, sessionID, actor, domain.ChatRoleAgent, body)
}

func (uc *ChatUsecase) History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if !ValidSessionID(sessionID) {
		return nil, domain.Invalid("session", "is not a valid session id")
	}
	if limit < 1 || limit > chatHistoryLimit {
		limit = chatHistoryLimit
	}
	return uc.repo.Recent(ctx, sessionID, limit)
}

func (uc *ChatUsecase) post(ctx context.Context, sessionID string, actor domain.Actor, role domain.ChatRole, body string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Body:      body,
		CreatedAt: uc.now(),
	}
	if actor.UserID != "" {
		id := actor.UserID
		m.UserID = &id
	}
	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	if uc.broadcast != nil {
		uc.broadcast.BroadcastChat(*m)
	}
	return m, nil
}

func validateChat(sessionID, body string) error {
	v := &domain.ValidationError{}
	if !ValidSessionID(sessionID) {
		v.Add("session", "is not a valid session id")
	}
	n := utf8.RuneCountInString(body)
	if n == 0 {
		v.Add("body", "is required")
	} else if n > domain.MaxChatMessageLength {
		v.Add("body", "is too long")
	}
	return v.OrNil()
}
