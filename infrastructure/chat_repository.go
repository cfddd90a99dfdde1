package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"job-board/domain"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, m *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Recent returns the last limit messages of a session in chronological order.
func (r *ChatRepository) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
