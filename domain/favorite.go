package domain

import "time"

// Favorite marks a listing saved by a user.
type Favorite struct {
	UserID    string    `gorm:"primaryKey;size:36"`
	ListingID string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}
