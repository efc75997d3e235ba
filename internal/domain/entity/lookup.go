package entity

import (
	"time"

	"github.com/google/uuid"
)

// Lookup запись истории распознаваний пользователя.
type Lookup struct {
	ID           uuid.UUID `json:"id"`
	UserID       int64     `json:"user_id"`
	ChatID       int64     `json:"chat_id"`
	Label        string    `json:"label"`
	Title        string    `json:"title"`
	Confidence   float32   `json:"confidence"`
	PageID       string    `json:"page_id,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLookup создаёт запись истории для результата распознавания.
func NewLookup(userID, chatID int64, ident *Identification) *Lookup {
	return &Lookup{
		ID:           uuid.New(),
		UserID:       userID,
		ChatID:       chatID,
		Label:        ident.Label,
		Title:        ident.Title,
		Confidence:   ident.Confidence,
		PageID:       ident.Info.PageID,
		ThumbnailURL: ident.Info.ThumbnailURL,
		CreatedAt:    time.Now().UTC(),
	}
}
