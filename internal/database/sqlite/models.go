package sqlite

import (
	"github.com/google/uuid"

	"github.com/JonMunkholm/flashcards/internal/core"
)

type flashcardModel struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	Ukrainian string    `gorm:"not null"`
	English   string    `gorm:"not null"`
	Category  *string   `gorm:"index:idx_flashcards_category"`
	Tags      []string  `gorm:"serializer:json"`
	CreatedAt int64     `gorm:"not null;autoCreateTime:false;index:idx_flashcards_created_at"`

	Responses []responseModel `gorm:"foreignKey:FlashcardID;constraint:OnDelete:CASCADE"`
}

func (flashcardModel) TableName() string { return "flashcards" }

func (m flashcardModel) toCore() core.Flashcard {
	return core.Flashcard{
		ID:        m.ID,
		Ukrainian: m.Ukrainian,
		English:   m.English,
		Category:  m.Category,
		Tags:      m.Tags,
		CreatedAt: m.CreatedAt,
	}
}

func flashcardFromCore(c core.Flashcard) flashcardModel {
	return flashcardModel{
		ID:        c.ID,
		Ukrainian: c.Ukrainian,
		English:   c.English,
		Category:  c.Category,
		Tags:      c.Tags,
		CreatedAt: c.CreatedAt,
	}
}

type responseModel struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	FlashcardID uuid.UUID `gorm:"type:text;not null;index:idx_responses_flashcard_user,priority:1"`
	UserID      string    `gorm:"not null;index:idx_responses_flashcard_user,priority:2;index:idx_responses_user,priority:1"`
	Remembered  bool      `gorm:"not null"`
	CreatedAt   int64     `gorm:"not null;autoCreateTime:false;index:idx_responses_flashcard_user,priority:3;index:idx_responses_user,priority:2"`
}

func (responseModel) TableName() string { return "responses" }

func (m responseModel) toCore() core.Response {
	return core.Response{
		ID:          m.ID,
		FlashcardID: m.FlashcardID,
		UserID:      m.UserID,
		Remembered:  m.Remembered,
		CreatedAt:   m.CreatedAt,
	}
}
