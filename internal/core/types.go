package core

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUserID is the pseudo-user responses belong to when no user is given.
const DefaultUserID = "global"

// Flashcard is a Ukrainian/English word pair.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	Ukrainian string    `json:"ukrainian"`
	English   string    `json:"english"`
	Category  *string   `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt int64     `json:"createdAt"` // ms since epoch
}

// Response is one recorded study attempt of a flashcard by a user.
type Response struct {
	ID          uuid.UUID `json:"id"`
	FlashcardID uuid.UUID `json:"flashcardId"`
	UserID      string    `json:"userId"`
	Remembered  bool      `json:"remembered"`
	CreatedAt   int64     `json:"createdAt"` // ms since epoch
}

// Status is the review state of a flashcard derived from its latest response.
type Status string

const (
	StatusUnseen        Status = "unseen"
	StatusRemembered    Status = "remembered"
	StatusNotRemembered Status = "notRemembered"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnseen, StatusRemembered, StatusNotRemembered:
		return true
	}
	return false
}

// FlashcardInput holds the fields of a flashcard to create.
type FlashcardInput struct {
	Ukrainian string   `json:"ukrainian"`
	English   string   `json:"english"`
	Category  *string  `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// FlashcardPatch is a partial update. Nil fields are left untouched; non-nil
// fields overwrite, including empty values.
type FlashcardPatch struct {
	Ukrainian *string   `json:"ukrainian,omitempty"`
	English   *string   `json:"english,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p FlashcardPatch) Empty() bool {
	return p.Ukrainian == nil && p.English == nil && p.Category == nil && p.Tags == nil
}

// Apply returns card with the patch fields written over it.
func (p FlashcardPatch) Apply(card Flashcard) Flashcard {
	if p.Ukrainian != nil {
		card.Ukrainian = *p.Ukrainian
	}
	if p.English != nil {
		card.English = *p.English
	}
	if p.Category != nil {
		c := *p.Category
		card.Category = &c
	}
	if p.Tags != nil {
		card.Tags = append([]string(nil), (*p.Tags)...)
	}
	return card
}

// ResponseInput records a study attempt. An empty UserID means the default user.
type ResponseInput struct {
	FlashcardID uuid.UUID `json:"flashcardId"`
	Remembered  bool      `json:"remembered"`
	UserID      string    `json:"userId,omitempty"`
}

// ResetInput scopes a progress reset. With a FlashcardID only that card's
// responses of the user are removed; without one, all of the user's responses.
type ResetInput struct {
	FlashcardID *uuid.UUID `json:"flashcardId,omitempty"`
	UserID      string     `json:"userId,omitempty"`
}

// ListFilter narrows ListFlashcards. Zero values mean "not given".
type ListFilter struct {
	Category string
	Status   Status
	Limit    *int
	UserID   string
}

// Progress summarizes the responses of one user to one flashcard.
type Progress struct {
	YesCount     int       `json:"yesCount"`
	NoCount      int       `json:"noCount"`
	Total        int       `json:"total"`
	LastResponse *Response `json:"lastResponse"`
}

// CreateManyResult is returned by CreateManyFlashcards.
type CreateManyResult struct {
	Count int         `json:"count"`
	IDs   []uuid.UUID `json:"ids"`
}

// CountResult carries the number of records a bulk operation touched.
type CountResult struct {
	Count int `json:"count"`
}

// ImportResult is the outcome of a CSV import.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// millis converts t to milliseconds since the Unix epoch.
func millis(t time.Time) int64 {
	return t.UnixMilli()
}
