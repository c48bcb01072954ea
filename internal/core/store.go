package core

import (
	"context"

	"github.com/google/uuid"
)

// Store persists flashcards and responses.
//
// Flashcards are returned in store order: createdAt ascending, then id
// ascending. Responses of one flashcard and user are ordered by createdAt,
// then id. Methods that address a single record return an error wrapping
// ErrNotFound when it does not exist.
type Store interface {
	InsertFlashcard(ctx context.Context, card Flashcard) error
	GetFlashcard(ctx context.Context, id uuid.UUID) (*Flashcard, error)
	// UpdateFlashcard writes the non-nil patch fields to the stored card.
	UpdateFlashcard(ctx context.Context, id uuid.UUID, patch FlashcardPatch) error
	// DeleteFlashcard removes the card and all of its responses.
	DeleteFlashcard(ctx context.Context, id uuid.UUID) error
	// ListFlashcards returns every card, or the cards of one category when
	// category is non-empty.
	ListFlashcards(ctx context.Context, category string) ([]Flashcard, error)

	InsertResponse(ctx context.Context, resp Response) error
	ListResponses(ctx context.Context, flashcardID uuid.UUID, userID string) ([]Response, error)
	// LastResponse returns the latest response, or nil when there is none.
	LastResponse(ctx context.Context, flashcardID uuid.UUID, userID string) (*Response, error)
	DeleteResponses(ctx context.Context, flashcardID uuid.UUID, userID string) (int, error)
	DeleteUserResponses(ctx context.Context, userID string) (int, error)
}
