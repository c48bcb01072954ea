package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/flashcards/internal/logging"
)

// Service implements the flashcard operations on top of a Store.
type Service struct {
	store       Store
	defaultUser string
	now         func() time.Time
	newID       func() (uuid.UUID, error)
}

// NewService creates a Service. defaultUser is the user responses are
// attributed to when a caller gives none; an empty value means DefaultUserID.
func NewService(store Store, defaultUser string) *Service {
	if defaultUser == "" {
		defaultUser = DefaultUserID
	}
	return &Service{
		store:       store,
		defaultUser: defaultUser,
		now:         time.Now,
		newID:       uuid.NewV7,
	}
}

func (s *Service) userOrDefault(userID string) string {
	if userID == "" {
		return s.defaultUser
	}
	return userID
}

// validateInput checks the non-empty invariant of a new flashcard.
func validateInput(in FlashcardInput) error {
	var errs []FieldError
	if strings.TrimSpace(in.Ukrainian) == "" {
		errs = append(errs, FieldError{Field: "ukrainian", Message: "required"})
	}
	if strings.TrimSpace(in.English) == "" {
		errs = append(errs, FieldError{Field: "english", Message: "required"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func (s *Service) buildFlashcard(in FlashcardInput, createdAt int64) (Flashcard, error) {
	id, err := s.newID()
	if err != nil {
		return Flashcard{}, fmt.Errorf("generate flashcard id: %w", err)
	}
	card := Flashcard{
		ID:        id,
		Ukrainian: in.Ukrainian,
		English:   in.English,
		CreatedAt: createdAt,
	}
	if in.Category != nil {
		c := *in.Category
		card.Category = &c
	}
	if in.Tags != nil {
		card.Tags = append([]string(nil), in.Tags...)
	}
	return card, nil
}

// CreateFlashcard stores a new flashcard and returns its id.
func (s *Service) CreateFlashcard(ctx context.Context, in FlashcardInput) (uuid.UUID, error) {
	if err := validateInput(in); err != nil {
		return uuid.Nil, err
	}

	card, err := s.buildFlashcard(in, millis(s.now()))
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.store.InsertFlashcard(ctx, card); err != nil {
		return uuid.Nil, fmt.Errorf("create flashcard: %w", err)
	}
	return card.ID, nil
}

// CreateManyFlashcards stores items one by one; every item shares one
// creation time. The inserts are independent: when one fails, the cards
// stored before it stay, and the result lists them alongside the error.
func (s *Service) CreateManyFlashcards(ctx context.Context, items []FlashcardInput) (CreateManyResult, error) {
	result := CreateManyResult{IDs: []uuid.UUID{}}

	for i, item := range items {
		if err := validateInput(item); err != nil {
			return result, fmt.Errorf("item %d: %w", i, err)
		}
	}

	createdAt := millis(s.now())
	for i, item := range items {
		card, err := s.buildFlashcard(item, createdAt)
		if err != nil {
			return result, err
		}
		if err := s.store.InsertFlashcard(ctx, card); err != nil {
			return result, fmt.Errorf("create flashcard %d of %d: %w", i+1, len(items), err)
		}
		result.IDs = append(result.IDs, card.ID)
		result.Count++
	}

	return result, nil
}

// UpdateFlashcard applies a partial update. Only non-nil patch fields are
// written; an explicitly empty category or tag list overwrites the old value.
func (s *Service) UpdateFlashcard(ctx context.Context, id uuid.UUID, patch FlashcardPatch) (uuid.UUID, error) {
	if patch.Ukrainian != nil && strings.TrimSpace(*patch.Ukrainian) == "" {
		return uuid.Nil, NewValidationError("ukrainian", "must not be empty")
	}
	if patch.English != nil && strings.TrimSpace(*patch.English) == "" {
		return uuid.Nil, NewValidationError("english", "must not be empty")
	}

	if patch.Empty() {
		if _, err := s.store.GetFlashcard(ctx, id); err != nil {
			return uuid.Nil, fmt.Errorf("update flashcard: %w", err)
		}
		return id, nil
	}

	if err := s.store.UpdateFlashcard(ctx, id, patch); err != nil {
		return uuid.Nil, fmt.Errorf("update flashcard: %w", err)
	}
	return id, nil
}

// DeleteFlashcard removes a flashcard together with its responses.
func (s *Service) DeleteFlashcard(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if err := s.store.DeleteFlashcard(ctx, id); err != nil {
		return uuid.Nil, fmt.Errorf("delete flashcard: %w", err)
	}
	return id, nil
}

// DeleteFlashcards removes every listed flashcard. Ids that do not exist are
// ignored; the count is the number of cards actually removed.
func (s *Service) DeleteFlashcards(ctx context.Context, ids []uuid.UUID) (CountResult, error) {
	var result CountResult
	for _, id := range ids {
		err := s.store.DeleteFlashcard(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("delete flashcards: %w", err)
		}
		result.Count++
	}
	return result, nil
}

// GetFlashcard returns one flashcard or an error wrapping ErrNotFound.
func (s *Service) GetFlashcard(ctx context.Context, id uuid.UUID) (*Flashcard, error) {
	card, err := s.store.GetFlashcard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get flashcard: %w", err)
	}
	return card, nil
}

// RecordResponse stores one study attempt and returns its id.
func (s *Service) RecordResponse(ctx context.Context, in ResponseInput) (uuid.UUID, error) {
	if in.FlashcardID == uuid.Nil {
		return uuid.Nil, NewValidationError("flashcardId", "required")
	}

	id, err := s.newID()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate response id: %w", err)
	}

	resp := Response{
		ID:          id,
		FlashcardID: in.FlashcardID,
		UserID:      s.userOrDefault(in.UserID),
		Remembered:  in.Remembered,
		CreatedAt:   millis(s.now()),
	}
	if err := s.store.InsertResponse(ctx, resp); err != nil {
		return uuid.Nil, fmt.Errorf("record response: %w", err)
	}
	return resp.ID, nil
}

// ResetProgress deletes responses of one user, either for a single flashcard
// or for all of them, and returns how many were deleted.
func (s *Service) ResetProgress(ctx context.Context, in ResetInput) (CountResult, error) {
	userID := s.userOrDefault(in.UserID)
	logger := logging.WithFields(ctx, "op", "reset_progress", "user_id", userID)

	var (
		n   int
		err error
	)
	if in.FlashcardID != nil {
		n, err = s.store.DeleteResponses(ctx, *in.FlashcardID, userID)
	} else {
		n, err = s.store.DeleteUserResponses(ctx, userID)
	}
	if err != nil {
		return CountResult{}, fmt.Errorf("reset progress: %w", err)
	}

	logger.Info("progress reset", "deleted", n, "single_card", in.FlashcardID != nil)
	return CountResult{Count: n}, nil
}

// GetFlashcardProgress summarizes the responses of one user to one flashcard.
func (s *Service) GetFlashcardProgress(ctx context.Context, flashcardID uuid.UUID, userID string) (Progress, error) {
	responses, err := s.store.ListResponses(ctx, flashcardID, s.userOrDefault(userID))
	if err != nil {
		return Progress{}, fmt.Errorf("get progress: %w", err)
	}
	return Summarize(responses), nil
}

// ListFlashcards returns flashcards in store order.
//
// Without a status, Limit caps the result to the first N cards and responses
// are never read. With a status, cards are checked one at a time against
// their latest response, and the scan stops as soon as Limit matches are
// found.
func (s *Service) ListFlashcards(ctx context.Context, f ListFilter) ([]Flashcard, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Limit != nil && *f.Limit < 0 {
		return nil, NewValidationError("limit", "must not be negative")
	}

	cards, err := s.store.ListFlashcards(ctx, f.Category)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}

	if cards == nil {
		cards = []Flashcard{}
	}

	if f.Status == "" {
		if f.Limit != nil && *f.Limit < len(cards) {
			cards = cards[:*f.Limit]
		}
		return cards, nil
	}

	userID := s.userOrDefault(f.UserID)
	results := []Flashcard{}
	if f.Limit != nil && *f.Limit == 0 {
		return results, nil
	}

	for _, card := range cards {
		last, err := s.store.LastResponse(ctx, card.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("list flashcards: last response of %s: %w", card.ID, err)
		}
		if StatusOf(last) != f.Status {
			continue
		}
		results = append(results, card)
		if f.Limit != nil && len(results) >= *f.Limit {
			break
		}
	}

	logging.FromContext(ctx).Debug("status scan finished",
		"status", f.Status,
		"candidates", len(cards),
		"matched", len(results),
	)
	return results, nil
}
