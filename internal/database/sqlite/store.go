// Package sqlite implements core.Store on a single SQLite file through gorm,
// for running the server without PostgreSQL.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/flashcards/internal/core"
)

// Open opens (creating if needed) the database file at path and migrates
// the schema. SQLite allows one writer, so the pool holds one connection.
func Open(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&flashcardModel{}, &responseModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return db, nil
}

// Store is the SQLite core.Store.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store on a database opened with Open.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entity, id, core.ErrNotFound)
}

func (s *Store) InsertFlashcard(ctx context.Context, card core.Flashcard) error {
	m := flashcardFromCore(card)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("flashcard %s: %w", card.ID, err)
	}
	return nil
}

func (s *Store) GetFlashcard(ctx context.Context, id uuid.UUID) (*core.Flashcard, error) {
	var m flashcardModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("flashcard", id)
	}
	if err != nil {
		return nil, fmt.Errorf("flashcard %s: %w", id, err)
	}

	card := m.toCore()
	return &card, nil
}

// UpdateFlashcard loads the row, applies the patch and saves it back in one
// transaction. Saving the whole struct keeps the tags serializer in play.
func (s *Store) UpdateFlashcard(ctx context.Context, id uuid.UUID, patch core.FlashcardPatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m flashcardModel
		err := tx.Where("id = ?", id).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("flashcard", id)
		}
		if err != nil {
			return fmt.Errorf("flashcard %s: %w", id, err)
		}

		updated := flashcardFromCore(patch.Apply(m.toCore()))
		if patch.Tags != nil && updated.Tags == nil {
			updated.Tags = []string{}
		}
		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("flashcard %s: %w", id, err)
		}
		return nil
	})
}

// DeleteFlashcard removes the card's responses and then the card, in one
// transaction.
func (s *Store) DeleteFlashcard(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flashcard_id = ?", id).Delete(&responseModel{}).Error; err != nil {
			return fmt.Errorf("responses of flashcard %s: %w", id, err)
		}

		res := tx.Where("id = ?", id).Delete(&flashcardModel{})
		if res.Error != nil {
			return fmt.Errorf("flashcard %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("flashcard", id)
		}
		return nil
	})
}

func (s *Store) ListFlashcards(ctx context.Context, category string) ([]core.Flashcard, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var models []flashcardModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}

	cards := make([]core.Flashcard, len(models))
	for i, m := range models {
		cards[i] = m.toCore()
	}
	return cards, nil
}

// InsertResponse checks the flashcard exists in the same transaction, so a
// missing card is reported as core.ErrNotFound.
func (s *Store) InsertResponse(ctx context.Context, resp core.Response) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&flashcardModel{}).Where("id = ?", resp.FlashcardID).Count(&n).Error; err != nil {
			return fmt.Errorf("flashcard %s: %w", resp.FlashcardID, err)
		}
		if n == 0 {
			return notFound("flashcard", resp.FlashcardID)
		}

		m := responseModel{
			ID:          resp.ID,
			FlashcardID: resp.FlashcardID,
			UserID:      resp.UserID,
			Remembered:  resp.Remembered,
			CreatedAt:   resp.CreatedAt,
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("response %s: %w", resp.ID, err)
		}
		return nil
	})
}

func (s *Store) ListResponses(ctx context.Context, flashcardID uuid.UUID, userID string) ([]core.Response, error) {
	var models []responseModel
	err := s.db.WithContext(ctx).
		Where("flashcard_id = ? AND user_id = ?", flashcardID, userID).
		Order("created_at ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("responses of flashcard %s: %w", flashcardID, err)
	}

	out := make([]core.Response, len(models))
	for i, m := range models {
		out[i] = m.toCore()
	}
	return out, nil
}

func (s *Store) LastResponse(ctx context.Context, flashcardID uuid.UUID, userID string) (*core.Response, error) {
	var models []responseModel
	err := s.db.WithContext(ctx).
		Where("flashcard_id = ? AND user_id = ?", flashcardID, userID).
		Order("created_at DESC").Order("id DESC").
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("last response of flashcard %s: %w", flashcardID, err)
	}
	if len(models) == 0 {
		return nil, nil
	}

	r := models[0].toCore()
	return &r, nil
}

func (s *Store) DeleteResponses(ctx context.Context, flashcardID uuid.UUID, userID string) (int, error) {
	res := s.db.WithContext(ctx).
		Where("flashcard_id = ? AND user_id = ?", flashcardID, userID).
		Delete(&responseModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete responses: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *Store) DeleteUserResponses(ctx context.Context, userID string) (int, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&responseModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete responses: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

var _ core.Store = (*Store)(nil)
