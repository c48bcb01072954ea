// Package postgres implements core.Store on PostgreSQL through a pgx pool.
// Queries are built with squirrel; the schema lives in embedded goose
// migrations.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/flashcards/internal/core"
)

// Querier is the common interface implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	flashcardColumns = []string{"id", "ukrainian", "english", "category", "tags", "created_at"}
	responseColumns  = []string{"id", "flashcard_id", "user_id", "remembered", "created_at"}
)

type flashcardRow struct {
	ID        uuid.UUID `db:"id"`
	Ukrainian string    `db:"ukrainian"`
	English   string    `db:"english"`
	Category  *string   `db:"category"`
	Tags      []string  `db:"tags"`
	CreatedAt int64     `db:"created_at"`
}

func (r flashcardRow) toCore() core.Flashcard {
	return core.Flashcard(r)
}

type responseRow struct {
	ID          uuid.UUID `db:"id"`
	FlashcardID uuid.UUID `db:"flashcard_id"`
	UserID      string    `db:"user_id"`
	Remembered  bool      `db:"remembered"`
	CreatedAt   int64     `db:"created_at"`
}

func (r responseRow) toCore() core.Response {
	return core.Response(r)
}

// Store is the PostgreSQL core.Store.
type Store struct {
	db Querier
}

// NewStore returns a Store running its queries on db.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) InsertFlashcard(ctx context.Context, card core.Flashcard) error {
	query, args, err := psql.Insert("flashcards").
		Columns(flashcardColumns...).
		Values(card.ID, card.Ukrainian, card.English, card.Category, card.Tags, card.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert flashcard: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return mapError(err, "flashcard", card.ID)
	}
	return nil
}

func (s *Store) GetFlashcard(ctx context.Context, id uuid.UUID) (*core.Flashcard, error) {
	query, args, err := psql.Select(flashcardColumns...).
		From("flashcards").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get flashcard: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "flashcard", id)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[flashcardRow])
	if err != nil {
		return nil, mapError(err, "flashcard", id)
	}

	card := row.toCore()
	return &card, nil
}

// UpdateFlashcard sets only the non-nil patch fields in one statement.
func (s *Store) UpdateFlashcard(ctx context.Context, id uuid.UUID, patch core.FlashcardPatch) error {
	if patch.Empty() {
		_, err := s.GetFlashcard(ctx, id)
		return err
	}

	update := psql.Update("flashcards").Where(sq.Eq{"id": id})
	if patch.Ukrainian != nil {
		update = update.Set("ukrainian", *patch.Ukrainian)
	}
	if patch.English != nil {
		update = update.Set("english", *patch.English)
	}
	if patch.Category != nil {
		update = update.Set("category", *patch.Category)
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		update = update.Set("tags", tags)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update flashcard: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "flashcard", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "flashcard", id)
	}
	return nil
}

// DeleteFlashcard relies on ON DELETE CASCADE to remove the card's responses.
func (s *Store) DeleteFlashcard(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("flashcards").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete flashcard: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "flashcard", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, "flashcard", id)
	}
	return nil
}

func (s *Store) ListFlashcards(ctx context.Context, category string) ([]core.Flashcard, error) {
	sel := psql.Select(flashcardColumns...).
		From("flashcards").
		OrderBy("created_at ASC", "id ASC")
	if category != "" {
		sel = sel.Where(sq.Eq{"category": category})
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list flashcards: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[flashcardRow])
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}

	cards := make([]core.Flashcard, len(found))
	for i, r := range found {
		cards[i] = r.toCore()
	}
	return cards, nil
}

// InsertResponse fails with core.ErrNotFound when the flashcard is missing,
// through the foreign key.
func (s *Store) InsertResponse(ctx context.Context, resp core.Response) error {
	query, args, err := psql.Insert("responses").
		Columns(responseColumns...).
		Values(resp.ID, resp.FlashcardID, resp.UserID, resp.Remembered, resp.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert response: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return mapError(err, "flashcard", resp.FlashcardID)
	}
	return nil
}

func (s *Store) ListResponses(ctx context.Context, flashcardID uuid.UUID, userID string) ([]core.Response, error) {
	return s.selectResponses(ctx, flashcardID, psql.Select(responseColumns...).
		From("responses").
		Where(sq.Eq{"flashcard_id": flashcardID, "user_id": userID}).
		OrderBy("created_at ASC", "id ASC"))
}

func (s *Store) LastResponse(ctx context.Context, flashcardID uuid.UUID, userID string) (*core.Response, error) {
	found, err := s.selectResponses(ctx, flashcardID, psql.Select(responseColumns...).
		From("responses").
		Where(sq.Eq{"flashcard_id": flashcardID, "user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *Store) selectResponses(ctx context.Context, flashcardID uuid.UUID, sel sq.SelectBuilder) ([]core.Response, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select responses: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "responses of flashcard", flashcardID)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[responseRow])
	if err != nil {
		return nil, mapError(err, "responses of flashcard", flashcardID)
	}

	out := make([]core.Response, len(found))
	for i, r := range found {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) DeleteResponses(ctx context.Context, flashcardID uuid.UUID, userID string) (int, error) {
	return s.deleteResponses(ctx, sq.Eq{"flashcard_id": flashcardID, "user_id": userID})
}

func (s *Store) DeleteUserResponses(ctx context.Context, userID string) (int, error) {
	return s.deleteResponses(ctx, sq.Eq{"user_id": userID})
}

func (s *Store) deleteResponses(ctx context.Context, where sq.Eq) (int, error) {
	query, args, err := psql.Delete("responses").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete responses: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete responses: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ core.Store = (*Store)(nil)
