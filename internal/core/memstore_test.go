package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu        sync.Mutex
	cards     map[uuid.UUID]Flashcard
	responses []Response

	insertCalls       int
	lastResponseCalls int
	failInsertAfter   int // fail InsertFlashcard once this many cards exist; 0 disables
}

func newMemStore() *memStore {
	return &memStore{cards: make(map[uuid.UUID]Flashcard)}
}

var errInsertFailed = errors.New("insert failed")

func (m *memStore) InsertFlashcard(_ context.Context, card Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.failInsertAfter > 0 && len(m.cards) >= m.failInsertAfter {
		return errInsertFailed
	}
	m.cards[card.ID] = card
	return nil
}

func (m *memStore) GetFlashcard(_ context.Context, id uuid.UUID) (*Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &card, nil
}

func (m *memStore) UpdateFlashcard(_ context.Context, id uuid.UUID, patch FlashcardPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return ErrNotFound
	}
	m.cards[id] = patch.Apply(card)
	return nil
}

func (m *memStore) DeleteFlashcard(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return ErrNotFound
	}
	delete(m.cards, id)
	kept := m.responses[:0]
	for _, r := range m.responses {
		if r.FlashcardID != id {
			kept = append(kept, r)
		}
	}
	m.responses = kept
	return nil
}

func (m *memStore) ListFlashcards(_ context.Context, category string) ([]Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Flashcard
	for _, c := range m.cards {
		if category != "" && (c.Category == nil || *c.Category != category) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (m *memStore) InsertResponse(_ context.Context, resp Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[resp.FlashcardID]; !ok {
		return fmt.Errorf("flashcard %s: %w", resp.FlashcardID, ErrNotFound)
	}
	m.responses = append(m.responses, resp)
	return nil
}

func (m *memStore) ListResponses(_ context.Context, flashcardID uuid.UUID, userID string) ([]Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Response
	for _, r := range m.responses {
		if r.FlashcardID == flashcardID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) LastResponse(ctx context.Context, flashcardID uuid.UUID, userID string) (*Response, error) {
	m.mu.Lock()
	m.lastResponseCalls++
	m.mu.Unlock()
	rs, err := m.ListResponses(ctx, flashcardID, userID)
	if err != nil {
		return nil, err
	}
	return Latest(rs), nil
}

func (m *memStore) DeleteResponses(_ context.Context, flashcardID uuid.UUID, userID string) (int, error) {
	return m.deleteWhere(func(r Response) bool {
		return r.FlashcardID == flashcardID && r.UserID == userID
	}), nil
}

func (m *memStore) DeleteUserResponses(_ context.Context, userID string) (int, error) {
	return m.deleteWhere(func(r Response) bool { return r.UserID == userID }), nil
}

func (m *memStore) deleteWhere(match func(Response) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.responses[:0]
	n := 0
	for _, r := range m.responses {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.responses = kept
	return n
}

// fakeClock returns a now func that advances by step on every call.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

// newTestService returns a service over a fresh memStore whose clock moves
// one millisecond per call.
func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store, "")
	svc.now = fakeClock(time.UnixMilli(1_700_000_000_000), time.Millisecond)
	return svc, store
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
