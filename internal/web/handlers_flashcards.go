package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/flashcards/internal/core"
)

type createManyRequest struct {
	Items []core.FlashcardInput `json:"items"`
}

type deleteManyRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// handleCreateFlashcard creates a single flashcard.
func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var in core.FlashcardInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.service.CreateFlashcard(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, idResponse{ID: id})
}

// handleCreateManyFlashcards creates a batch of flashcards in input order.
func (s *Server) handleCreateManyFlashcards(w http.ResponseWriter, r *http.Request) {
	var req createManyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.CreateManyFlashcards(r.Context(), req.Items)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

// handleGetFlashcard returns one flashcard.
func (s *Server) handleGetFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	card, err := s.service.GetFlashcard(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if card == nil {
		s.respondError(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

// handleListFlashcards lists flashcards filtered by category and status.
func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cards, err := s.service.ListFlashcards(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

// handleUpdateFlashcard applies a partial update.
func (s *Server) handleUpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var patch core.FlashcardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err = s.service.UpdateFlashcard(r.Context(), id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, idResponse{ID: id})
}

// handleDeleteFlashcard deletes one flashcard and its responses.
func (s *Server) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err = s.service.DeleteFlashcard(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, idResponse{ID: id})
}

// handleDeleteFlashcards deletes several flashcards and reports how many existed.
func (s *Server) handleDeleteFlashcards(w http.ResponseWriter, r *http.Request) {
	var req deleteManyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.DeleteFlashcards(r.Context(), req.IDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
