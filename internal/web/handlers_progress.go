package web

import (
	"net/http"

	"github.com/JonMunkholm/flashcards/internal/core"
)

// handleRecordResponse records a remembered/forgotten answer.
func (s *Server) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	var in core.ResponseInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.service.RecordResponse(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, idResponse{ID: id})
}

// handleResetProgress deletes responses for a user, optionally for one card.
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	var in core.ResetInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ResetProgress(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleGetProgress summarizes a user's responses to one flashcard.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	progress, err := s.service.GetFlashcardProgress(r.Context(), id, r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progress)
}
