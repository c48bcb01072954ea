package web

// This file contains shared request helpers used across handlers.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/flashcards/internal/core"
)

// maxJSONBody bounds request bodies of the non-import endpoints.
const maxJSONBody = 1 << 20

// healthTimeout bounds the database ping of the health check.
const healthTimeout = 2 * time.Second

// decodeJSON reads a single JSON value from the request body into v.
// Malformed bodies are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.NewValidationError("body", "request body is empty")
		}
		return core.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// parseID reads the {id} URL parameter as a UUID.
func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.NewValidationError("id", fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// parseListFilter reads the list query parameters.
func parseListFilter(r *http.Request) (core.ListFilter, error) {
	q := r.URL.Query()
	f := core.ListFilter{
		Category: q.Get("category"),
		Status:   core.Status(q.Get("status")),
		UserID:   q.Get("userId"),
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, core.NewValidationError("limit", fmt.Sprintf("invalid limit %q", raw))
		}
		f.Limit = &n
	}
	return f, nil
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ImportSlots int    `json:"importSlots"`
	Error       string `json:"error,omitempty"`
}

// handleHealth reports whether the service can reach its database, and how
// many import slots are free.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{
			Status:      "unavailable",
			ImportSlots: s.imports.Available(),
			Error:       err.Error(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", ImportSlots: s.imports.Available()})
}
