package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/JonMunkholm/flashcards/internal/core"
	"github.com/JonMunkholm/flashcards/internal/logging"
	"github.com/JonMunkholm/flashcards/internal/web/templates"
)

// errNoFile is returned when a multipart import carries no "file" part.
var errNoFile = fmt.Errorf("%w: no file provided", core.ErrValidation)

type importRequest struct {
	CSVText         string `json:"csvText"`
	DefaultCategory string `json:"defaultCategory"`
}

// handleImport imports flashcards from CSV text, sent either as JSON
// {csvText, defaultCategory} or as a multipart form with a "file" part.
// Concurrent imports are bounded by the import limiter.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.imports.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBytes)

	req, err := s.readImportRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	result, err := s.service.ImportCSV(ctx, req.CSVText, req.DefaultCategory)
	if err != nil {
		logging.FromContext(r.Context()).Error("import incomplete",
			"inserted", result.Inserted,
			"skipped", result.Skipped,
		)
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := templates.ImportSummary(result.Inserted, result.Skipped, result.Errors).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render import summary", "error", err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// readImportRequest extracts the CSV text and default category from either
// a multipart form or a JSON body.
func (s *Server) readImportRequest(r *http.Request) (importRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req importRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return req, err
			}
			return req, core.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(s.cfg.Import.MaxBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return importRequest{}, err
		}
		return importRequest{}, core.NewValidationError("file", fmt.Sprintf("invalid form: %v", err))
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return importRequest{}, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return importRequest{}, fmt.Errorf("read upload: %w", err)
	}

	return importRequest{
		CSVText:         string(data),
		DefaultCategory: r.FormValue("defaultCategory"),
	}, nil
}
