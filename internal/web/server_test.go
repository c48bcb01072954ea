package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/flashcards/internal/config"
	"github.com/JonMunkholm/flashcards/internal/core"
	"github.com/JonMunkholm/flashcards/internal/database/sqlite"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{
			MaxBytes:      1 << 20,
			MaxConcurrent: 2,
			MaxWait:       50 * time.Millisecond,
			Timeout:       10 * time.Second,
		},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
		Study: config.StudyConfig{DefaultUserID: "global"},
	}
}

type testEnv struct {
	server  *Server
	imports *core.ImportLimiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	store := sqlite.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })

	cfg := testConfig()
	imports := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWait)
	svc := core.NewService(store, cfg.Study.DefaultUserID)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testEnv{
		server:  NewServer(ctx, svc, imports, fakePinger{}, cfg),
		imports: imports,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) create(t *testing.T, in core.FlashcardInput) uuid.UUID {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/flashcards", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[idResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, testConfig().Import.MaxConcurrent, health.ImportSlots)

	require.NoError(t, env.imports.Acquire(context.Background()))
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, testConfig().Import.MaxConcurrent-1, decode[healthResponse](t, rec).ImportSlots)
	env.imports.Release()

	env.server.db = fakePinger{err: errors.New("connection refused")}
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode[healthResponse](t, rec).Status)
}

func TestCreateAndGetFlashcard(t *testing.T) {
	env := newTestEnv(t)
	category := "Basics"

	id := env.create(t, core.FlashcardInput{Ukrainian: "привіт", English: "hello", Category: &category, Tags: []string{"greeting"}})

	rec := env.do(t, http.MethodGet, "/api/flashcards/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	card := decode[core.Flashcard](t, rec)
	assert.Equal(t, id, card.ID)
	assert.Equal(t, "hello", card.English)
	require.NotNil(t, card.Category)
	assert.Equal(t, "Basics", *card.Category)
	assert.Equal(t, []string{"greeting"}, card.Tags)
	assert.NotZero(t, card.CreatedAt)
}

func TestCreateFlashcard_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/flashcards", core.FlashcardInput{Ukrainian: "  ", English: "hello"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", resp.Code)
	assert.NotEmpty(t, resp.Fields)
}

func TestCreateFlashcard_BadBody(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"ukrainian":`},
		{"unknown field", `{"ukrainian":"a","english":"b","color":"red"}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/flashcards", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			env.server.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetFlashcard_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/flashcards/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REQ001", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/flashcards/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteFlashcard(t *testing.T) {
	env := newTestEnv(t)
	category := "Old"
	id := env.create(t, core.FlashcardInput{Ukrainian: "кіт", English: "cat", Category: &category})

	rec := env.do(t, http.MethodPatch, "/api/flashcards/"+id.String(), map[string]any{"english": "the cat", "category": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, decode[idResponse](t, rec).ID)

	card := decode[core.Flashcard](t, env.do(t, http.MethodGet, "/api/flashcards/"+id.String(), nil))
	assert.Equal(t, "the cat", card.English)
	assert.Equal(t, "кіт", card.Ukrainian)
	require.NotNil(t, card.Category)
	assert.Equal(t, "", *card.Category)

	rec = env.do(t, http.MethodDelete, "/api/flashcards/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/flashcards/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/flashcards/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/flashcards/"+id.String(), map[string]any{"english": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/flashcards/batch", createManyRequest{Items: []core.FlashcardInput{
		{Ukrainian: "один", English: "one"},
		{Ukrainian: "два", English: "two"},
		{Ukrainian: "три", English: "three"},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[core.CreateManyResult](t, rec)
	require.Equal(t, 3, created.Count)
	require.Len(t, created.IDs, 3)

	list := decode[[]core.Flashcard](t, env.do(t, http.MethodGet, "/api/flashcards", nil))
	require.Len(t, list, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{list[0].English, list[1].English, list[2].English})

	rec = env.do(t, http.MethodPost, "/api/flashcards/delete", deleteManyRequest{IDs: []uuid.UUID{created.IDs[0], uuid.New(), created.IDs[2]}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[core.CountResult](t, rec).Count)

	list = decode[[]core.Flashcard](t, env.do(t, http.MethodGet, "/api/flashcards", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].English)
}

func TestResponsesProgressAndStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	known := env.create(t, core.FlashcardInput{Ukrainian: "так", English: "yes"})
	forgotten := env.create(t, core.FlashcardInput{Ukrainian: "ні", English: "no"})
	unseen := env.create(t, core.FlashcardInput{Ukrainian: "може", English: "maybe"})

	for _, in := range []core.ResponseInput{
		{FlashcardID: known, Remembered: false},
		{FlashcardID: known, Remembered: true},
		{FlashcardID: forgotten, Remembered: false},
		{FlashcardID: forgotten, Remembered: true, UserID: "alice"},
	} {
		rec := env.do(t, http.MethodPost, "/api/responses", in)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	progress := decode[core.Progress](t, env.do(t, http.MethodGet, "/api/flashcards/"+known.String()+"/progress", nil))
	assert.Equal(t, 1, progress.YesCount)
	assert.Equal(t, 1, progress.NoCount)
	assert.Equal(t, 2, progress.Total)
	require.NotNil(t, progress.LastResponse)
	assert.True(t, progress.LastResponse.Remembered)

	ids := func(path string) []uuid.UUID {
		rec := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []uuid.UUID
		for _, c := range decode[[]core.Flashcard](t, rec) {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []uuid.UUID{known}, ids("/api/flashcards?status=remembered"))
	assert.Equal(t, []uuid.UUID{forgotten}, ids("/api/flashcards?status=notRemembered"))
	assert.Equal(t, []uuid.UUID{unseen}, ids("/api/flashcards?status=unseen"))
	assert.Equal(t, []uuid.UUID{forgotten}, ids("/api/flashcards?status=remembered&userId=alice"))
	assert.Len(t, ids("/api/flashcards?limit=2"), 2)

	rec := env.do(t, http.MethodGet, "/api/flashcards?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/flashcards?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordResponse_UnknownFlashcard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/responses", core.ResponseInput{FlashcardID: uuid.New(), Remembered: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/responses", map[string]any{"remembered": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetProgress(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, core.FlashcardInput{Ukrainian: "а", English: "a"})
	b := env.create(t, core.FlashcardInput{Ukrainian: "б", English: "b"})

	for _, id := range []uuid.UUID{a, a, b} {
		rec := env.do(t, http.MethodPost, "/api/responses", core.ResponseInput{FlashcardID: id, Remembered: true})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/progress/reset", core.ResetInput{FlashcardID: &a})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[core.CountResult](t, rec).Count)

	rec = env.do(t, http.MethodPost, "/api/progress/reset", core.ResetInput{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[core.CountResult](t, rec).Count)
}

const exampleCSV = "ukrainian,english,category\n" +
	"привіт,hello,Basics\n" +
	",missing ukrainian,X\n" +
	"дякую,thanks,\n"

func TestImport_JSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/import", importRequest{CSVText: exampleCSV, DefaultCategory: "General"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)

	list := decode[[]core.Flashcard](t, env.do(t, http.MethodGet, "/api/flashcards?category=General", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "thanks", list[0].English)
}

func multipartImport(t *testing.T, field, csvText, category string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "cards.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(csvText))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("defaultCategory", category))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImport_Multipart(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, multipartImport(t, "file", exampleCSV, "General"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
}

func TestImport_NoFile(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, multipartImport(t, "", "", "General"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	env.server.cfg.Import.MaxBytes = 64

	rec := env.do(t, http.MethodPost, "/api/import", importRequest{CSVText: strings.Repeat("a,b\n", 100)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
}

func TestImport_LimiterBusy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < testConfig().Import.MaxConcurrent; i++ {
		require.NoError(t, env.imports.Acquire(ctx))
	}
	defer func() {
		for i := 0; i < testConfig().Import.MaxConcurrent; i++ {
			env.imports.Release()
		}
	}()

	rec := env.do(t, http.MethodPost, "/api/import", importRequest{CSVText: exampleCSV})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "IMP001", decode[ErrorResponse](t, rec).Code)
}

func TestImport_HTMX(t *testing.T) {
	env := newTestEnv(t)

	data, err := json.Marshal(importRequest{CSVText: exampleCSV, DefaultCategory: "General"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<span class="inserted">2</span>`)
}

func TestErrorResponse_HTMX(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/flashcards/"+uuid.NewString(), nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)
	assert.Contains(t, rec.Body.String(), "REQ001")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", core.ErrNotFound, http.StatusNotFound},
		{"validation", core.NewValidationError("x", "bad"), http.StatusBadRequest},
		{"busy", core.ErrTooManyImports, http.StatusServiceUnavailable},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
