package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/quest"
	"github.com/example/wordquest/pkg/models"
)

// fakeGateway has no API key configured
type fakeGateway struct{}

func (fakeGateway) GenerateEntry(context.Context, string) (*models.WordDraft, error) {
	return nil, apperr.Config("OPENAI_API_KEY is not set")
}

func (fakeGateway) GenerateThemedList(context.Context, models.YearGroup) ([]models.WordDraft, error) {
	return nil, apperr.Config("OPENAI_API_KEY is not set")
}

func (fakeGateway) GenerateQuiz(context.Context, []models.Word) ([]models.QuizQuestion, error) {
	return nil, apperr.Config("OPENAI_API_KEY is not set")
}

func (fakeGateway) ExtractEntries(_ context.Context, data []byte, mimeType string) ([]models.WordDraft, error) {
	if mimeType != "text/plain" {
		return nil, apperr.Validation("unsupported file type %q", mimeType)
	}
	return []models.WordDraft{{Word: string(bytes.TrimSpace(data)), YearGroup: models.Year3}}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.InitSchema(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db, 100)
	stores := quest.StoresFrom(store)

	clock := quest.Clock{
		Now:      func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	}
	h := NewHandler(
		quest.NewStudentService(stores, fakeGateway{}, clock, nil),
		quest.NewTeacherService(stores, fakeGateway{}, clock, nil),
		nil,
	)
	return NewRouter(RouterConfig{Handler: h}), store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, r http.Handler, path, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Config("OPENAI_API_KEY is not set"), http.StatusServiceUnavailable},
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Backend("failed", errors.New("io")), http.StatusBadGateway},
		{fmt.Errorf("word w1: %w", database.ErrNotFound), http.StatusNotFound},
		{errors.New("plain"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestWordRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/words", models.Word{Word: "castle", Definition: "a fort", YearGroup: models.Year4})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[models.Word](t, w)

	if w := doJSON(t, r, http.MethodPost, "/api/words", models.Word{Word: "castle", YearGroup: models.Year4}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a duplicate, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/words?year_group=Year%204", nil)
	if words := decode[[]models.Word](t, w); len(words) != 1 || words[0].ID != created.ID {
		t.Fatalf("unexpected listing %s", w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/words?year_group=Year%209", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown year group, got %d", w.Code)
	}

	created.Definition = "a large fortified building"
	w = doJSON(t, r, http.MethodPut, "/api/words/"+created.ID, created)
	if updated := decode[models.Word](t, w); updated.Definition != created.Definition {
		t.Fatalf("update not applied: %s", w.Body.String())
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/words/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/words/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body := decode[ErrorResponse](t, w); body.Error == "" {
		t.Fatalf("expected an error message")
	}
}

func TestGatewayErrors(t *testing.T) {
	r, _ := setupRouter(t)

	if w := doJSON(t, r, http.MethodPost, "/api/words/generate", generateEntryReq{Word: "moon"}); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an API key, got %d", w.Code)
	}

	w := doUpload(t, r, "/api/words/extract", "list.txt", "text/plain", "planet\n")
	if w.Code != http.StatusOK {
		t.Fatalf("extract: %d %s", w.Code, w.Body.String())
	}
	if drafts := decode[[]models.WordDraft](t, w); len(drafts) != 1 || drafts[0].Word != "planet" {
		t.Fatalf("unexpected drafts %s", w.Body.String())
	}
	if w := doUpload(t, r, "/api/words/extract", "scan.bin", "application/zip", "PK"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unsupported upload, got %d", w.Code)
	}
}

func TestImportRoute(t *testing.T) {
	r, store := setupRouter(t)

	csv := "word,definition,year\nplanet,a world,Year 5\ncomet,an icy body,Year 5\n"
	w := doUpload(t, r, "/api/words/import", "words.csv", "text/csv", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	n, err := store.Words.Count(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected two words stored, got %d err=%v", n, err)
	}
}

func TestQuestAndGameFlow(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	word := &models.Word{Word: "sun", Definition: "our star", YearGroup: models.Year3}
	if err := store.Words.Create(ctx, word); err != nil {
		t.Fatalf("create word: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/students/login", studentReq{Name: "Nia"})
	login := decode[loginResp](t, w)
	if !login.Created || login.Student == nil {
		t.Fatalf("unexpected login %s", w.Body.String())
	}
	sid := login.Student.ID

	w = doJSON(t, r, http.MethodPost, "/api/students/"+sid+"/quest/toggle", toggleReq{WordID: word.ID})
	if toggled := decode[toggleResp](t, w); !toggled.Assigned || toggled.Date != "2024-05-10" {
		t.Fatalf("unexpected toggle %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/students/"+sid+"/games", startGameReq{Kind: quest.GameDictation})
	if w.Code != http.StatusCreated {
		t.Fatalf("start game: %d %s", w.Code, w.Body.String())
	}
	gid := decode[quest.GameView](t, w).ID

	if w := doJSON(t, r, http.MethodPost, "/api/games/"+gid+"/continue", nil); decode[quest.GameView](t, w).Outcome != "ignored" {
		t.Fatalf("continue during preview must be ignored: %s", w.Body.String())
	}
	doJSON(t, r, http.MethodPost, "/api/games/"+gid+"/begin", nil)
	for _, letter := range []string{"s", "u", "n"} {
		w := doJSON(t, r, http.MethodPost, "/api/games/"+gid+"/input", quest.GameInput{Letter: letter})
		if out := decode[quest.GameView](t, w).Outcome; out != "accepted" {
			t.Fatalf("letter %s: %s", letter, out)
		}
	}
	w = doJSON(t, r, http.MethodPost, "/api/games/"+gid+"/continue", nil)
	view := decode[quest.GameView](t, w)
	if view.Summary == nil || view.Summary.Score != 230 || len(view.Summary.Completed) != 1 {
		t.Fatalf("unexpected summary %s", w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/games/"+gid, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected a finished game to be gone, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/students/"+sid+"/dashboard", nil)
	dash := decode[quest.Dashboard](t, w)
	if dash.Progress.Points != 230 || len(dash.Quest) != 1 || !dash.Quest[0].Completed {
		t.Fatalf("unexpected dashboard %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/summary?date=2024-05-10", nil)
	if rows := decode[[]models.QuestCompletion](t, w); len(rows) != 1 || rows[0].Completed != 1 {
		t.Fatalf("unexpected summary %s", w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/students/"+sid+"/history?days=x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad days value, got %d", w.Code)
	}
}
