package quest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/games"
	"github.com/example/wordquest/pkg/models"
)

const testDay = "2024-05-10"

// testClock is a settable clock for registry expiry
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestClock() (*testClock, Clock) {
	tc := &testClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	return tc, Clock{Now: tc.Now, Location: time.UTC}
}

func setupTestStores(t *testing.T) (*database.Store, Stores) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.InitSchema(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db, 50)
	return store, StoresFrom(store)
}

func mustWord(t *testing.T, store *database.Store, surface string) *models.Word {
	t.Helper()
	w := &models.Word{Word: surface, Definition: "meaning of " + surface, YearGroup: models.Year3}
	if err := store.Words.Create(context.Background(), w); err != nil {
		t.Fatalf("create word %s: %v", surface, err)
	}
	return w
}

func mustStudent(t *testing.T, store *database.Store, name string) *models.Student {
	t.Helper()
	st, err := store.Students.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create student %s: %v", name, err)
	}
	return st
}

func assign(t *testing.T, store *database.Store, studentID string, words ...*models.Word) {
	t.Helper()
	ids := make([]string, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	if _, err := store.Quests.BulkAssign(context.Background(), studentID, ids, testDay); err != nil {
		t.Fatalf("assign: %v", err)
	}
}

// failingProgress rejects point awards
type failingProgress struct {
	ProgressStore
}

func (failingProgress) AddPoints(context.Context, string, int) (*models.StudentProgress, error) {
	return nil, apperr.Backend("failed to add points", errors.New("connection reset"))
}

// fakeGateway writes one spelling question per word
type fakeGateway struct {
	ContentGateway
}

func (fakeGateway) GenerateQuiz(_ context.Context, words []models.Word) ([]models.QuizQuestion, error) {
	var out []models.QuizQuestion
	for _, w := range words {
		out = append(out, models.QuizQuestion{
			Kind:     models.QuizKindSpelling,
			WordID:   w.ID,
			Word:     w.Word,
			Question: "Spell the word: " + w.Word,
			Options:  []string{w.Word, w.Word + "e"},
			Answer:   w.Word,
		})
	}
	return out, nil
}

func dictationSnapshot(t *testing.T, s *GameSession) games.DictationSnapshot {
	t.Helper()
	snap, ok := s.View().State.(games.DictationSnapshot)
	if !ok {
		t.Fatalf("expected a dictation snapshot, got %T", s.View().State)
	}
	return snap
}

func TestLoginReusesStudent(t *testing.T) {
	_, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	first, created, err := svc.Login(ctx, "  Amara ")
	if err != nil || !created {
		t.Fatalf("expected a new student, got created=%v err=%v", created, err)
	}
	again, created, err := svc.Login(ctx, "amara")
	if err != nil || created {
		t.Fatalf("expected the existing student, got created=%v err=%v", created, err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected the same student, got %s and %s", first.ID, again.ID)
	}
	if _, _, err := svc.Login(ctx, "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected a validation error for an empty name, got %v", err)
	}
}

func TestDictationGameRecordsSession(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	student := mustStudent(t, store, "Ben")
	cat, dog := mustWord(t, store, "cat"), mustWord(t, store, "dog")
	assign(t, store, student.ID, cat, dog)

	session, err := svc.StartGame(ctx, student.ID, GameDictation)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	text := map[string]string{cat.ID: "cat", dog.ID: "dog"}
	missedCat := false
	for steps := 0; !session.Finished(); steps++ {
		if steps > 10 {
			t.Fatalf("game did not finish")
		}
		if !session.Begin() {
			t.Fatalf("begin refused in phase %s", dictationSnapshot(t, session).Phase)
		}
		id := dictationSnapshot(t, session).WordID
		if id == cat.ID && !missedCat {
			missedCat = true
			if out := session.Input(GameInput{Letter: "x"}); out != games.Rejected {
				t.Fatalf("expected rejected, got %s", out)
			}
			session.Continue()
			continue
		}
		for _, r := range text[id] {
			if out := session.Input(GameInput{Letter: string(r)}); out != games.Accepted {
				t.Fatalf("expected accepted for %c, got %s", r, out)
			}
		}
		session.Continue()
	}

	view := session.View()
	if view.Summary == nil || view.Error != "" {
		t.Fatalf("expected a recorded summary, got %+v", view)
	}
	// cat: miss floored at 0, dog: 30+200, cat again: 30+200
	if view.Summary.Score != 460 || view.Summary.Progress.Points != 460 {
		t.Fatalf("unexpected score %+v", view.Summary)
	}
	if view.Summary.Progress.StreakDays != 1 {
		t.Fatalf("expected a one-day streak, got %d", view.Summary.Progress.StreakDays)
	}
	if len(view.Summary.Completed) != 1 || view.Summary.Completed[0] != dog.ID {
		t.Fatalf("expected only dog completed, got %v", view.Summary.Completed)
	}

	records, err := store.Practice.ListSince(ctx, student.ID, testDay)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected one record per word, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Activity != models.ActivityVoiceDictation {
			t.Fatalf("unexpected activity %s", rec.Activity)
		}
		if rec.Correct != (rec.WordID == dog.ID) {
			t.Fatalf("unexpected correctness for %s", rec.Word)
		}
	}

	progress, err := store.Progress.Get(ctx, student.ID)
	if err != nil || progress == nil || progress.Points != 460 {
		t.Fatalf("expected 460 stored points, got %+v err=%v", progress, err)
	}
	if _, err := svc.Game(session.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected the finished game to be forgotten, got %v", err)
	}
}

func TestEmptyQuestGameClosesSilently(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()
	student := mustStudent(t, store, "Cara")

	session, err := svc.StartGame(ctx, student.ID, GameTiles)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if snap := session.View().State.(games.TileSnapshot); snap.Phase != games.PhaseCompleting {
		t.Fatalf("expected the completing phase, got %s", snap.Phase)
	}
	if _, err := svc.CloseGame(session.ID); err != nil {
		t.Fatalf("close game: %v", err)
	}
	if !session.Finished() || session.View().Summary != nil {
		t.Fatalf("expected a silent close")
	}
	if _, err := svc.Game(session.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected the closed game to be forgotten, got %v", err)
	}
	if _, err := svc.CloseGame(session.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected closing twice to report not found, got %v", err)
	}
	records, _ := store.Practice.ListSince(ctx, student.ID, testDay)
	if len(records) != 0 {
		t.Fatalf("expected no ledger rows, got %d", len(records))
	}
}

func TestStartGameRejectsUnknownKind(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	student := mustStudent(t, store, "Dev")

	if _, err := svc.StartGame(context.Background(), student.ID, "chess"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if _, err := svc.StartGame(context.Background(), "missing", GameGrid); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweepGamesFlushesResults(t *testing.T) {
	store, stores := setupTestStores(t)
	tc, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	student := mustStudent(t, store, "Eli")
	assign(t, store, student.ID, mustWord(t, store, "ship"))

	session, err := svc.StartGame(ctx, student.ID, GameDictation)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	session.Begin()
	session.Input(GameInput{Letter: "z"})

	if n := svc.SweepGames(10 * time.Minute); n != 0 {
		t.Fatalf("expected nothing to expire yet, got %d", n)
	}
	tc.now = tc.now.Add(11 * time.Minute)
	if n := svc.SweepGames(10 * time.Minute); n != 1 {
		t.Fatalf("expected one expired game, got %d", n)
	}
	if !session.Finished() {
		t.Fatalf("expected the swept game to be closed")
	}
	records, err := store.Practice.ListSince(ctx, student.ID, testDay)
	if err != nil || len(records) != 1 || records[0].Correct {
		t.Fatalf("expected one incorrect record, got %+v err=%v", records, err)
	}
}

func TestRecordSessionRevertsPointsOnFailure(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	stores.Progress = failingProgress{ProgressStore: stores.Progress}
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	student := mustStudent(t, store, "Fay")
	word := mustWord(t, store, "ant")
	assign(t, store, student.ID, word)

	results := []models.WordResult{{WordID: word.ID, Word: "ant", Correct: true}}
	summary, err := svc.RecordSession(ctx, student.ID, models.ActivityLetterOrder, 230, results, testDay)
	if !apperr.Is(err, apperr.KindBackend) {
		t.Fatalf("expected a backend error, got %v", err)
	}
	if summary.Progress.Points != 0 {
		t.Fatalf("expected the award reverted, got %d", summary.Progress.Points)
	}
	if summary.Progress.StudentID != student.ID || summary.Progress.StreakDays != 1 {
		t.Fatalf("expected the other steps applied, got %+v", summary.Progress)
	}
	if len(summary.Completed) != 1 {
		t.Fatalf("expected the word completed, got %v", summary.Completed)
	}
	records, _ := store.Practice.ListSince(ctx, student.ID, testDay)
	if len(records) != 1 {
		t.Fatalf("expected the ledger written, got %d rows", len(records))
	}
}

func TestViewFlashcard(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	student := mustStudent(t, store, "Gus")
	word := mustWord(t, store, "owl")
	if _, err := svc.ViewFlashcard(ctx, student.ID, word.ID); err != nil {
		t.Fatalf("view flashcard: %v", err)
	}
	if _, err := svc.ViewFlashcard(ctx, student.ID, "missing"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	records, _ := store.Practice.ListSince(ctx, student.ID, testDay)
	if len(records) != 1 || records[0].Activity != models.ActivityFlashcardView {
		t.Fatalf("expected one flashcard view, got %+v", records)
	}
}

func TestQuizFlow(t *testing.T) {
	store, stores := setupTestStores(t)
	_, clock := newTestClock()
	svc := NewStudentService(stores, fakeGateway{}, clock, nil)
	ctx := context.Background()

	student := mustStudent(t, store, "Hana")
	if _, err := svc.StartQuiz(ctx, student.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected a validation error without quest words, got %v", err)
	}
	assign(t, store, student.ID, mustWord(t, store, "rain"), mustWord(t, store, "snow"))

	view, err := svc.StartQuiz(ctx, student.ID)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected two questions, got %d", len(view.Questions))
	}
	for _, q := range view.Questions {
		if strings.Contains(q.Question, "rain") || strings.Contains(q.Question, "snow") {
			t.Fatalf("spelling question shows its answer: %q", q.Question)
		}
	}

	first, err := svc.AnswerQuiz(ctx, view.ID, 0, "wrong")
	if err != nil || first.Correct || first.Done || first.Summary != nil {
		t.Fatalf("unexpected first answer %+v err=%v", first, err)
	}
	second, err := svc.AnswerQuiz(ctx, view.ID, 1, view.Questions[1].Options[0])
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !second.Done || second.Summary == nil {
		t.Fatalf("expected the quiz done with a summary, got %+v", second)
	}
	want := second.Score * 10
	if second.Summary.Score != want || second.Summary.Progress.Points != want {
		t.Fatalf("expected %d points, got %+v", want, second.Summary)
	}

	records, _ := store.Practice.ListSince(ctx, student.ID, testDay)
	if len(records) != 2 {
		t.Fatalf("expected two quiz records, got %d", len(records))
	}
	if _, err := svc.AnswerQuiz(ctx, view.ID, 0, "rain"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected the finished quiz to be forgotten, got %v", err)
	}
}
