package database

import (
	"context"
	"errors"
	"testing"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

func setupTestStore(t *testing.T, pageSize int) *Store {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := InitSchema(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, pageSize)
}

func mustCreateWord(t *testing.T, s *Store, surface string, yg models.YearGroup, lp string) *models.Word {
	t.Helper()
	w := &models.Word{Word: surface, Definition: "def of " + surface, YearGroup: yg, LearningPoint: lp}
	if err := s.Words.Create(context.Background(), w); err != nil {
		t.Fatalf("create word %s: %v", surface, err)
	}
	return w
}

func mustCreateStudent(t *testing.T, s *Store, name string) *models.Student {
	t.Helper()
	st, err := s.Students.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create student %s: %v", name, err)
	}
	return st
}

func TestWordRoundTrip(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	root, origin := "port", "Latin"
	in := &models.Word{
		Word:          "transport",
		Definition:    "to carry from one place to another",
		Root:          &root,
		Origin:        &origin,
		Synonyms:      models.StringList{"carry", "move"},
		Antonyms:      models.StringList{"keep"},
		Example:       "Lorries transport food to the shops.",
		YearGroup:     models.Year5,
		LearningPoint: "prefix trans-",
	}
	if err := s.Words.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Words.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected word, got nil")
	}
	if got.Word != in.Word || got.Definition != in.Definition || got.Example != in.Example ||
		got.YearGroup != in.YearGroup || got.LearningPoint != in.LearningPoint {
		t.Fatalf("scalar fields differ: %+v vs %+v", got, in)
	}
	if got.Root == nil || *got.Root != root || got.Origin == nil || *got.Origin != origin {
		t.Fatalf("optional fields differ: root=%v origin=%v", got.Root, got.Origin)
	}
	if len(got.Synonyms) != 2 || got.Synonyms[0] != "carry" || got.Synonyms[1] != "move" {
		t.Fatalf("synonyms differ: %v", got.Synonyms)
	}
	if len(got.Antonyms) != 1 || got.Antonyms[0] != "keep" {
		t.Fatalf("antonyms differ: %v", got.Antonyms)
	}
}

func TestWordNotFoundIsNotAnError(t *testing.T) {
	s := setupTestStore(t, 10)
	got, err := s.Words.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil word, got %+v", got)
	}
}

func TestWordValidation(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	err := s.Words.Create(ctx, &models.Word{Word: "  ", YearGroup: models.Year3})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty word, got %v", err)
	}
	err = s.Words.Create(ctx, &models.Word{Word: "cat", YearGroup: "Year 9"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for year group, got %v", err)
	}
	for _, w := range []string{"123", "--", " 7 "} {
		err = s.Words.Create(ctx, &models.Word{Word: w, YearGroup: models.Year3})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", w, err)
		}
	}
	mustCreateWord(t, s, "cat", models.Year3, "")
	err = s.Words.Create(ctx, &models.Word{Word: "cat", YearGroup: models.Year3})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected duplicate to be a validation error, got %v", err)
	}
}

func TestListAllPagesThroughStore(t *testing.T) {
	s := setupTestStore(t, 2)
	for _, w := range []string{"echo", "alpha", "delta", "charlie", "bravo"} {
		mustCreateWord(t, s, w, models.Year3, "")
	}
	words, err := s.Words.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	if len(words) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(words))
	}
	for i, w := range want {
		if words[i].Word != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, words[i].Word)
		}
	}
}

func TestListFilters(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	mustCreateWord(t, s, "happiness", models.Year3, "suffix -ness")
	mustCreateWord(t, s, "kindness", models.Year4, "suffix -ness")
	mustCreateWord(t, s, "enjoyment", models.Year4, "suffix -ment")

	y4, err := s.Words.ListByYearGroup(ctx, models.Year4)
	if err != nil {
		t.Fatalf("by year group: %v", err)
	}
	if len(y4) != 2 || y4[0].Word != "enjoyment" {
		t.Fatalf("unexpected year 4 words: %+v", y4)
	}
	ness, err := s.Words.ListByLearningPoint(ctx, "suffix -ness")
	if err != nil {
		t.Fatalf("by learning point: %v", err)
	}
	if len(ness) != 2 {
		t.Fatalf("expected 2 -ness words, got %d", len(ness))
	}
	points, err := s.Words.ListLearningPoints(ctx)
	if err != nil {
		t.Fatalf("learning points: %v", err)
	}
	if len(points) != 2 || points[0] != "suffix -ment" {
		t.Fatalf("unexpected learning points %v", points)
	}
}

func TestUpdateAndDeleteWord(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	w := mustCreateWord(t, s, "recieve", models.Year4, "")
	w.Word = "receive"
	if err := s.Words.Update(ctx, w); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Words.GetByWord(ctx, "RECEIVE")
	if got == nil || got.ID != w.ID {
		t.Fatalf("expected case-insensitive lookup to find updated word")
	}
	if err := s.Words.Delete(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Words.Delete(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestStudentsAndProgress(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	zoe := mustCreateStudent(t, s, "Zoe")
	mustCreateStudent(t, s, "adam")

	all, err := s.Students.ListAll(ctx)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unexpected students %+v", all)
	}

	found, err := s.Students.FindByName(ctx, "zoe")
	if err != nil || found == nil || found.ID != zoe.ID {
		t.Fatalf("expected case-insensitive find, got %+v, %v", found, err)
	}

	if p, err := s.Progress.Get(ctx, "nobody"); err != nil || p != nil {
		t.Fatalf("expected nil progress for unknown student, got %+v, %v", p, err)
	}

	p, err := s.Progress.AddPoints(ctx, zoe.ID, 230)
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if p.Points != 230 {
		t.Fatalf("expected 230 points, got %d", p.Points)
	}
	p, _ = s.Progress.AddPoints(ctx, zoe.ID, -500)
	if p.Points != 0 {
		t.Fatalf("points must not go negative, got %d", p.Points)
	}

	if err := s.Students.Delete(ctx, zoe.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	if p, _ := s.Progress.Get(ctx, zoe.ID); p != nil {
		t.Fatalf("expected progress to cascade, got %+v", p)
	}
}

func TestStreaks(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Mia")

	for _, d := range []string{"2026-10-01", "2026-10-02", "2026-10-02", "2026-10-03"} {
		if _, err := s.Progress.RecordActivity(ctx, st.ID, d); err != nil {
			t.Fatalf("record activity: %v", err)
		}
	}
	p, _ := s.Progress.Get(ctx, st.ID)
	if p.StreakDays != 3 {
		t.Fatalf("expected 3 day streak, got %d", p.StreakDays)
	}

	if n, err := s.Progress.RollStreaks(ctx, "2026-10-04"); err != nil || n != 0 {
		t.Fatalf("streak active yesterday must survive, reset=%d err=%v", n, err)
	}
	if n, err := s.Progress.RollStreaks(ctx, "2026-10-05"); err != nil || n != 1 {
		t.Fatalf("expected one reset, got %d err=%v", n, err)
	}
	p, _ = s.Progress.Get(ctx, st.ID)
	if p.StreakDays != 0 {
		t.Fatalf("expected streak reset, got %d", p.StreakDays)
	}
}

func TestQuestAssignments(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Leo")
	b := mustCreateWord(t, s, "because", models.Year3, "")
	a := mustCreateWord(t, s, "although", models.Year4, "")
	const day = "2026-10-18"

	quests, err := s.Quests.BulkAssign(ctx, st.ID, []string{b.ID, a.ID, b.ID}, day)
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("duplicates must collapse, got %d", len(quests))
	}

	words, err := s.Quests.AssignedWords(ctx, st.ID, day)
	if err != nil {
		t.Fatalf("assigned words: %v", err)
	}
	if len(words) != 2 || words[0].Word.Word != "although" || words[1].Word.Word != "because" {
		t.Fatalf("expected words sorted by surface form, got %+v", words)
	}

	if err := s.Quests.MarkCompleted(ctx, st.ID, a.ID, day); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	words, _ = s.Quests.AssignedWords(ctx, st.ID, day)
	if !words[0].Completed || words[1].Completed {
		t.Fatalf("unexpected completion flags %+v", words)
	}

	summary, err := s.Quests.CompletionSummary(ctx, day)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 || summary[0].Assigned != 2 || summary[0].Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	cleared, err := s.Quests.BulkAssign(ctx, st.ID, nil, day)
	if err != nil {
		t.Fatalf("bulk assign empty: %v", err)
	}
	if len(cleared) != 0 {
		t.Fatalf("expected empty assignment list, got %d", len(cleared))
	}
	ids, _ := s.Quests.AssignedWordIDs(ctx, st.ID, day)
	if len(ids) != 0 {
		t.Fatalf("expected day to be cleared, got %v", ids)
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Ava")
	w := mustCreateWord(t, s, "island", models.Year3, "silent letters")
	const day = "2026-10-18"

	on, err := s.Quests.Toggle(ctx, st.ID, w.ID, day)
	if err != nil || !on {
		t.Fatalf("first toggle should assign, got %v %v", on, err)
	}
	on, err = s.Quests.Toggle(ctx, st.ID, w.ID, day)
	if err != nil || on {
		t.Fatalf("second toggle should unassign, got %v %v", on, err)
	}
	on, err = s.Quests.Toggle(ctx, st.ID, w.ID, day)
	if err != nil || !on {
		t.Fatalf("third toggle should assign again, got %v %v", on, err)
	}
}

func TestPastDates(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Noah")
	w := mustCreateWord(t, s, "rhythm", models.Year6, "")
	for _, d := range []string{"2026-10-10", "2026-10-12", "2026-10-11"} {
		if _, err := s.Quests.BulkAssign(ctx, st.ID, []string{w.ID}, d); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	dates, err := s.Quests.PastDates(ctx, st.ID, 2)
	if err != nil {
		t.Fatalf("past dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-10-12" || dates[1] != "2026-10-11" {
		t.Fatalf("unexpected dates %v", dates)
	}
}

func TestPracticeLedger(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Isla")
	cat := mustCreateWord(t, s, "cat", models.Year3, "")
	dog := mustCreateWord(t, s, "dog", models.Year3, "")

	if err := s.Practice.AppendBatch(ctx, st.ID, models.ActivityLetterOrder, nil, "2026-10-17"); err != nil {
		t.Fatalf("empty batch must be a no-op: %v", err)
	}

	results := []models.WordResult{
		{WordID: cat.ID, Word: "cat", Correct: false},
		{WordID: dog.ID, Word: "dog", Correct: true},
	}
	if err := s.Practice.AppendBatch(ctx, st.ID, models.ActivityLetterOrder, results, "2026-10-17"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Practice.AppendBatch(ctx, st.ID, models.ActivityGridCollection, results[:1], "2026-10-18"); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := s.Practice.HistoryByDate(ctx, st.ID, 7)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Date != "2026-10-18" || history[1].Date != "2026-10-17" {
		t.Fatalf("unexpected history days %+v", history)
	}
	if len(history[1].Records) != 2 || history[1].Records[0].Word != "dog" {
		t.Fatalf("expected newest record first within a day, got %+v", history[1].Records)
	}

	limited, _ := s.Practice.HistoryByDate(ctx, st.ID, 1)
	if len(limited) != 1 {
		t.Fatalf("expected one day, got %d", len(limited))
	}
}

func TestPracticeLedgerPartialFailure(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Finn")
	w := mustCreateWord(t, s, "friend", models.Year3, "")

	results := []models.WordResult{
		{WordID: w.ID, Word: "friend", Correct: true},
		{WordID: "deleted-word", Word: "ghost", Correct: true},
		{WordID: w.ID, Word: "friend", Correct: true},
	}
	err := s.Practice.AppendBatch(ctx, st.ID, models.ActivityVoiceDictation, results, "2026-10-18")
	var partial *PartialWriteError
	if !errors.As(err, &partial) {
		t.Fatalf("expected partial write error, got %v", err)
	}
	if partial.Written != 1 || partial.Total != 3 {
		t.Fatalf("unexpected partial counts %+v", partial)
	}
	records, _ := s.Practice.ListSince(ctx, st.ID, "2026-10-01")
	if len(records) != 1 {
		t.Fatalf("rows written before the failure must remain, got %d", len(records))
	}
}

func TestStatisticsOverview(t *testing.T) {
	s := setupTestStore(t, 10)
	ctx := context.Background()
	st := mustCreateStudent(t, s, "Ruby")
	w := mustCreateWord(t, s, "answer", models.Year3, "")
	_ = s.Practice.AppendBatch(ctx, st.ID, models.ActivityLetterOrder, []models.WordResult{
		{WordID: w.ID, Word: "answer", Correct: true},
		{WordID: w.ID, Word: "answer", Correct: false},
	}, "2026-10-18")

	stats, err := s.Statistics.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.TotalWords != 1 || stats.TotalStudents != 1 || stats.TotalPractice != 2 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(stats.ByActivity) != 1 || stats.ByActivity[0].Accuracy() != 50 {
		t.Fatalf("unexpected activity stats %+v", stats.ByActivity)
	}
	if stats.ByYearGroup["Year 3"] != 1 {
		t.Fatalf("unexpected year group counts %v", stats.ByYearGroup)
	}
}
