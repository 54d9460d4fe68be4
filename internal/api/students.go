package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/quest"
	"github.com/example/wordquest/pkg/models"
)

type studentReq struct {
	Name string `json:"name"`
}

type loginResp struct {
	Student *models.Student `json:"student"`
	Created bool            `json:"created"`
}

type questResp struct {
	StudentID string             `json:"student_id"`
	Date      string             `json:"date"`
	WordIDs   []string           `json:"word_ids"`
	Words     []models.QuestWord `json:"words,omitempty"`
}

type replaceQuestReq struct {
	Date    string   `json:"date"`
	WordIDs []string `json:"word_ids"`
}

type toggleReq struct {
	Date   string `json:"date"`
	WordID string `json:"word_id" binding:"required"`
}

type toggleResp struct {
	questResp
	WordID   string `json:"word_id"`
	Assigned bool   `json:"assigned"`
}

type answerReq struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type answerResp struct {
	*quest.QuizAnswer
	Error string `json:"error,omitempty"`
}

// GET /api/students
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.teacher.Students(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, students)
}

// POST /api/students
func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentReq
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.teacher.AddStudent(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// POST /api/students/login
func (h *Handler) Login(c *gin.Context) {
	var req studentReq
	if !bindJSON(c, &req) {
		return
	}
	student, created, err := h.students.Login(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loginResp{Student: student, Created: created})
}

// PUT /api/students/:id
func (h *Handler) RenameStudent(c *gin.Context) {
	var req studentReq
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.teacher.RenameStudent(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, student)
}

// DELETE /api/students/:id
func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.teacher.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/students/:id/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.students.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, dashboard)
}

// GET /api/students/:id/history?days=
func (h *Handler) History(c *gin.Context) {
	days, err := queryInt(c, "days", 30)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.teacher.History(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, history)
}

// GET /api/students/:id/accuracy
func (h *Handler) Accuracy(c *gin.Context) {
	stats, err := h.teacher.StudentAccuracy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// GET /api/students/:id/suggestions?limit=
func (h *Handler) Suggestions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, err)
		return
	}
	suggestions, err := h.teacher.Suggestions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, suggestions)
}

// POST /api/students/:id/flashcards/:wordId
func (h *Handler) ViewFlashcard(c *gin.Context) {
	word, err := h.students.ViewFlashcard(c.Request.Context(), c.Param("id"), c.Param("wordId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, word)
}

// GET /api/students/:id/quest?date=
func (h *Handler) GetQuest(c *gin.Context) {
	ctx := c.Request.Context()
	board, err := h.teacher.Board(ctx, c.Param("id"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	words, err := h.teacher.QuestWords(ctx, board.StudentID, board.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, questResp{StudentID: board.StudentID, Date: board.Date, WordIDs: board.WordIDs(), Words: words})
}

// PUT /api/students/:id/quest
func (h *Handler) ReplaceQuest(c *gin.Context) {
	var req replaceQuestReq
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	board, err := h.teacher.Board(ctx, c.Param("id"), req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := board.Replace(ctx, req.WordIDs); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, questResp{StudentID: board.StudentID, Date: board.Date, WordIDs: board.WordIDs()})
}

// POST /api/students/:id/quest/toggle
func (h *Handler) ToggleQuestWord(c *gin.Context) {
	var req toggleReq
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	board, err := h.teacher.Board(ctx, c.Param("id"), req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := board.Toggle(ctx, req.WordID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toggleResp{
		questResp: questResp{StudentID: board.StudentID, Date: board.Date, WordIDs: board.WordIDs()},
		WordID:    req.WordID,
		Assigned:  board.Assigned(req.WordID),
	})
}

// GET /api/students/:id/quest/dates?limit=
func (h *Handler) QuestDates(c *gin.Context) {
	limit, err := queryInt(c, "limit", 30)
	if err != nil {
		respondError(c, err)
		return
	}
	dates, err := h.teacher.PastDates(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, dates)
}

// GET /api/summary?date=
func (h *Handler) DailySummary(c *gin.Context) {
	summary, err := h.teacher.DailySummary(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}

// GET /api/stats
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.teacher.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// POST /api/students/:id/quiz
func (h *Handler) StartQuiz(c *gin.Context) {
	view, err := h.students.StartQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// POST /api/quizzes/:id/answer
func (h *Handler) AnswerQuiz(c *gin.Context) {
	var req answerReq
	if !bindJSON(c, &req) {
		return
	}
	answer, err := h.students.AnswerQuiz(c.Request.Context(), c.Param("id"), req.Index, req.Answer)
	if answer == nil {
		respondError(c, err)
		return
	}
	resp := answerResp{QuizAnswer: answer}
	if err != nil {
		// graded, but recording the result failed
		h.log.Error("failed to record quiz", "quiz", c.Param("id"), "error", err)
		resp.Error = err.Error()
	}
	respondOK(c, resp)
}
