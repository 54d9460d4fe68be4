package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/games"
	"github.com/example/wordquest/internal/quest"
)

type startGameReq struct {
	Kind quest.GameKind `json:"kind" binding:"required"`
}

// POST /api/students/:id/games
func (h *Handler) StartGame(c *gin.Context) {
	var req startGameReq
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.students.StartGame(c.Request.Context(), c.Param("id"), req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.View())
}

// GET /api/games/:id
func (h *Handler) GetGame(c *gin.Context) {
	session, ok := h.game(c)
	if !ok {
		return
	}
	respondOK(c, session.View())
}

// POST /api/games/:id/begin
func (h *Handler) BeginWord(c *gin.Context) {
	h.step(c, (*quest.GameSession).Begin)
}

// POST /api/games/:id/continue
func (h *Handler) ContinueGame(c *gin.Context) {
	h.step(c, (*quest.GameSession).Continue)
}

// POST /api/games/:id/close
func (h *Handler) CloseGame(c *gin.Context) {
	session, err := h.students.CloseGame(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session.View())
}

// POST /api/games/:id/input
func (h *Handler) GameInput(c *gin.Context) {
	var in quest.GameInput
	if !bindJSON(c, &in) {
		return
	}
	session, ok := h.game(c)
	if !ok {
		return
	}
	outcome := session.Input(in)
	view := session.View()
	view.Outcome = outcome
	respondOK(c, view)
}

// step runs a phase transition; a refused transition is reported as ignored
func (h *Handler) step(c *gin.Context, fn func(*quest.GameSession) bool) {
	session, ok := h.game(c)
	if !ok {
		return
	}
	outcome := games.Ignored
	if fn(session) {
		outcome = games.Accepted
	}
	view := session.View()
	view.Outcome = outcome
	respondOK(c, view)
}

func (h *Handler) game(c *gin.Context) (*quest.GameSession, bool) {
	session, err := h.students.Game(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}
