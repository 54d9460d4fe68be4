package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/internal/quest"
)

// Handler serves the student and teacher dashboards
type Handler struct {
	students *quest.StudentService
	teacher  *quest.TeacherService
	log      *logger.Logger
}

// NewHandler creates the HTTP handlers
func NewHandler(students *quest.StudentService, teacher *quest.TeacherService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		students: students,
		teacher:  teacher,
		log:      log.With("component", "api"),
	}
}

// RouterConfig configures NewRouter
type RouterConfig struct {
	Handler      *Handler
	Log          *logger.Logger
	AllowOrigins []string
}

// NewRouter builds the gin engine with every route
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	router.Use(cors.New(corsCfg))

	h := cfg.Handler
	router.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := router.Group("/api")

	// Word bank
	api.GET("/words", h.ListWords)
	api.POST("/words", h.CreateWord)
	api.GET("/words/:id", h.GetWord)
	api.PUT("/words/:id", h.UpdateWord)
	api.DELETE("/words/:id", h.DeleteWord)
	api.GET("/learning-points", h.LearningPoints)
	api.POST("/words/generate", h.GenerateEntry)
	api.POST("/words/themed", h.GenerateThemedList)
	api.POST("/words/extract", h.ExtractEntries)
	api.POST("/words/drafts", h.SaveDrafts)
	api.POST("/words/import", h.ImportSpreadsheet)

	// Students
	api.GET("/students", h.ListStudents)
	api.POST("/students", h.CreateStudent)
	api.POST("/students/login", h.Login)
	api.PUT("/students/:id", h.RenameStudent)
	api.DELETE("/students/:id", h.DeleteStudent)
	api.GET("/students/:id/dashboard", h.Dashboard)
	api.GET("/students/:id/history", h.History)
	api.GET("/students/:id/accuracy", h.Accuracy)
	api.GET("/students/:id/suggestions", h.Suggestions)
	api.POST("/students/:id/flashcards/:wordId", h.ViewFlashcard)

	// Daily quests
	api.GET("/students/:id/quest", h.GetQuest)
	api.PUT("/students/:id/quest", h.ReplaceQuest)
	api.POST("/students/:id/quest/toggle", h.ToggleQuestWord)
	api.GET("/students/:id/quest/dates", h.QuestDates)
	api.GET("/summary", h.DailySummary)
	api.GET("/stats", h.Statistics)

	// Quizzes
	api.POST("/students/:id/quiz", h.StartQuiz)
	api.POST("/quizzes/:id/answer", h.AnswerQuiz)

	// Games
	api.POST("/students/:id/games", h.StartGame)
	api.GET("/games/:id", h.GetGame)
	api.POST("/games/:id/begin", h.BeginWord)
	api.POST("/games/:id/continue", h.ContinueGame)
	api.POST("/games/:id/close", h.CloseGame)
	api.POST("/games/:id/input", h.GameInput)

	return router
}
