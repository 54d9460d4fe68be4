package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/wordquest/internal/ai"
	"github.com/example/wordquest/internal/api"
	"github.com/example/wordquest/internal/config"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/internal/notify"
	"github.com/example/wordquest/internal/quest"
	"github.com/example/wordquest/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so report with a bootstrap logger
		boot, _ := logger.New("dev")
		boot.Fatal("failed to load configuration", "error", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "type", cfg.DBType, "error", err)
	}
	store := database.NewStore(db, cfg.WordPageSize)
	defer store.Close()

	clock := quest.Clock{Now: time.Now, Location: cfg.Location}
	gateway := ai.New(cfg, log)
	stores := quest.StoresFrom(store)
	students := quest.NewStudentService(stores, gateway, clock, log)
	teacher := quest.NewTeacherService(stores, gateway, clock, log)

	var notifier notify.Notifier = notify.NewLog(log)
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TeacherChatID, teacher, clock.Today, log)
		if err != nil {
			log.Warn("telegram disabled, summaries go to the log", "error", err)
		} else {
			notifier = tg
			go tg.Listen(ctx)
		}
	}

	if cfg.EnableSchedule {
		sched := scheduler.New(scheduler.Config{
			Location:         cfg.Location,
			StreakRolloverAt: cfg.StreakRolloverAt,
			SummaryAt:        cfg.SummaryAt,
			SessionTTL:       cfg.GameSessionTTL,
		}, scheduler.Jobs{
			Streaks:   store.Progress,
			Summaries: teacher,
			Notifier:  notifier,
			Games:     students,
			Today:     clock.Today,
		}, log)
		if err := sched.Start(); err != nil {
			log.Fatal("failed to start scheduler", "error", err)
		}
		defer sched.Stop()
	}

	router := api.NewRouter(api.RouterConfig{
		Handler:      api.NewHandler(students, teacher, log),
		Log:          log,
		AllowOrigins: cfg.AllowOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if n := students.SweepGames(0); n > 0 {
		log.Info("closed open sessions", "count", n)
	}
	log.Info("server stopped")
}
