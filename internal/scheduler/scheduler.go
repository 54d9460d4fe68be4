package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/internal/notify"
)

// jobTimeout bounds a single run of a nightly job
const jobTimeout = time.Minute

// StreakRoller resets the streaks of students who skipped a day
type StreakRoller interface {
	RollStreaks(ctx context.Context, today string) (int64, error)
}

// GameSweeper closes idle game sessions
type GameSweeper interface {
	SweepGames(ttl time.Duration) int
}

// Config holds the job times
type Config struct {
	Location *time.Location
	// Wall-clock times ("15:04")
	StreakRolloverAt string
	SummaryAt        string
	// Idle sessions older than SessionTTL are closed every SweepEvery
	SessionTTL time.Duration
	SweepEvery time.Duration
}

// Jobs are the collaborators the scheduled tasks work on
type Jobs struct {
	Streaks   StreakRoller
	Summaries notify.SummarySource
	Notifier  notify.Notifier
	Games     GameSweeper
	Today     func() string
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	jobs      Jobs
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(cfg Config, jobs Jobs, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = 10 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		cfg:       cfg,
		jobs:      jobs,
		log:       log.With("component", "scheduler"),
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	if s.jobs.Streaks != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.cfg.StreakRolloverAt).Do(s.RollStreaks); err != nil {
			return fmt.Errorf("failed to schedule streak rollover: %w", err)
		}
	}
	if s.jobs.Summaries != nil && s.jobs.Notifier != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.cfg.SummaryAt).Do(s.SendSummary); err != nil {
			return fmt.Errorf("failed to schedule daily summary: %w", err)
		}
	}
	if s.jobs.Games != nil && s.cfg.SessionTTL > 0 {
		if _, err := s.scheduler.Every(s.cfg.SweepEvery).Do(s.SweepSessions); err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RollStreaks resets the streak of every student inactive yesterday
func (s *Scheduler) RollStreaks() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	today := s.jobs.Today()
	n, err := s.jobs.Streaks.RollStreaks(ctx, today)
	if err != nil {
		s.log.Error("streak rollover failed", "date", today, "error", err)
		return
	}
	s.log.Info("streaks rolled over", "date", today, "reset", n)
}

// SendSummary sends today's quest completion to the teacher
func (s *Scheduler) SendSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	today := s.jobs.Today()
	if err := notify.SendDailySummary(ctx, s.jobs.Notifier, s.jobs.Summaries, today); err != nil {
		s.log.Error("daily summary failed", "date", today, "error", err)
		return
	}
	s.log.Info("daily summary sent", "date", today)
}

// SweepSessions closes game and quiz sessions idle for longer than the TTL
func (s *Scheduler) SweepSessions() {
	if n := s.jobs.Games.SweepGames(s.cfg.SessionTTL); n > 0 {
		s.log.Info("idle sessions closed", "count", n)
	}
}
