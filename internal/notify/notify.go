// Package notify delivers the daily quest summary to the teacher.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/pkg/models"
)

// Notifier sends a plain-text message to the teacher
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// SummarySource reports quest completion per student for a day
type SummarySource interface {
	DailySummary(ctx context.Context, date string) ([]models.QuestCompletion, error)
}

// Log writes notifications to the application log. It is used when no
// Telegram bot is configured.
type Log struct {
	log *logger.Logger
}

// NewLog creates a log-only notifier
func NewLog(log *logger.Logger) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{log: log.With("component", "notify")}
}

// Notify logs text
func (l *Log) Notify(_ context.Context, text string) error {
	l.log.Info("teacher notification", "text", text)
	return nil
}

// FormatSummary renders the completion of every student's quest on date
func FormatSummary(date string, rows []models.QuestCompletion) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No quests were assigned for %s.", date)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily quest summary for %s\n", date)
	done := 0
	for _, r := range rows {
		mark := ""
		if r.Assigned > 0 && r.Completed >= r.Assigned {
			mark = " ✓"
			done++
		}
		fmt.Fprintf(&sb, "\n%s: %d/%d words%s", r.StudentName, r.Completed, r.Assigned, mark)
	}
	fmt.Fprintf(&sb, "\n\n%d of %d students finished their quest.", done, len(rows))
	return sb.String()
}

// SendDailySummary loads the summary for date and sends it through n
func SendDailySummary(ctx context.Context, n Notifier, src SummarySource, date string) error {
	rows, err := src.DailySummary(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load daily summary: %w", err)
	}
	return n.Notify(ctx, FormatSummary(date, rows))
}
