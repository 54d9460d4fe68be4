package notify

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/pkg/models"
)

const helpText = `WordQuest teacher bot

/summary - today's quest completion
/summary YYYY-MM-DD - completion for another day
/help - this message`

// sender is the part of the Bot API used to post messages
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts notifications to the teacher's chat and answers the
// teacher's /summary command
type Telegram struct {
	api       sender
	bot       *tgbotapi.BotAPI
	chatID    int64
	summaries SummarySource
	today     func() string
	log       *logger.Logger
}

// NewTelegram connects to the Bot API with token. Only messages from chatID
// are answered.
func NewTelegram(token string, chatID int64, summaries SummarySource, today func() string, log *logger.Logger) (*Telegram, error) {
	if token == "" {
		return nil, apperr.Config("TELEGRAM_BOT_TOKEN is not set")
	}
	if chatID == 0 {
		return nil, apperr.Config("TELEGRAM_TEACHER_CHAT_ID is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, apperr.Backend("failed to connect to telegram", err)
	}
	t := newTelegram(botAPI, chatID, summaries, today, log)
	t.bot = botAPI
	t.log.Info("authorized on telegram", "account", botAPI.Self.UserName)
	return t, nil
}

func newTelegram(api sender, chatID int64, summaries SummarySource, today func() string, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.Nop()
	}
	return &Telegram{
		api:       api,
		chatID:    chatID,
		summaries: summaries,
		today:     today,
		log:       log.With("component", "telegram"),
	}
}

// Notify sends text to the teacher's chat
func (t *Telegram) Notify(_ context.Context, text string) error {
	return t.send(t.chatID, text)
}

func (t *Telegram) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return apperr.Backend("failed to send telegram message", err)
	}
	return nil
}

// Listen answers commands until ctx is done
func (t *Telegram) Listen(ctx context.Context) {
	if t.bot == nil {
		return
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := t.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.Chat.ID != t.chatID {
		t.log.Warn("ignoring message from unknown chat", "chat", msg.Chat.ID)
		return
	}
	if !msg.IsCommand() {
		t.reply(msg.Chat.ID, "I only understand commands. Use /help.")
		return
	}

	switch msg.Command() {
	case "start", "help":
		t.reply(msg.Chat.ID, helpText)
	case "summary":
		t.handleSummary(ctx, msg)
	default:
		t.reply(msg.Chat.ID, "Unknown command. Use /help.")
	}
}

func (t *Telegram) handleSummary(ctx context.Context, msg *tgbotapi.Message) {
	date := strings.TrimSpace(msg.CommandArguments())
	if date == "" {
		date = t.today()
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		t.reply(msg.Chat.ID, "Please give the date as YYYY-MM-DD.")
		return
	}
	rows, err := t.summaries.DailySummary(ctx, date)
	if err != nil {
		t.log.Error("failed to load daily summary", "date", date, "error", err)
		t.reply(msg.Chat.ID, "Sorry, the summary is not available right now.")
		return
	}
	t.reply(msg.Chat.ID, FormatSummary(date, rows))
}

func (t *Telegram) reply(chatID int64, text string) {
	if err := t.send(chatID, text); err != nil {
		t.log.Error("failed to reply", "chat", chatID, "error", err)
	}
}
