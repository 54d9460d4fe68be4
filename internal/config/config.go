package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application settings read from the environment
type Config struct {
	// "sqlite" (default) or "postgres"
	DBType string
	// SQLite file path
	DBPath string
	// PostgreSQL connection string
	DatabaseURL string
	// Largest page requested from the store when listing words
	WordPageSize int

	HTTPAddr string
	// Browser origins allowed to call the API; empty allows any
	AllowOrigins []string
	LogMode      string
	Location *time.Location

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration

	TelegramToken  string
	TeacherChatID  int64
	EnableSchedule bool
	// Wall-clock times ("15:04") of the nightly jobs
	StreakRolloverAt string
	SummaryAt        string
	// Idle game sessions older than this are dropped
	GameSessionTTL time.Duration
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		DBType:           "sqlite",
		DBPath:           "data/wordquest.db",
		WordPageSize:     1000,
		HTTPAddr:         ":8080",
		LogMode:          "dev",
		Location:         time.Local,
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIModel:      "gpt-4o-mini",
		AITimeout:        60 * time.Second,
		EnableSchedule:   true,
		StreakRolloverAt: "00:05",
		SummaryAt:        "18:00",
		GameSessionTTL:   2 * time.Hour,
	}
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.DBType = strings.ToLower(getEnv("DB_TYPE", cfg.DBType))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.WordPageSize = getInt("WORD_PAGE_SIZE", cfg.WordPageSize)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode)
	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAIBaseURL = strings.TrimRight(getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL), "/")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.AITimeout = time.Duration(getInt("AI_TIMEOUT_SECONDS", int(cfg.AITimeout/time.Second))) * time.Second
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.EnableSchedule = getEnv("ENABLE_SCHEDULER", "true") != "false"
	cfg.StreakRolloverAt = getEnv("STREAK_ROLLOVER_TIME", cfg.StreakRolloverAt)
	cfg.SummaryAt = getEnv("SUMMARY_TIME", cfg.SummaryAt)
	cfg.GameSessionTTL = time.Duration(getInt("GAME_SESSION_TTL_MINUTES", int(cfg.GameSessionTTL/time.Minute))) * time.Minute

	if chatID := getEnv("TELEGRAM_TEACHER_CHAT_ID", ""); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, &Error{Key: "TELEGRAM_TEACHER_CHAT_ID", Reason: "must be an integer chat id"}
		}
		cfg.TeacherChatID = id
	}

	if tz := getEnv("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, &Error{Key: "TIMEZONE", Reason: "unknown time zone " + tz}
		}
		cfg.Location = loc
	}

	switch cfg.DBType {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, &Error{Key: "DATABASE_URL", Reason: "required when DB_TYPE=postgres"}
		}
	default:
		return nil, &Error{Key: "DB_TYPE", Reason: "must be sqlite or postgres"}
	}
	if cfg.WordPageSize <= 0 {
		return nil, &Error{Key: "WORD_PAGE_SIZE", Reason: "must be positive"}
	}

	return cfg, nil
}

// Error reports an invalid environment variable
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return "invalid configuration " + e.Key + ": " + e.Reason
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
