package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration
	BotLanguage    string

	Provider    ProviderConfig
	Persistence PersistenceConfig
	Chat        ChatConfig
	Telegram    TelegramConfig
}

type ProviderConfig struct {
	// Name вариант бекенда: "openai" или "claude".
	Name            string
	Model           string
	APIKey          string
	BaseURL         string
	MaxOutputTokens int
	// SystemPromptPath путь к файлу системного промпта;
	// плейсхолдер {bot_language} заменяется языком бота.
	SystemPromptPath string
}

type PersistenceConfig struct {
	// Type хранилище диалогов: "file", "sqlite", "redis" или "none".
	Type          string
	FileDir       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type ChatConfig struct {
	MaxHistorySize     int
	MaxConversationAge time.Duration
	RetryDelay         time.Duration
}

type TelegramConfig struct {
	BotToken      string
	APIBaseURL    string
	WebhookSecret string
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.BotLanguage = getEnv("BOT_LANGUAGE", "en")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	maxOutput, err := parseIntDefault(getEnv("MAX_OUTPUT_TOKENS", ""), 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_OUTPUT_TOKENS: %w", err)
	}
	cfg.Provider = ProviderConfig{
		Name:             getEnv("PROVIDER", "openai"),
		Model:            getEnv("PROVIDER_MODEL", "gpt-4o"),
		APIKey:           getEnv("PROVIDER_API_KEY", ""),
		BaseURL:          getEnv("PROVIDER_BASE_URL", ""),
		MaxOutputTokens:  maxOutput,
		SystemPromptPath: getEnv("SYSTEM_PROMPT_PATH", "config/system_prompt.md"),
	}

	redisDB, err := parseIntDefault(getEnv("REDIS_DB", ""), 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	cfg.Persistence = PersistenceConfig{
		Type:          getEnv("PERSISTENCE", "file"),
		FileDir:       getEnv("CHATS_LOGS_DIR", "logs"),
		SQLitePath:    getEnv("SQLITE_PATH", "chatrelay.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
	}

	maxHistory, err := parseIntDefault(getEnv("MAX_HISTORY_SIZE", ""), 15)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_HISTORY_SIZE: %w", err)
	}
	maxAge, err := parseDuration(getEnv("MAX_CONVERSATION_AGE", "3h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_CONVERSATION_AGE: %w", err)
	}
	retryDelay, err := parseDuration(getEnv("RETRY_DELAY", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RETRY_DELAY: %w", err)
	}
	cfg.Chat = ChatConfig{
		MaxHistorySize:     maxHistory,
		MaxConversationAge: maxAge,
		RetryDelay:         retryDelay,
	}

	cfg.Telegram = TelegramConfig{
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
