package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatrelay/internal/chat"
	"chatrelay/internal/config"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/persistence"
	"chatrelay/internal/provider"
	"chatrelay/internal/retry"
	"chatrelay/internal/telegram"
	"chatrelay/internal/tokens"
	"chatrelay/internal/transport"

	"github.com/go-redis/redis/v8"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)

	store, err := newStore(cfg.Persistence)
	if err != nil {
		log.Fatalf("failed to init conversation store: %v", err)
	}

	systemPrompt := loadSystemPrompt(cfg.Provider.SystemPromptPath, cfg.BotLanguage, logger)

	backend, err := newProvider(cfg.Provider, systemPrompt, httpClient)
	if err != nil {
		log.Fatalf("failed to init provider: %v", err)
	}

	modelInfo, err := provider.LookupModel(cfg.Provider.Model)
	if err != nil {
		log.Fatalf("failed to resolve model: %v", err)
	}
	counter, err := tokens.NewCounter(tokens.Config{
		Model:            cfg.Provider.Model,
		TokensPerMessage: modelInfo.TokensPerMessage,
		TokensPerName:    modelInfo.TokensPerName,
	})
	if err != nil {
		log.Fatalf("failed to init token counter: %v", err)
	}

	registry := chat.NewRegistry(chat.RegistryConfig{
		Store:  store,
		MaxAge: cfg.Chat.MaxConversationAge,
	})

	chatService := chat.NewService(chat.ServiceConfig{
		Provider:       backend,
		Registry:       registry,
		Counter:        counter,
		Summarizer:     provider.NewSummarizer(backend),
		Retry:          retry.Policy{Delay: cfg.Chat.RetryDelay},
		MaxHistorySize: cfg.Chat.MaxHistorySize,
		Lang:           cfg.BotLanguage,
		Logger:         logger,
	})

	telegramClient := telegram.NewClient(cfg.Telegram, httpClient)
	webhookHandler := telegram.NewWebhookHandler(telegram.WebhookDeps{
		Chat:          chatService,
		Bot:           telegramClient,
		Logger:        logger,
		Lang:          cfg.BotLanguage,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:          logger,
		TelegramHandler: webhookHandler,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// newStore выбирает реализацию порта хранения по конфигурации.
func newStore(cfg config.PersistenceConfig) (persistence.Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "file":
		return persistence.NewFileStore(cfg.FileDir)
	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return persistence.NewSQLiteStore(db)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return persistence.NewRedisStore(client), nil
	case "none":
		return persistence.NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown persistence type: %s", cfg.Type)
	}
}

// newProvider выбирает вариант бекенда по конфигурации.
func newProvider(cfg config.ProviderConfig, systemPrompt string, httpClient *http.Client) (chat.Provider, error) {
	providerCfg := provider.Config{
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		SystemPrompt:    systemPrompt,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}

	switch strings.ToLower(cfg.Name) {
	case "openai":
		return provider.NewOpenAI(providerCfg, httpClient)
	case "claude":
		return provider.NewClaude(providerCfg, httpClient)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
}

// loadSystemPrompt читает системный промпт из файла и подставляет язык бота.
// Отсутствие файла не фатально: бот работает с пустым промптом.
func loadSystemPrompt(path, botLanguage string, logger *slog.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system prompt not loaded", slog.String("path", path), slog.String("error", err.Error()))
		return ""
	}
	return strings.ReplaceAll(string(data), "{bot_language}", botLanguage)
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
