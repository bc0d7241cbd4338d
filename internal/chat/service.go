package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatrelay/internal/i18n"
	"chatrelay/internal/retry"
)

const defaultMaxHistorySize = 15

// Provider полиморфная способность бекенда завершений.
// Каждый вариант сам приводит сообщения к своему проводному формату.
type Provider interface {
	// CreateCompletion отправляет сообщения бекенду и возвращает
	// текст ответа и фактически потраченные токены.
	CreateCompletion(ctx context.Context, messages []Message) (string, int, error)

	// HumanRole и AIRole — словарь ролей бекенда для новых ходов.
	HumanRole() string
	AIRole() string

	// MaxContextTokens контекстный бюджет модели,
	// MaxOutputTokens зарезервированный бюджет ответа.
	MaxContextTokens() int
	MaxOutputTokens() int
}

// TokenCounter оценивает размер запроса в токенах до вызова бекенда.
// Оценка бюджетная: она детерминирована и монотонна по длине текста,
// но не обязана совпадать с учётом самого бекенда.
type TokenCounter interface {
	Count(messages []Message) int
}

// Summarizer сжимает историю в короткое резюме.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// Service оркестратор одного хода диалога: разрешает историю чата,
// следит за контекстным бюджетом, компактизирует историю, вызывает
// бекенд с повтором транзиентных ошибок и сохраняет результат.
type Service struct {
	provider       Provider
	registry       *Registry
	counter        TokenCounter
	summarizer     Summarizer
	retry          retry.Policy
	maxHistorySize int
	lang           string
	logger         *slog.Logger
}

// ServiceConfig конфигурация для создания Service.
type ServiceConfig struct {
	Provider Provider
	Registry *Registry
	Counter  TokenCounter
	// Summarizer опционален: без него компактизация сразу
	// деградирует до усечения истории.
	Summarizer Summarizer
	// Retry политика повтора; нулевое значение — 3 попытки по 20 секунд.
	Retry retry.Policy
	// MaxHistorySize порог компактизации по числу сообщений.
	MaxHistorySize int
	// Lang язык пользовательских сообщений об ошибках.
	Lang   string
	Logger *slog.Logger
}

// NewService создаёт оркестратор диалогов.
func NewService(cfg ServiceConfig) *Service {
	maxHistory := cfg.MaxHistorySize
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistorySize
	}

	policy := cfg.Retry
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool {
			var rateLimited *RateLimitError
			return errors.As(err, &rateLimited)
		}
	}

	return &Service{
		provider:       cfg.Provider,
		registry:       cfg.Registry,
		counter:        cfg.Counter,
		summarizer:     cfg.Summarizer,
		retry:          policy,
		maxHistorySize: maxHistory,
		lang:           cfg.Lang,
		logger:         cfg.Logger,
	}
}

// GetChatResponse выполняет один ход: добавляет сообщение пользователя,
// при необходимости компактизирует историю, получает ответ бекенда и
// сохраняет его. Возвращает текст ответа и число потраченных токенов.
func (s *Service) GetChatResponse(ctx context.Context, chatID int64, query string) (string, int, error) {
	history, err := s.registry.Resolve(ctx, chatID)
	if err != nil {
		return "", 0, err
	}

	if err := history.Add(ctx, s.provider.HumanRole(), query); err != nil {
		return "", 0, err
	}

	if err := s.compactIfNeeded(ctx, history, query); err != nil {
		return "", 0, err
	}

	var (
		answer      string
		totalTokens int
	)
	dispatchErr := s.retry.Do(ctx, s.logger, func(ctx context.Context) error {
		var callErr error
		answer, totalTokens, callErr = s.provider.CreateCompletion(ctx, history.Messages())
		return callErr
	})
	if dispatchErr != nil {
		return "", 0, s.classifyDispatchError(dispatchErr)
	}

	if err := history.Add(ctx, s.provider.AIRole(), answer); err != nil {
		return "", 0, err
	}

	return answer, totalTokens, nil
}

// ResetConversation опустошает историю чата и сохраняет пустое состояние.
func (s *Service) ResetConversation(ctx context.Context, chatID int64) error {
	history, err := s.registry.Resolve(ctx, chatID)
	if err != nil {
		return err
	}
	return history.Clear(ctx)
}

// compactIfNeeded проверяет два независимых порога — токенный бюджет
// модели и максимальную длину истории — и при превышении любого из них
// компактизирует историю: суммаризация всего, кроме последнего хода
// пользователя, с откатом на усечение, если суммаризация недоступна
// или упала. Неудача суммаризации не показывается пользователю.
func (s *Service) compactIfNeeded(ctx context.Context, history *History, query string) error {
	estimated := s.counter.Count(history.Messages())
	exceededTokens := estimated+s.provider.MaxOutputTokens() > s.provider.MaxContextTokens()
	exceededSize := history.Len() > s.maxHistorySize

	if !exceededTokens && !exceededSize {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("chat history too long, compacting",
			slog.Int64("chat_id", history.ChatID()),
			slog.Int("estimated_tokens", estimated),
			slog.Int("messages", history.Len()),
			slog.Bool("token_budget_exceeded", exceededTokens))
	}

	if s.summarizer != nil {
		messages := history.Messages()
		summary, err := s.summarizer.Summarize(ctx, messages[:len(messages)-1])
		if err == nil {
			if err := history.Clear(ctx); err != nil {
				return err
			}
			if err := history.Add(ctx, s.provider.AIRole(), summary); err != nil {
				return err
			}
			return history.Add(ctx, s.provider.HumanRole(), query)
		}
		if s.logger != nil {
			s.logger.Warn("summarization failed, trimming history instead",
				slog.Int64("chat_id", history.ChatID()),
				slog.String("error", err.Error()))
		}
	}

	return history.Trim(ctx, s.maxHistorySize)
}

// classifyDispatchError переводит ошибку бекенда в контрактную форму:
// rate limit после исчерпания попыток возвращается как есть, остальные
// заворачиваются в единое локализованное сообщение для пользователя.
func (s *Service) classifyDispatchError(err error) error {
	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return err
	}

	var badRequest *BadRequestError
	if errors.As(err, &badRequest) {
		return fmt.Errorf("⚠️ _%s._ ⚠️\n%w", i18n.Text("invalid_request", s.lang), err)
	}

	return fmt.Errorf("⚠️ _%s._ ⚠️\n%w", i18n.Text("error", s.lang), err)
}
