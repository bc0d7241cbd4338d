package chat

import (
	"context"

	"chatrelay/internal/persistence"
)

// History упорядоченная история сообщений одного чата.
// Каждая мутация (Add, Clear, Trim) синхронно сохраняется через порт
// хранения: состояние в памяти и на диске не расходятся дольше, чем
// на один вызов. Экземпляр трогает только один запрос за раз
// (транспорт обрабатывает сообщения чата последовательно),
// поэтому внутренней блокировки нет.
type History struct {
	chatID   int64
	store    persistence.Store
	messages []Message
}

// NewHistory создаёт историю поверх уже загруженных записей.
// Роли нормализуются к каноническому словарю; записи с неизвестной
// ролью пропускаются.
func NewHistory(chatID int64, store persistence.Store, records []persistence.Record) *History {
	h := &History{
		chatID:   chatID,
		store:    store,
		messages: make([]Message, 0, len(records)),
	}
	for _, rec := range records {
		role, ok := canonicalRole(rec.Role)
		if !ok {
			continue
		}
		h.messages = append(h.messages, Message{Role: role, Content: rec.Content})
	}
	return h
}

// canonicalRole переводит роль из сохранённой записи в каноническую.
// Принимает и langchain-овские имена ролей из старых дампов.
func canonicalRole(role string) (string, bool) {
	switch role {
	case RoleUser, "human":
		return RoleUser, true
	case RoleAssistant, "ai":
		return RoleAssistant, true
	case RoleSystem:
		return RoleSystem, true
	default:
		return "", false
	}
}

// ChatID возвращает идентификатор чата.
func (h *History) ChatID() int64 {
	return h.chatID
}

// Len возвращает число сообщений.
func (h *History) Len() int {
	return len(h.messages)
}

// Messages возвращает копию сообщений в порядке добавления.
func (h *History) Messages() []Message {
	messages := make([]Message, len(h.messages))
	copy(messages, h.messages)
	return messages
}

// Add добавляет сообщение и синхронно сохраняет историю.
// При ошибке сохранения сообщение остаётся в памяти, ошибка
// возвращается вызывающему: ход считается неудавшимся.
func (h *History) Add(ctx context.Context, role, content string) error {
	h.messages = append(h.messages, Message{Role: role, Content: content})
	return h.save(ctx)
}

// Clear опустошает историю и сохраняет пустое состояние.
// Каноническая операция "сбросить диалог".
func (h *History) Clear(ctx context.Context) error {
	h.messages = h.messages[:0]
	return h.save(ctx)
}

// Trim оставляет только последние maxLen сообщений и сохраняет результат.
// Если сообщений не больше maxLen, ничего не делает. Запасная стратегия
// компактизации, когда суммаризация недоступна.
func (h *History) Trim(ctx context.Context, maxLen int) error {
	if maxLen < 0 || len(h.messages) <= maxLen {
		return nil
	}
	h.messages = h.messages[len(h.messages)-maxLen:]
	return h.save(ctx)
}

// ExtractSystemPrompt возвращает не-system сообщения и system-промпт,
// если он есть. Историю не меняет.
func (h *History) ExtractSystemPrompt() ([]Message, string, bool) {
	return ExtractSystemPrompt(h.messages)
}

func (h *History) save(ctx context.Context) error {
	records := make([]persistence.Record, len(h.messages))
	for i, msg := range h.messages {
		records[i] = persistence.Record{Role: msg.Role, Content: msg.Content}
	}
	return h.store.SaveConversation(ctx, h.chatID, records)
}
