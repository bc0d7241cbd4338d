// Package persistence содержит порт хранения диалогов и его реализации.
// Контракт: загрузка никогда не завершается ошибкой "не найдено"
// (возвращается пустая последовательность), сохранение полностью
// заменяет прежнее состояние диалога.
package persistence

import (
	"context"
	"fmt"
)

// Record одно сообщение в сохранённом диалоге.
type Record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store порт хранения диалогов по идентификатору чата.
type Store interface {
	// LoadConversation возвращает сохранённый диалог.
	// Если диалога нет, возвращает пустую последовательность без ошибки.
	LoadConversation(ctx context.Context, chatID int64) ([]Record, error)

	// SaveConversation полностью заменяет сохранённый диалог.
	SaveConversation(ctx context.Context, chatID int64, conversation []Record) error
}

// Error ошибка порта хранения. Вызывающий обязан считать ход диалога
// неудавшимся, даже если сам запрос к бекенду прошёл: иначе память
// и диск молча разойдутся.
type Error struct {
	Op     string
	ChatID int64
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persistence %s chat %d: %v", e.Op, e.ChatID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
