package persistence

import "context"

// NoopStore ничего не хранит: загрузка всегда возвращает пустой диалог,
// сохранение всегда успешно. Используется, когда персистентность
// отключена конфигурацией — история живёт только в памяти процесса.
type NoopStore struct{}

// NewNoopStore создаёт NoopStore.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) LoadConversation(ctx context.Context, chatID int64) ([]Record, error) {
	return nil, nil
}

func (s *NoopStore) SaveConversation(ctx context.Context, chatID int64, conversation []Record) error {
	return nil
}
