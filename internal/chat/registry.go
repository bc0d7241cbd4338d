package chat

import (
	"context"
	"sync"
	"time"

	"chatrelay/internal/persistence"
)

// Registry процессный реестр живых историй: chat_id → история плюс
// время последней активности. Протухшие записи не выметаются фоном,
// а лениво пересоздаются (с перезагрузкой из хранилища) при следующем
// обращении. Единственный разделяемый между чатами путь — сама карта,
// поэтому блокировка только вокруг неё.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*registryEntry
	store   persistence.Store
	maxAge  time.Duration
	now     func() time.Time
}

type registryEntry struct {
	history      *History
	lastActivity time.Time
}

// RegistryConfig конфигурация реестра.
type RegistryConfig struct {
	Store persistence.Store
	// MaxAge максимальный возраст неактивной записи. 0 — записи не протухают.
	MaxAge time.Duration
	// Now источник времени; по умолчанию time.Now. Подменяется в тестах.
	Now func() time.Time
}

// NewRegistry создаёт реестр историй.
func NewRegistry(cfg RegistryConfig) *Registry {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries: make(map[int64]*registryEntry),
		store:   cfg.Store,
		maxAge:  cfg.MaxAge,
		now:     now,
	}
}

// Resolve возвращает живую историю чата, создавая или перезагружая её
// из хранилища, если записи нет или она протухла. Обновляет время
// последней активности.
func (r *Registry) Resolve(ctx context.Context, chatID int64) (*History, error) {
	r.mu.Lock()
	entry, ok := r.entries[chatID]
	now := r.now()
	if ok && !r.stale(entry, now) {
		entry.lastActivity = now
		r.mu.Unlock()
		return entry.history, nil
	}
	r.mu.Unlock()

	// Загрузка идёт вне блокировки: хранилище может быть сетевым.
	records, err := r.store.LoadConversation(ctx, chatID)
	if err != nil {
		return nil, err
	}
	history := NewHistory(chatID, r.store, records)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Пока шла загрузка, запись мог создать параллельный запрос
	// по тому же чату; свежая запись в карте авторитетнее.
	if current, ok := r.entries[chatID]; ok && !r.stale(current, r.now()) {
		current.lastActivity = r.now()
		return current.history, nil
	}

	r.entries[chatID] = &registryEntry{history: history, lastActivity: r.now()}
	return history, nil
}

func (r *Registry) stale(entry *registryEntry, now time.Time) bool {
	if r.maxAge <= 0 {
		return false
	}
	return now.Sub(entry.lastActivity) > r.maxAge
}
