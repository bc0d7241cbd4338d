package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatrelay/internal/persistence"
)

func TestRegistry_CreatesOnFirstAccess(t *testing.T) {
	store := newFakeStore()
	store.saved[42] = []persistence.Record{{Role: "user", Content: "old"}}

	registry := NewRegistry(RegistryConfig{Store: store, MaxAge: time.Hour})

	h, err := registry.Resolve(context.Background(), 42)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if h.Len() != 1 || h.Messages()[0].Content != "old" {
		t.Errorf("expected history loaded from store, got %+v", h.Messages())
	}
}

func TestRegistry_ReusesLiveEntry(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry(RegistryConfig{Store: store, MaxAge: time.Hour})
	ctx := context.Background()

	first, err := registry.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := first.Add(ctx, RoleUser, "in memory"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	second, err := registry.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second != first {
		t.Error("expected the same live history instance")
	}
}

func TestRegistry_StaleEntryReloaded(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	registry := NewRegistry(RegistryConfig{
		Store:  store,
		MaxAge: time.Hour,
		Now:    func() time.Time { return now },
	})
	ctx := context.Background()

	first, err := registry.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := first.Add(ctx, RoleUser, "persisted"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Запись протухает, следующая Resolve перезагружает из хранилища.
	now = now.Add(2 * time.Hour)

	second, err := registry.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second == first {
		t.Error("expected a freshly reloaded history instance")
	}
	if second.Len() != 1 || second.Messages()[0].Content != "persisted" {
		t.Errorf("expected persisted state reloaded, got %+v", second.Messages())
	}
}

func TestRegistry_ActivityRefreshesAge(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	registry := NewRegistry(RegistryConfig{
		Store:  store,
		MaxAge: time.Hour,
		Now:    func() time.Time { return now },
	})
	ctx := context.Background()

	first, _ := registry.Resolve(ctx, 1)

	// Каждое обращение в пределах max age продлевает жизнь записи.
	for i := 0; i < 3; i++ {
		now = now.Add(30 * time.Minute)
		h, err := registry.Resolve(ctx, 1)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if h != first {
			t.Fatalf("entry expired despite activity on iteration %d", i)
		}
	}
}

func TestRegistry_ZeroMaxAgeNeverExpires(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	registry := NewRegistry(RegistryConfig{
		Store: store,
		Now:   func() time.Time { return now },
	})
	ctx := context.Background()

	first, _ := registry.Resolve(ctx, 1)
	now = now.Add(1000 * time.Hour)

	second, _ := registry.Resolve(ctx, 1)
	if second != first {
		t.Error("expected entry to survive with zero max age")
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry(RegistryConfig{Store: store, MaxAge: time.Hour})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			if _, err := registry.Resolve(ctx, chatID%4); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()
}
