package persistence

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	records := []Record{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
		{Role: "user", Content: "how are you"},
	}
	if err := store.SaveConversation(ctx, 42, records); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := store.LoadConversation(ctx, 42)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, records[i], got[i])
		}
	}
}

func TestSQLiteStore_UnknownChatIsEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	got, err := store.LoadConversation(context.Background(), 7)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected an empty conversation, got %+v", got)
	}
}

func TestSQLiteStore_SaveReplacesFully(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveConversation(ctx, 1, []Record{
		{Role: "user", Content: "m1"},
		{Role: "assistant", Content: "m2"},
		{Role: "user", Content: "m3"},
	}); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	if err := store.SaveConversation(ctx, 1, []Record{
		{Role: "assistant", Content: "summary"},
	}); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := store.LoadConversation(ctx, 1)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "summary" {
		t.Errorf("expected the old conversation replaced, got %+v", got)
	}
}

func TestSQLiteStore_ChatsAreIsolated(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveConversation(ctx, 1, []Record{{Role: "user", Content: "chat one"}}); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	if err := store.SaveConversation(ctx, 2, []Record{{Role: "user", Content: "chat two"}}); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	if err := store.SaveConversation(ctx, 1, nil); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := store.LoadConversation(ctx, 2)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "chat two" {
		t.Errorf("expected chat 2 untouched, got %+v", got)
	}
}
