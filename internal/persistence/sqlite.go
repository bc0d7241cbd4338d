package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS conversations (
	chat_id INTEGER NOT NULL,
	seq     INTEGER NOT NULL,
	role    TEXT    NOT NULL,
	content TEXT    NOT NULL,
	PRIMARY KEY (chat_id, seq)
)`

// SQLiteStore хранит диалоги в SQLite. Каждое сообщение — строка
// с порядковым номером seq внутри чата.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore создаёт SQLiteStore и при необходимости схему.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("create conversations table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// LoadConversation возвращает диалог в хронологическом порядке.
func (s *SQLiteStore) LoadConversation(ctx context.Context, chatID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM conversations WHERE chat_id = ? ORDER BY seq",
		chatID,
	)
	if err != nil {
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Role, &rec.Content); err != nil {
			return nil, &Error{Op: "load", ChatID: chatID, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}
	return records, nil
}

// SaveConversation заменяет диалог в одной транзакции: удаление старых
// строк и вставка новых, чтобы частичная запись не была видна читателям.
func (s *SQLiteStore) SaveConversation(ctx context.Context, chatID int64, conversation []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE chat_id = ?", chatID); err != nil {
		tx.Rollback()
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}

	for seq, rec := range conversation {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO conversations (chat_id, seq, role, content) VALUES (?, ?, ?, ?)",
			chatID, seq, rec.Role, rec.Content,
		)
		if err != nil {
			tx.Rollback()
			return &Error{Op: "save", ChatID: chatID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}
	return nil
}
