package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FileStore хранит каждый диалог в отдельном JSON-файле <chat_id>.json
// внутри storageDir. Запись атомарная: временный файл, fsync, rename.
type FileStore struct {
	storageDir string
}

// NewFileStore создаёт FileStore и каталог хранения, если его нет.
func NewFileStore(storageDir string) (*FileStore, error) {
	if storageDir == "" {
		return nil, fmt.Errorf("filestore dir is empty")
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{storageDir: storageDir}, nil
}

// LoadConversation читает диалог из файла.
// Отсутствующий или пустой файл означает пустой диалог.
func (s *FileStore) LoadConversation(ctx context.Context, chatID int64) ([]Record, error) {
	data, err := os.ReadFile(s.path(chatID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}
	return records, nil
}

// SaveConversation полностью заменяет файл диалога.
func (s *FileStore) SaveConversation(ctx context.Context, chatID int64, conversation []Record) error {
	if conversation == nil {
		conversation = []Record{}
	}

	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: fmt.Errorf("marshal conversation: %w", err)}
	}

	if err := s.writeAtomic(s.path(chatID), data); err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}
	return nil
}

func (s *FileStore) path(chatID int64) string {
	return filepath.Join(s.storageDir, strconv.FormatInt(chatID, 10)+".json")
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(s.storageDir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
