package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "conversation:"

// RedisStore хранит каждый диалог как JSON-документ по ключу
// conversation:<chat_id>. Подходит для развёртываний с общим
// внешним хранилищем вместо локального диска.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore создаёт RedisStore поверх готового клиента.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadConversation читает диалог. Отсутствующий ключ — пустой диалог.
func (s *RedisStore) LoadConversation(ctx context.Context, chatID int64) ([]Record, error) {
	data, err := s.client.Get(ctx, redisKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Error{Op: "load", ChatID: chatID, Err: err}
	}
	return records, nil
}

// SaveConversation полностью заменяет документ диалога.
func (s *RedisStore) SaveConversation(ctx context.Context, chatID int64, conversation []Record) error {
	if conversation == nil {
		conversation = []Record{}
	}

	data, err := json.Marshal(conversation)
	if err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}

	if err := s.client.Set(ctx, redisKey(chatID), data, 0).Err(); err != nil {
		return &Error{Op: "save", ChatID: chatID, Err: err}
	}
	return nil
}

func redisKey(chatID int64) string {
	return redisKeyPrefix + strconv.FormatInt(chatID, 10)
}
