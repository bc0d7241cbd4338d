// Package provider содержит варианты бекендов завершений.
// Каждый вариант приводит каноническую историю сообщений к своему
// проводному формату и словарю ролей непосредственно перед вызовом.
package provider

import (
	"fmt"
	"io"
	"net/http"
)

const defaultEmptyPlaceholder = "..."

// Config статическая конфигурация варианта бекенда.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	// SystemPrompt системный промпт провайдера; вариант сам решает,
	// как его доставить (в списке сообщений или отдельным полем).
	SystemPrompt string
	// MaxOutputTokens бюджет ответа; 0 — значение по умолчанию из реестра моделей.
	MaxOutputTokens int
	// EmptyContentPlaceholder подставляется вместо пустого содержимого
	// там, где бекенд его не принимает. Пустое значение — "...".
	EmptyContentPlaceholder string
}

func (c Config) emptyPlaceholder() string {
	if c.EmptyContentPlaceholder == "" {
		return defaultEmptyPlaceholder
	}
	return c.EmptyContentPlaceholder
}

// readBody вычитывает тело ответа целиком; ошибки чтения оборачиваются.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
