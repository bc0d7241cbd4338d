package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownModel модель отсутствует в реестре. Фатально на этапе
// конфигурации: без контекстного бюджета и правил подсчёта токенов
// решения о компактизации невоспроизводимы.
var ErrUnknownModel = errors.New("unknown model")

// ModelInfo статические параметры модели: контекстный бюджет, бюджет
// ответа по умолчанию и накладные расходы токенизации на сообщение.
type ModelInfo struct {
	ID                  string
	ContextTokens       int
	DefaultOutputTokens int
	// TokensPerMessage и TokensPerName — поправки подсчёта токенов.
	// Старые семейства: 4 на сообщение, −1 при наличии имени;
	// новые: 3 на сообщение, +1 при наличии имени.
	TokensPerMessage int
	TokensPerName    int
}

// knownModels реестр поддерживаемых моделей.
var knownModels = []ModelInfo{
	// Семейство gpt-3.5-turbo.
	{ID: "gpt-3.5-turbo", ContextTokens: 4096, DefaultOutputTokens: 1200, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-0301", ContextTokens: 4096, DefaultOutputTokens: 1200, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-0613", ContextTokens: 4096, DefaultOutputTokens: 1200, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-16k", ContextTokens: 16384, DefaultOutputTokens: 4800, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-16k-0613", ContextTokens: 16384, DefaultOutputTokens: 4800, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-1106", ContextTokens: 16384, DefaultOutputTokens: 4096, TokensPerMessage: 4, TokensPerName: -1},
	{ID: "gpt-3.5-turbo-0125", ContextTokens: 16384, DefaultOutputTokens: 4800, TokensPerMessage: 4, TokensPerName: -1},

	// Семейство gpt-4.
	{ID: "gpt-4", ContextTokens: 8192, DefaultOutputTokens: 2400, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-0314", ContextTokens: 8192, DefaultOutputTokens: 2400, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-0613", ContextTokens: 8192, DefaultOutputTokens: 2400, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-32k", ContextTokens: 32768, DefaultOutputTokens: 9600, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-32k-0314", ContextTokens: 32768, DefaultOutputTokens: 9600, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-32k-0613", ContextTokens: 32768, DefaultOutputTokens: 9600, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-vision-preview", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-1106-preview", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-0125-preview", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-turbo-preview", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-turbo", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4-turbo-2024-04-09", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "gpt-4o", ContextTokens: 126976, DefaultOutputTokens: 4096, TokensPerMessage: 3, TokensPerName: 1},

	// Семейство Claude.
	{ID: "claude-3-5-sonnet-20240620", ContextTokens: 200000, DefaultOutputTokens: 1024, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "claude-3-opus-20240229", ContextTokens: 200000, DefaultOutputTokens: 1024, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "claude-3-sonnet-20240229", ContextTokens: 200000, DefaultOutputTokens: 1024, TokensPerMessage: 3, TokensPerName: 1},
	{ID: "claude-3-haiku-20240307", ContextTokens: 200000, DefaultOutputTokens: 1024, TokensPerMessage: 3, TokensPerName: 1},
}

// LookupModel возвращает параметры модели по идентификатору.
func LookupModel(modelID string) (ModelInfo, error) {
	for _, m := range knownModels {
		if m.ID == modelID {
			return m, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
}

// IsKnownModel проверяет, есть ли модель в реестре.
func IsKnownModel(modelID string) bool {
	_, err := LookupModel(modelID)
	return err == nil
}
