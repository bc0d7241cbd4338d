package chat

import "strings"

// Канонические роли сообщений. История хранится только в этом словаре ролей;
// провайдер переводит их в свою терминологию в момент вызова, поэтому
// сохранённый диалог можно переиграть через другой бекенд.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PartType тип фрагмента составного сообщения.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part фрагмент составного сообщения (текст или вложение).
// Ядро нормализует всё к тексту; не-текстовые фрагменты
// игнорируются при подсчёте токенов.
type Part struct {
	Type PartType `json:"type"`
	Data string   `json:"data"`
}

// Message одно сообщение диалога.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// ExtractSystemPrompt разделяет сообщения на (не-system сообщения, system-промпт).
// Если system-сообщений несколько, каноническим считается последнее.
// Порядок остальных сообщений сохраняется. Вход не изменяется.
func ExtractSystemPrompt(messages []Message) ([]Message, string, bool) {
	var (
		systemPrompt string
		found        bool
	)
	remaining := make([]Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			systemPrompt = msg.Content
			found = true
			continue
		}
		remaining = append(remaining, msg)
	}

	return remaining, systemPrompt, found
}

// MergeConsecutive склеивает подряд идущие сообщения одной роли в одно,
// соединяя содержимое через перевод строки. Нужно для бекендов,
// которые отвергают два хода одной роли подряд. Вход не изменяется.
func MergeConsecutive(messages []Message) []Message {
	if len(messages) == 0 {
		return messages
	}

	merged := make([]Message, 0, len(messages))
	merged = append(merged, messages[0])

	for _, msg := range messages[1:] {
		last := &merged[len(merged)-1]
		if msg.Role == last.Role {
			last.Content += "\n" + msg.Content
			continue
		}
		merged = append(merged, msg)
	}

	return merged
}

// ReplaceEmpty заменяет пустое или состоящее из пробелов содержимое
// на placeholder. Роли и непустое содержимое не меняются. Нужно для
// бекендов, которые отвечают ошибкой на пустое поле content.
func ReplaceEmpty(messages []Message, placeholder string) []Message {
	result := make([]Message, len(messages))
	copy(result, messages)

	for i := range result {
		if strings.TrimSpace(result[i].Content) == "" {
			result[i].Content = placeholder
		}
	}

	return result
}
