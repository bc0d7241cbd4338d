package provider

import (
	"context"
	"errors"
	"strings"

	"chatrelay/internal/chat"
)

const summaryInstruction = "Summarize this conversation in 700 characters or less"

// CompletionSummarizer сжимает историю диалога обычным запросом
// завершения к тому же бекенду.
type CompletionSummarizer struct {
	provider chat.Provider
}

// NewSummarizer создаёт суммаризатор поверх варианта бекенда.
func NewSummarizer(p chat.Provider) *CompletionSummarizer {
	return &CompletionSummarizer{provider: p}
}

// Summarize возвращает краткое резюме переданных сообщений.
func (s *CompletionSummarizer) Summarize(ctx context.Context, messages []chat.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("nothing to summarize")
	}

	prompt := []chat.Message{
		{Role: chat.RoleAssistant, Content: summaryInstruction},
		{Role: chat.RoleUser, Content: renderTranscript(messages)},
	}

	summary, _, err := s.provider.CreateCompletion(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}

// renderTranscript разворачивает сообщения в плоский текст "роль: содержимое".
func renderTranscript(messages []chat.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}
