package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chatrelay/internal/config"
)

// maxMessageLength лимит Telegram на длину одного сообщения.
const maxMessageLength = 4096

type BotClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

type HTTPBotClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.TelegramConfig, httpClient *http.Client) BotClient {
	return &HTTPBotClient{
		token:      cfg.BotToken,
		baseURL:    cfg.APIBaseURL,
		httpClient: httpClient,
	}
}

// SendMessage отправляет текст, разбивая его на части по лимиту Telegram.
func (c *HTTPBotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitIntoChunks(text, maxMessageLength) {
		payload := sendMessageRequest{
			ChatID: chatID,
			Text:   chunk,
		}
		if err := c.call(ctx, "sendMessage", payload); err != nil {
			return err
		}
	}
	return nil
}

// SendTyping показывает индикатор набора текста на время генерации ответа.
func (c *HTTPBotClient) SendTyping(ctx context.Context, chatID int64) error {
	payload := sendChatActionRequest{
		ChatID: chatID,
		Action: "typing",
	}
	return c.call(ctx, "sendChatAction", payload)
}

func (c *HTTPBotClient) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var response SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !response.Ok {
		return fmt.Errorf("telegram api error: %s", method)
	}
	return nil
}

// splitIntoChunks режет текст на куски не длиннее limit рун.
func splitIntoChunks(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}
