package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chatrelay/internal/chat"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
)

// Claude вариант бекенда messages API. Перед вызовом извлекает
// встроенный system-промпт (или берёт сконфигурированный), склеивает
// подряд идущие сообщения одной роли и подставляет placeholder вместо
// пустого содержимого: бекенд отвергает и то и другое. Системный
// промпт уходит отдельным полем, а не в списке сообщений.
type Claude struct {
	cfg        Config
	model      ModelInfo
	maxOutput  int
	httpClient *http.Client
}

// NewClaude создаёт вариант Claude. Неизвестная модель — ошибка конфигурации.
func NewClaude(cfg Config, httpClient *http.Client) (*Claude, error) {
	model, err := LookupModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultClaudeBaseURL
	}
	maxOutput := cfg.MaxOutputTokens
	if maxOutput <= 0 {
		maxOutput = model.DefaultOutputTokens
	}
	return &Claude{
		cfg:        cfg,
		model:      model,
		maxOutput:  maxOutput,
		httpClient: httpClient,
	}, nil
}

func (p *Claude) HumanRole() string { return chat.RoleUser }
func (p *Claude) AIRole() string    { return chat.RoleAssistant }

func (p *Claude) MaxContextTokens() int { return p.model.ContextTokens }
func (p *Claude) MaxOutputTokens() int  { return p.maxOutput }

// CreateCompletion выполняет запрос messages API.
func (p *Claude) CreateCompletion(ctx context.Context, messages []chat.Message) (string, int, error) {
	remaining, systemPrompt, found := chat.ExtractSystemPrompt(messages)
	if !found {
		systemPrompt = p.cfg.SystemPrompt
	}
	remaining = chat.MergeConsecutive(remaining)
	remaining = chat.ReplaceEmpty(remaining, p.cfg.emptyPlaceholder())

	wire := make([]wireMessage, len(remaining))
	for i, msg := range remaining {
		wire[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}

	requestBody := claudeRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.maxOutput,
		System:    systemPrompt,
		Messages:  wire,
	}
	buf, err := json.Marshal(requestBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", 0, err
	}

	if err := classifyStatus("claude", resp.StatusCode, body); err != nil {
		return "", 0, err
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", 0, errors.New("empty response from model")
	}

	answer := joinContentBlocks(parsed.Content)
	totalTokens := parsed.Usage.InputTokens + parsed.Usage.OutputTokens
	return answer, totalTokens, nil
}

// joinContentBlocks собирает текст ответа. Несколько блоков нумеруются
// комбинируемой клавишей-эмодзи, как варианты ответа.
func joinContentBlocks(blocks []claudeContentBlock) string {
	if len(blocks) == 1 {
		return blocks[0].Text
	}
	parts := make([]string, len(blocks))
	for i, block := range blocks {
		parts[i] = fmt.Sprintf("%d⃣\n%s", i+1, block.Text)
	}
	return strings.Join(parts, "\n\n")
}

type claudeRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []wireMessage `json:"messages"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	Content []claudeContentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
