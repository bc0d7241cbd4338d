package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chatrelay/internal/chat"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI вариант бекенда со списком сообщений в стиле chat/completions.
// Системный промпт провайдера всегда подставляется первым сообщением;
// system-сообщения, уже встроенные в историю, отбрасываются.
type OpenAI struct {
	cfg        Config
	model      ModelInfo
	maxOutput  int
	httpClient *http.Client
}

// NewOpenAI создаёт вариант OpenAI. Неизвестная модель — ошибка
// конфигурации, а не хода.
func NewOpenAI(cfg Config, httpClient *http.Client) (*OpenAI, error) {
	model, err := LookupModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	maxOutput := cfg.MaxOutputTokens
	if maxOutput <= 0 {
		maxOutput = model.DefaultOutputTokens
	}
	return &OpenAI{
		cfg:        cfg,
		model:      model,
		maxOutput:  maxOutput,
		httpClient: httpClient,
	}, nil
}

func (p *OpenAI) HumanRole() string { return chat.RoleUser }
func (p *OpenAI) AIRole() string    { return chat.RoleAssistant }

func (p *OpenAI) MaxContextTokens() int { return p.model.ContextTokens }
func (p *OpenAI) MaxOutputTokens() int  { return p.maxOutput }

// CreateCompletion выполняет запрос chat/completions.
func (p *OpenAI) CreateCompletion(ctx context.Context, messages []chat.Message) (string, int, error) {
	wire := make([]wireMessage, 0, len(messages)+1)
	wire = append(wire, wireMessage{Role: chat.RoleSystem, Content: p.cfg.SystemPrompt})
	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			continue
		}
		wire = append(wire, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	requestBody := openAIRequest{
		Model:       p.cfg.Model,
		Messages:    wire,
		Temperature: 0.4,
		MaxTokens:   p.maxOutput,
	}
	buf, err := json.Marshal(requestBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", 0, err
	}

	if err := classifyStatus("openai", resp.StatusCode, body); err != nil {
		return "", 0, err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", 0, errors.New("empty response from model")
	}

	return parsed.Choices[0].Message.Content, parsed.Usage.TotalTokens, nil
}

// classifyStatus переводит HTTP-статус в контрактную ошибку:
// 429 — транзиентный rate limit, прочие 4xx — некорректный запрос,
// остальное — обычная ошибка.
func classifyStatus(providerName string, status int, body []byte) error {
	if status < 300 {
		return nil
	}
	cause := fmt.Errorf("status %d: %s", status, body)
	switch {
	case status == http.StatusTooManyRequests:
		return &chat.RateLimitError{Provider: providerName, Err: cause}
	case status >= 400 && status < 500:
		return &chat.BadRequestError{Provider: providerName, Err: cause}
	default:
		return fmt.Errorf("%s unexpected %w", providerName, cause)
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}
