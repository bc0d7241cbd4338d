package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/httpserver"
	"chatrelay/internal/i18n"
)

// Responder один ход диалога: вопрос внутрь, ответ и токены наружу.
type Responder interface {
	GetChatResponse(ctx context.Context, chatID int64, query string) (string, int, error)
	ResetConversation(ctx context.Context, chatID int64) error
}

type WebhookDeps struct {
	Chat          Responder
	Bot           BotClient
	Logger        *slog.Logger
	Lang          string
	WebhookSecret string
}

type WebhookHandler struct {
	chat          Responder
	bot           BotClient
	logger        *slog.Logger
	lang          string
	webhookSecret string
}

func NewWebhookHandler(deps WebhookDeps) *WebhookHandler {
	return &WebhookHandler{
		chat:          deps.Chat,
		bot:           deps.Bot,
		logger:        deps.Logger,
		lang:          deps.Lang,
		webhookSecret: deps.WebhookSecret,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		if secret := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); secret != h.webhookSecret {
			httpserver.WriteJSONError(w, http.StatusForbidden, "forbidden", "invalid webhook secret")
			return
		}
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse update")
		return
	}
	if upd.Message == nil || upd.Message.From == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	text := strings.TrimSpace(upd.Message.Text)

	if text == "" {
		h.reply(ctx, upd.Message.Chat.ID, i18n.Text("empty_message", h.lang))
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, upd.Message, text)
	} else {
		h.handlePrompt(ctx, upd.Message, text)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func (h *WebhookHandler) handleCommand(ctx context.Context, msg *Message, text string) {
	cmd := strings.SplitN(text, " ", 2)[0]

	switch cmd {
	case "/start":
		h.reply(ctx, msg.Chat.ID, i18n.Text("start", h.lang))
	case "/reset":
		h.logger.Info("resetting conversation",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.String("username", msg.From.Username))
		if err := h.chat.ResetConversation(ctx, msg.Chat.ID); err != nil {
			h.logger.Error("reset failed",
				slog.Int64("chat_id", msg.Chat.ID),
				slog.String("error", err.Error()))
			h.reply(ctx, msg.Chat.ID, i18n.Text("error", h.lang))
			return
		}
		h.reply(ctx, msg.Chat.ID, i18n.Text("reset_done", h.lang))
	default:
		h.reply(ctx, msg.Chat.ID, i18n.Text("start", h.lang))
	}
}

func (h *WebhookHandler) handlePrompt(ctx context.Context, msg *Message, text string) {
	h.logger.Info("new message received",
		slog.Int64("chat_id", msg.Chat.ID),
		slog.String("username", msg.From.Username))

	if err := h.bot.SendTyping(ctx, msg.Chat.ID); err != nil {
		h.logger.Warn("typing action failed", slog.String("error", err.Error()))
	}

	answer, totalTokens, err := h.chat.GetChatResponse(ctx, msg.Chat.ID, text)
	if err != nil {
		h.logger.Error("chat response failed",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.String("error", err.Error()))
		// Сервис уже завернул ошибку в локализованное сообщение.
		h.reply(ctx, msg.Chat.ID, err.Error())
		return
	}

	h.logger.Info("reply sent",
		slog.Int64("chat_id", msg.Chat.ID),
		slog.Int("total_tokens", totalTokens))
	h.reply(ctx, msg.Chat.ID, answer)
}

func (h *WebhookHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		h.logger.Error("send message failed", slog.String("error", err.Error()))
	}
}
