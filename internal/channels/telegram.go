package channels

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"jobagent/internal/agent"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	telegramAPIBase      = "https://api.telegram.org"
	telegramSendMsg      = "/sendMessage"
	telegramChatAction   = "/sendChatAction"
	telegramActionTyping = "typing"
	telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	// Telegram rejects messages longer than this.
	telegramMaxMessage = 4096
	telegramQueueSize  = 32
)

type TelegramOption func(*Telegram)

// WithTelegramAPI points the bot at another Bot API server.
func WithTelegramAPI(baseURL string) TelegramOption {
	return func(t *Telegram) { t.apiURL = strings.TrimRight(baseURL, "/") + "/bot" + t.botToken }
}

// WithSecret requires webhook calls to carry the secret token header.
func WithSecret(secret string) TelegramOption {
	return func(t *Telegram) { t.secret = secret }
}

// WithAllowedChats restricts the bot to the given chat IDs.
func WithAllowedChats(ids []int64) TelegramOption {
	return func(t *Telegram) { t.allowed = ids }
}

// Telegram answers webhook updates with the assistant's final message. Each
// chat is its own session.
type Telegram struct {
	botToken string
	runner   agent.Runner
	apiURL   string
	secret   string
	allowed  []int64
	client   *http.Client
	queue    chan telegramMessage
}

func NewTelegram(botToken string, runner agent.Runner, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		botToken: botToken,
		runner:   runner,
		apiURL:   telegramAPIBase + "/bot" + botToken,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		queue: make(chan telegramMessage, telegramQueueSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook/telegram", t.handleWebhook)
}

type telegramUpdate struct {
	Message *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Chat telegramChat `json:"chat"`
	Text string       `json:"text"`
}

type telegramChat struct {
	ID int64 `json:"id"`
}

type telegramSendRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// handleWebhook acknowledges at once; runs take far longer than Telegram
// waits before retrying an update.
func (t *Telegram) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if t.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(telegramSecretHeader)), []byte(t.secret)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Error("telegram: failed to decode update", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	msg := *update.Message

	if len(t.allowed) > 0 && !slices.Contains(t.allowed, msg.Chat.ID) {
		slog.Warn("telegram: message from chat not allowed", "chat_id", msg.Chat.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	select {
	case t.queue <- msg:
		w.WriteHeader(http.StatusOK)
	default:
		slog.Warn("telegram: queue full, asking for redelivery", "chat_id", msg.Chat.ID)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

// Start answers queued messages one at a time until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-t.queue:
			t.answer(ctx, msg)
		}
	}
}

func SessionID(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

func (t *Telegram) answer(ctx context.Context, msg telegramMessage) {
	chatID := msg.Chat.ID
	slog.Info("telegram: received message", "chat_id", chatID, "length", len(msg.Text))

	t.sendTyping(ctx, chatID)

	ctx = agent.ContextWithChannel(ctx, t.Name())
	var final string
	err := t.runner.Run(ctx, SessionID(chatID), msg.Text, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToolCall:
			t.sendTyping(ctx, chatID)
		case agent.EventDone:
			final, _ = ev.Data.(string)
		}
	})
	if err != nil {
		slog.Error("telegram: run failed", "chat_id", chatID, "error", err)
		final = "Sorry, something went wrong while working on that. Please try again."
	}
	if final == "" {
		return
	}

	for _, part := range split(final, telegramMaxMessage) {
		if err := t.sendMessage(ctx, chatID, part); err != nil {
			slog.Error("telegram: failed to send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (t *Telegram) sendTyping(ctx context.Context, chatID int64) {
	body, _ := json.Marshal(map[string]any{
		"chat_id": chatID,
		"action":  telegramActionTyping,
	})
	resp, err := t.post(ctx, telegramChatAction, body)
	if err != nil {
		slog.Warn("telegram: failed to send typing action", "chat_id", chatID, "error", err)
		return
	}
	resp.Body.Close()
}

func (t *Telegram) sendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(telegramSendRequest{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return err
	}

	resp, err := t.post(ctx, telegramSendMsg, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}

func (t *Telegram) post(ctx context.Context, method string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return t.client.Do(req)
}

// split cuts s into chunks of at most n bytes, preferring line breaks and
// never splitting a UTF-8 sequence.
func split(s string, n int) []string {
	var parts []string
	for len(s) > n {
		cut := strings.LastIndexByte(s[:n], '\n')
		if cut <= 0 {
			cut = n
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		parts = append(parts, s[:cut])
		s = strings.TrimLeft(s[cut:], "\n")
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
