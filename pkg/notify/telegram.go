package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChannelID string `yaml:"channel_id" env:"TELEGRAM_CHANNEL_ID"`
}

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	config  TelegramConfig
	baseURL string
	http    *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		config:  cfg,
		baseURL: telegramAPI,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Channel() Channel { return ChannelTelegram }

// Send posts msg.Title and msg.Body as a MarkdownV2 message.
func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	text := EscapeMarkdownV2(msg.Body)
	if msg.Title != "" {
		text = "*" + EscapeMarkdownV2(msg.Title) + "*\n\n" + text
	}

	body, err := json.Marshal(map[string]any{
		"chat_id":    t.config.ChannelID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, respBody)
	}
	return nil
}

var markdownV2Escaper = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 escapes the characters Telegram reserves in MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}
