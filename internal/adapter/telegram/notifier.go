package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	sendTimeout    = 10 * time.Second
)

const (
	iconInfo    = "ℹ️"
	iconError   = "❌"
	iconWarning = "⚠️"
	iconSuccess = "✅"
)

type sendMessageRequest struct {
	ChatId string `json:"chat_id"`
	Text   string `json:"text"`
}

// Notifier шлёт уведомления в Telegram. Ошибки отправки только логируются.
type Notifier struct {
	creds      config.TelegramBotConfig
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

type Option func(*Notifier)

// WithBaseURL подменяет адрес Bot API.
func WithBaseURL(u string) Option {
	return func(n *Notifier) { n.baseURL = strings.TrimRight(u, "/") }
}

// NewNotifier возвращает nil, если токен или чат не заданы; методы nil-получателя ничего не делают.
func NewNotifier(creds config.TelegramBotConfig, logger *slog.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if creds.ChatId == "" || creds.Token == "" {
		logger.Warn("telegram credentials missing, notifications disabled")
		return nil
	}
	n := &Notifier{
		creds:      creds,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: sendTimeout},
		logger:     logger.With("component", "telegram"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Log(value string) {
	if n == nil {
		return
	}
	n.send(formatMessage(iconInfo, "INFO", value))
}

func (n *Notifier) LogError(value string) {
	if n == nil {
		return
	}
	n.send(formatMessage(iconError, "ERROR", value))
}

func (n *Notifier) LogWarning(value string) {
	if n == nil {
		return
	}
	n.send(formatMessage(iconWarning, "WARNING", value))
}

func (n *Notifier) LogSuccess(value string) {
	if n == nil {
		return
	}
	n.send(formatMessage(iconSuccess, "SUCCESS", value))
}

func formatMessage(icon, level, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		v = "-"
	}
	return fmt.Sprintf("%s %s: %s", icon, level, v)
}

func (n *Notifier) send(text string) {
	if err := n.sendRequest(text); err != nil {
		n.logger.Warn("telegram send failed", "err", err)
	}
}

func (n *Notifier) sendRequest(text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.creds.Token)

	bodyBytes, err := json.Marshal(sendMessageRequest{ChatId: n.creds.ChatId, Text: text})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// url.Error несёт адрес запроса, а в нём токен бота.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("telegram %s sendMessage: %w", strings.ToLower(uerr.Op), uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}
