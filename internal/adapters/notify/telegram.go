package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Telegram implementa ports.Notifier contra el Bot API de Telegram.
// Si falta el token o el chat id, Notify es un no-op silencioso: el agente
// puede correr sin alertas configuradas.
type Telegram struct {
	http   *http.Client
	token  string
	chatID string
}

// NewTelegram crea el notificador de Telegram.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		http:   &http.Client{Timeout: 10 * time.Second},
		token:  token,
		chatID: chatID,
	}
}

// Configured devuelve true si hay credenciales para enviar alertas.
func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

// Notify implementa ports.Notifier.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if !t.Configured() {
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    "🤖 Trading Agent\n\n" + text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify.Telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.Telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notify.Telegram: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
