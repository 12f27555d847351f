// Package telegram is a minimal Telegram Bot API client covering the
// methods the bot surface needs: long polling, messages, inline keyboards
// and callback queries.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.telegram.org"

// Update represents an incoming Telegram update.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message represents a Telegram message.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      *Chat           `json:"chat"`
	Date      int64           `json:"date"`
	Text      string          `json:"text,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
}

// User represents a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// Chat represents a Telegram chat.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// MessageEntity marks a typed region inside a message text.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// CallbackQuery is an inline keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineKeyboardMarkup represents an inline keyboard.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is a single inline keyboard button.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// APIError is a non-OK response from the Bot API.
type APIError struct {
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// Config holds client settings.
type Config struct {
	Token         string
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	Logger        zerolog.Logger
}

// Client talks to the Telegram Bot API over HTTPS.
type Client struct {
	token      string
	baseURL    string
	retries    int
	retryDelay time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a Bot API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		// Must exceed the long-poll timeout plus network latency.
		cfg.Timeout = 65 * time.Second
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		retries:    cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger.With().Str("component", "telegram_client").Logger(),
	}
}

// SendMessageParams contains parameters for sendMessage.
type SendMessageParams struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	body := map[string]interface{}{
		"chat_id": params.ChatID,
		"text":    params.Text,
	}
	if params.ParseMode != "" {
		body["parse_mode"] = params.ParseMode
	}
	if params.ReplyMarkup != nil {
		body["reply_markup"] = params.ReplyMarkup
	}

	var message Message
	if err := c.call(ctx, "sendMessage", body, &message); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &message, nil
}

// SendHTML sends an HTML-formatted message.
func (c *Client) SendHTML(ctx context.Context, chatID int64, html string) (*Message, error) {
	return c.SendMessage(ctx, SendMessageParams{ChatID: chatID, Text: html, ParseMode: "HTML"})
}

// SendWithKeyboard sends an HTML message with an inline keyboard.
func (c *Client) SendWithKeyboard(ctx context.Context, chatID int64, html string, keyboard [][]InlineKeyboardButton) (*Message, error) {
	return c.SendMessage(ctx, SendMessageParams{
		ChatID:      chatID,
		Text:        html,
		ParseMode:   "HTML",
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
}

// EditMessageText edits the text and keyboard of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, html string, keyboard *InlineKeyboardMarkup) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       html,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		body["reply_markup"] = keyboard
	}

	var message Message
	if err := c.call(ctx, "editMessageText", body, &message); err != nil {
		return fmt.Errorf("edit message text: %w", err)
	}
	return nil
}

// AnswerCallbackQuery acknowledges an inline keyboard press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	body := map[string]interface{}{"callback_query_id": callbackQueryID}
	if text != "" {
		body["text"] = text
	}

	var result bool
	if err := c.call(ctx, "answerCallbackQuery", body, &result); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	return nil
}

// GetUpdates fetches updates using long polling.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit, timeoutSec int) ([]Update, error) {
	body := map[string]interface{}{"timeout": timeoutSec}
	if offset > 0 {
		body["offset"] = offset
	}
	if limit > 0 {
		body["limit"] = limit
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}

// GetMe returns information about the bot account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "getMe", nil, &user); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &user, nil
}

// DeleteWebhook removes a configured webhook so long polling can take over.
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	body := map[string]interface{}{"drop_pending_updates": dropPendingUpdates}

	var result bool
	if err := c.call(ctx, "deleteWebhook", body, &result); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, body map[string]interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.do(ctx, method, body, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(apiErr.RetryAfter) * time.Second):
			}
		}
	}

	return fmt.Errorf("api call failed after %d retries: %w", c.retries, lastErr)
}

func (c *Client) do(ctx context.Context, method string, body map[string]interface{}, result interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(payload, &apiResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if !apiResp.OK {
		apiErr := &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		return apiErr
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return true
		}
		return false
	}

	msg := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Command extracts the bot command from a message, without the leading slash
// or a trailing @botname suffix. Empty when the message is not a command.
func Command(msg *Message) string {
	if msg == nil || msg.Text == "" {
		return ""
	}
	for _, entity := range msg.Entities {
		if entity.Type == "bot_command" && entity.Offset == 0 && entity.Length <= len(msg.Text) {
			cmd := msg.Text[1:entity.Length]
			if at := strings.IndexByte(cmd, '@'); at >= 0 {
				cmd = cmd[:at]
			}
			return cmd
		}
	}
	return ""
}

// CommandArgs returns the text after the command, trimmed.
func CommandArgs(msg *Message) string {
	if msg == nil || msg.Text == "" {
		return ""
	}
	for _, entity := range msg.Entities {
		if entity.Type == "bot_command" && entity.Offset == 0 && entity.Length < len(msg.Text) {
			return strings.TrimSpace(msg.Text[entity.Length:])
		}
	}
	return ""
}
