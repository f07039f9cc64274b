package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// API is the outbound Bot API surface used by the dispatcher and the
// notifier; tests substitute a recorder.
type API interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client is a thin resty-based Telegram Bot API client.
type Client struct {
	http  *resty.Client
	token string
}

func NewClient(token string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL("https://api.telegram.org").
			SetTimeout(30 * time.Second),
		token: token,
	}
}

func (c *Client) call(ctx context.Context, method string, body map[string]interface{}) error {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/bot%s/%s", c.token, method))
	if err != nil {
		return errors.Wrapf(err, "telegram %s", method)
	}
	if !out.OK {
		return errors.Errorf("telegram %s: %d %s (http %d)", method, out.ErrorCode, out.Description, resp.StatusCode())
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		body["reply_markup"] = markup
	}
	return c.call(ctx, "sendMessage", body)
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		body["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", body)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	body := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		body["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", body)
}

// SetWebhook registers the webhook URL with the Bot API. The optional secret
// is echoed back by Telegram in X-Telegram-Bot-Api-Secret-Token.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	body := map[string]interface{}{"url": url}
	if secret != "" {
		body["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", body)
}
