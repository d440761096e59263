// Package telegram is the Bot API transport of the monitor: it sends
// reports to chats and long-polls the commands sent to the bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_send_message = "client.send-message"
	report_client_get_updates  = "client.get-updates"
)

const DefaultBaseURL = "https://api.telegram.org"

var tracer = telemetry.Tracer("pricewatch.telegram")

// ErrAPI is returned when the Bot API answers with ok=false.
var ErrAPI = errors.New("telegram api error")

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type apiResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      T      `json:"result"`
}

func (r apiResponse[T]) err(status string) error {
	if r.Ok {
		return nil
	}
	if r.Description == "" {
		return fmt.Errorf("%w: %s", ErrAPI, status)
	}
	return fmt.Errorf("%w: %d %s", ErrAPI, r.ErrorCode, r.Description)
}

type ClientOptions struct {
	Token string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds a single request on top of the long polling timeout,
	// defaults to 30 seconds.
	Timeout time.Duration
	// PollTimeout is how long getUpdates waits for new messages, defaults
	// to 25 seconds.
	PollTimeout time.Duration
}

type Client struct {
	http        *resty.Client
	pollTimeout time.Duration
	tel         telemetry.API
}

func NewClient(options ClientOptions, tel telemetry.API) Client {
	assert.NotEmptyStr(options.Token, "telegram token")
	assert.NotNil(tel)

	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Timeout <= 0 {
		options.Timeout = time.Second * 30
	}
	if options.PollTimeout <= 0 {
		options.PollTimeout = time.Second * 25
	}

	// not instrumented with telemetry.InstrumentResty, the token is part of
	// every resolved url
	httpClient := resty.New()
	httpClient.SetBaseURL(options.BaseURL)
	httpClient.SetPathParam("token", options.Token)
	httpClient.SetTimeout(options.Timeout + options.PollTimeout)

	return Client{
		http:        httpClient,
		pollTimeout: options.PollTimeout,
		tel:         telemetry.NewScopedAPI("telegram", tel),
	}
}

// SendMessage sends html text to a chat, text longer than MaxMessageLength
// is sent as several messages split on line boundaries.
func (c Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	ctx, span := tracer.Start(ctx, "SendMessage")
	defer span.End()

	for _, part := range Split(text, MaxMessageLength) {
		var out apiResponse[Message]
		res, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]any{
				"chat_id":                  chatID,
				"text":                     part,
				"parse_mode":               "HTML",
				"disable_web_page_preview": true,
			}).
			SetResult(&out).
			SetError(&out).
			Post("/bot{token}/sendMessage")
		if err != nil {
			span.RecordError(err)
			c.tel.ReportBroken(report_client_send_message, err, chatID)
			return fmt.Errorf("send message: %w", err)
		}
		err = out.err(res.Status())
		if err != nil {
			span.RecordError(err)
			c.tel.ReportBroken(report_client_send_message, err, chatID)
			return err
		}
	}
	return nil
}

// GetUpdates long-polls the updates after `offset`.
func (c Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var out apiResponse[[]Update]
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":          strconv.FormatInt(offset, 10),
			"timeout":         strconv.Itoa(int(c.pollTimeout.Seconds())),
			"allowed_updates": `["message"]`,
		}).
		SetResult(&out).
		SetError(&out).
		Get("/bot{token}/getUpdates")
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	err = out.err(res.Status())
	if err != nil {
		c.tel.ReportWarning(report_client_get_updates, err)
		return nil, err
	}
	return out.Result, nil
}
