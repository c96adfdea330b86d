package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"botdesk/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidToken means Telegram rejected the token.
	ErrInvalidToken = errors.New("telegram rejected the bot token")
	// ErrUnavailable means Telegram could not be reached or answered with a server error.
	ErrUnavailable = errors.New("telegram api unavailable")
)

// DefaultAllowedUpdates is the update filter registered with every webhook.
var DefaultAllowedUpdates = []string{"message", "edited_message", "callback_query"}

// BotIdentity is the getMe answer.
type BotIdentity struct {
	ID        int64
	Username  string
	FirstName string
	IsBot     bool
}

type WebhookOptions struct {
	URL                string
	SecretToken        string
	DropPendingUpdates bool
	AllowedUpdates     []string
}

type OutgoingMessage struct {
	ChatID                int64
	Text                  string
	ReplyToMessageID      int
	DisableWebPagePreview bool
}

type SentMessage struct {
	MessageID int
	ChatID    int64
	Date      int
}

type Command struct {
	Command     string
	Description string
}

// Client talks to the Bot API. It holds no connection state between calls:
// each call builds its own HTTP client and releases it before returning.
type Client struct {
	endpoint  string
	timeout   time.Duration
	transport http.RoundTripper
	logger    zerolog.Logger
}

func NewClient(cfg config.TelegramConfig, transport http.RoundTripper, logger *zerolog.Logger) *Client {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "telegram").Logger()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		endpoint:  cfg.APIEndpoint,
		timeout:   cfg.RequestTimeout,
		transport: transport,
		logger:    l,
	}
}

// ctxClient binds a request context to every call tgbotapi makes.
type ctxClient struct {
	ctx context.Context
	hc  *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.hc.Do(req.WithContext(c.ctx))
}

// session runs fn against a fresh BotAPI and closes its idle connections on
// every exit path. Transport errors come back without the request URL, which
// embeds the token.
func (c *Client) session(ctx context.Context, token string, fn func(bot *tgbotapi.BotAPI) error) error {
	hc := &http.Client{Timeout: c.timeout, Transport: c.transport}
	defer hc.CloseIdleConnections()

	bot := &tgbotapi.BotAPI{Token: token, Client: ctxClient{ctx: ctx, hc: hc}, Buffer: 1}
	bot.SetAPIEndpoint(c.endpoint)
	return redactURL(fn(bot))
}

func redactURL(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return fmt.Errorf("%s %s: %w", urlErr.Op, path.Base(urlErr.URL), urlErr.Err)
}

// classify maps a tgbotapi error onto ErrInvalidToken or ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
		case apiErr.Code >= http.StatusInternalServerError, apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrUnavailable, apiErr.Message)
		default:
			return fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// GetMe validates token and returns the bot identity.
func (c *Client) GetMe(ctx context.Context, token string) (*BotIdentity, error) {
	var identity *BotIdentity
	err := c.session(ctx, token, func(bot *tgbotapi.BotAPI) error {
		me, err := bot.GetMe()
		if err != nil {
			return err
		}
		identity = &BotIdentity{ID: me.ID, Username: me.UserName, FirstName: me.FirstName, IsBot: me.IsBot}
		return nil
	})
	if err != nil {
		err = classify(err)
		c.logger.Warn().Err(err).Msg("getMe failed")
		return nil, err
	}
	return identity, nil
}

// SetWebhook registers the webhook and reports success.
func (c *Client) SetWebhook(ctx context.Context, token string, opts WebhookOptions) bool {
	allowed := opts.AllowedUpdates
	if len(allowed) == 0 {
		allowed = DefaultAllowedUpdates
	}
	err := c.session(ctx, token, func(bot *tgbotapi.BotAPI) error {
		params := tgbotapi.Params{}
		params["url"] = opts.URL
		params.AddNonEmpty("secret_token", opts.SecretToken)
		params.AddBool("drop_pending_updates", opts.DropPendingUpdates)
		if err := params.AddInterface("allowed_updates", allowed); err != nil {
			return err
		}
		_, err := bot.MakeRequest("setWebhook", params)
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Str("url", opts.URL).Msg("setWebhook failed")
		return false
	}
	return true
}

func (c *Client) DeleteWebhook(ctx context.Context, token string, dropPendingUpdates bool) bool {
	err := c.session(ctx, token, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPendingUpdates})
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("deleteWebhook failed")
		return false
	}
	return true
}

// SendMessage returns nil when the message could not be sent.
func (c *Client) SendMessage(ctx context.Context, token string, out OutgoingMessage) *SentMessage {
	var sent *SentMessage
	err := c.session(ctx, token, func(bot *tgbotapi.BotAPI) error {
		msg := tgbotapi.NewMessage(out.ChatID, out.Text)
		msg.ReplyToMessageID = out.ReplyToMessageID
		msg.DisableWebPagePreview = out.DisableWebPagePreview
		res, err := bot.Send(msg)
		if err != nil {
			return err
		}
		sent = &SentMessage{MessageID: res.MessageID, ChatID: out.ChatID, Date: res.Date}
		return nil
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("chat_id", out.ChatID).Msg("sendMessage failed")
		return nil
	}
	return sent
}

func (c *Client) SetMyCommands(ctx context.Context, token string, commands []Command) bool {
	err := c.session(ctx, token, func(bot *tgbotapi.BotAPI) error {
		cmds := make([]tgbotapi.BotCommand, 0, len(commands))
		for _, cmd := range commands {
			cmds = append(cmds, tgbotapi.BotCommand{Command: cmd.Command, Description: cmd.Description})
		}
		_, err := bot.Request(tgbotapi.NewSetMyCommands(cmds...))
		return err
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("setMyCommands failed")
		return false
	}
	return true
}
