// Package telegram sends operator alerts when a market data source goes down
// or comes back.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/vintagescan/pricer/internal/domain"
)

// sender is the subset of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

// NewClient creates a new Telegram client. It contacts the Bot API once to
// validate the token.
func NewClient(botToken, chatID string, log zerolog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, log)
}

func newClient(bot sender, chatID string, log zerolog.Logger) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     3,
		retryDelayBase: time.Second,
		log:            log.With().Str("client", "telegram").Logger(),
		now:            time.Now,
	}, nil
}

// NotifySourceDown reports the first failure of a source.
func (c *Client) NotifySourceDown(source domain.SourceType, cause error) error {
	text := fmt.Sprintf("🔴 *Price source down*\n\nSource: `%s`\nTime: %s\nError: %s",
		escapeMarkdownV2(string(source)),
		escapeMarkdownV2(c.now().Format("2006-01-02 15:04:05")),
		escapeMarkdownV2(errString(cause)),
	)
	return c.send(text)
}

// NotifySourceRecovered reports that a source answered again after failures.
func (c *Client) NotifySourceRecovered(source domain.SourceType, failures int) error {
	text := fmt.Sprintf("🟢 *Price source recovered*\n\nSource: `%s`\nTime: %s\nFailed requests: %d",
		escapeMarkdownV2(string(source)),
		escapeMarkdownV2(c.now().Format("2006-01-02 15:04:05")),
		failures,
	)
	return c.send(text)
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		c.log.Warn().Err(lastErr).Int("attempt", i+1).Msg("Telegram send failed")
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
