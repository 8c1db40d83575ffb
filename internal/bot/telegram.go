package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/keepmind9/replybot/internal/logger"
	"github.com/keepmind9/replybot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// telegramAPI is the subset of *tgbotapi.BotAPI used by TelegramBot
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramBot implements BotAdapter interface for Telegram using long polling
type TelegramBot struct {
	mu             sync.RWMutex
	token          string
	api            telegramAPI
	messageHandler func(BotMessage)
	cancel         context.CancelFunc
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{
		token: token,
	}
}

// Start establishes long polling connection to Telegram and begins listening for messages
func (t *TelegramBot) Start(messageHandler func(BotMessage)) error {
	t.SetMessageHandler(messageHandler)

	logger.WithFields(logrus.Fields{
		"token": maskSecret(t.token),
	}).Info("starting-telegram-bot-with-long-polling")

	t.mu.Lock()
	if t.api == nil {
		api, err := tgbotapi.NewBotAPI(t.token)
		if err != nil {
			t.mu.Unlock()
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"bot_username": api.Self.UserName,
			"bot_id":       api.Self.ID,
		}).Info("telegram-bot-ready")
		t.api = api
	}
	api := t.api
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(constants.DefaultPollTimeout.Seconds())
	updates := api.GetUpdatesChan(u)

	go t.poll(ctx, updates)

	logger.Info("telegram-long-polling-connection-started")
	return nil
}

func (t *TelegramBot) poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("telegram-long-polling-stopped")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("telegram-updates-channel-closed")
				return
			}
			if update.Message != nil {
				t.handleMessage(update.Message)
			}
		}
	}
}

// handleMessage converts a Telegram message and hands it to the handler
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	msg := BotMessage{
		Platform:  PlatformTelegram,
		MessageID: strconv.Itoa(message.MessageID),
		Channel:   strconv.FormatInt(message.Chat.ID, 10),
		Content:   message.Text,
		Timestamp: time.Now(),
	}
	if msg.Content == "" {
		msg.Content = message.Caption
	}
	if message.From != nil {
		msg.UserID = strconv.FormatInt(message.From.ID, 10)
		msg.Username = message.From.UserName
		msg.FromBot = message.From.IsBot
	}

	logger.WithFields(logrus.Fields{
		"platform":   PlatformTelegram,
		"message_id": msg.MessageID,
		"user_id":    msg.UserID,
		"username":   msg.Username,
		"chat_id":    msg.Channel,
		"from_bot":   msg.FromBot,
	}).Debug("received-telegram-message")

	if handler := t.GetMessageHandler(); handler != nil {
		handler(msg)
	}
}

// Reply sends payload as a reply in the referenced Telegram chat. An
// attachment is sent as a photo with the content as its caption.
func (t *TelegramBot) Reply(payload ReplyPayload) error {
	t.mu.RLock()
	api := t.api
	t.mu.RUnlock()

	if api == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	chatID, err := strconv.ParseInt(payload.ReplyTo.Channel, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", payload.ReplyTo.Channel, err)
	}

	replyTo := 0
	if payload.ReplyTo.MessageID != "" {
		replyTo, err = strconv.Atoi(payload.ReplyTo.MessageID)
		if err != nil {
			return fmt.Errorf("invalid message ID %q: %w", payload.ReplyTo.MessageID, err)
		}
	}

	var chattable tgbotapi.Chattable
	if payload.Attachment != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  payload.Attachment.Name,
			Bytes: payload.Attachment.Data,
		})
		photo.Caption = truncate(payload.Content, constants.MaxTelegramCaptionLength)
		photo.ReplyToMessageID = replyTo
		chattable = photo
	} else {
		msg := tgbotapi.NewMessage(chatID, truncate(payload.Content, constants.MaxTelegramMessageLength))
		msg.ReplyToMessageID = replyTo
		chattable = msg
	}

	if _, err := api.Send(chattable); err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": payload.ReplyTo.Channel,
			"error":   err,
		}).Error("failed-to-send-reply-to-telegram")
		return fmt.Errorf("failed to send reply to chat %s: %w", payload.ReplyTo.Channel, err)
	}

	logger.WithFields(logrus.Fields{
		"chat_id":    payload.ReplyTo.Channel,
		"reply_to":   payload.ReplyTo.MessageID,
		"attachment": payload.Attachment != nil,
	}).Info("reply-sent-to-telegram")
	return nil
}

// Stop closes the Telegram long polling connection and cleans up resources
func (t *TelegramBot) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	api := t.api
	t.cancel = nil
	t.api = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if api != nil {
		api.StopReceivingUpdates()
	}

	logger.Info("telegram-bot-stopped")
	return nil
}

// SetMessageHandler sets the message handler in a thread-safe manner
func (t *TelegramBot) SetMessageHandler(handler func(BotMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

// GetMessageHandler gets the message handler in a thread-safe manner
func (t *TelegramBot) GetMessageHandler() func(BotMessage) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}
