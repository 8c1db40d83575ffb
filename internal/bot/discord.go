package bot

import (
	"bytes"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/keepmind9/replybot/internal/logger"
	"github.com/keepmind9/replybot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// discordIntents are the gateway intents replybot needs to see message text.
const discordIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// DiscordSessionInterface defines the interface we need from discordgo.Session
// This allows us to mock it in tests without depending on concrete types
type DiscordSessionInterface interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordBot implements BotAdapter interface for Discord
type DiscordBot struct {
	mu             sync.RWMutex
	token          string
	session        DiscordSessionInterface
	selfID         string
	messageHandler func(BotMessage)
}

// NewDiscordBot creates a new Discord bot instance
func NewDiscordBot(token string) *DiscordBot {
	return &DiscordBot{
		token: token,
	}
}

// newDiscordSession creates a real gateway session with the intents we need.
func newDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordIntents
	return session, nil
}

// Start establishes connection to Discord and begins listening for messages
func (d *DiscordBot) Start(messageHandler func(BotMessage)) error {
	d.SetMessageHandler(messageHandler)

	logger.WithFields(logrus.Fields{
		"token": maskSecret(d.token),
	}).Info("starting-discord-bot")

	d.mu.Lock()
	if d.session == nil {
		session, err := newDiscordSession(d.token)
		if err != nil {
			d.mu.Unlock()
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		d.session = session
	}
	session := d.session
	d.mu.Unlock()

	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	return nil
}

func (d *DiscordBot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}

	d.mu.Lock()
	d.selfID = r.User.ID
	d.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"platform": PlatformDiscord,
		"bot_id":   r.User.ID,
		"username": r.User.Username,
		"guilds":   len(r.Guilds),
	}).Info("discord-bot-ready")
}

func (d *DiscordBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}

	d.mu.RLock()
	selfID := d.selfID
	d.mu.RUnlock()

	msg := BotMessage{
		Platform:  PlatformDiscord,
		MessageID: m.ID,
		Channel:   m.ChannelID,
		GuildID:   m.GuildID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		FromBot:   m.Author.Bot || (selfID != "" && m.Author.ID == selfID),
		Content:   m.Content,
		Timestamp: time.Now(),
	}

	logger.WithFields(logrus.Fields{
		"platform":   PlatformDiscord,
		"message_id": msg.MessageID,
		"user_id":    msg.UserID,
		"username":   msg.Username,
		"channel":    msg.Channel,
		"from_bot":   msg.FromBot,
	}).Debug("received-discord-message")

	if handler := d.GetMessageHandler(); handler != nil {
		handler(msg)
	}
}

// Reply sends payload as a reply to the referenced Discord message
func (d *DiscordBot) Reply(payload ReplyPayload) error {
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return fmt.Errorf("discord session not initialized")
	}

	if payload.ReplyTo.Channel == "" {
		return fmt.Errorf("reply target channel is required")
	}

	content := payload.Content
	if utf8.RuneCountInString(content) > constants.MaxDiscordMessageLength {
		logger.WithFields(logrus.Fields{
			"original_length": utf8.RuneCountInString(content),
			"max_length":      constants.MaxDiscordMessageLength,
		}).Info("truncating-message-for-discord-limit")
		content = truncate(content, constants.MaxDiscordMessageLength)
	}

	send := &discordgo.MessageSend{
		Content: content,
	}
	if payload.ReplyTo.MessageID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: payload.ReplyTo.MessageID,
			ChannelID: payload.ReplyTo.Channel,
			GuildID:   payload.ReplyTo.GuildID,
		}
	}
	if payload.Attachment != nil {
		send.Files = []*discordgo.File{{
			Name:   payload.Attachment.Name,
			Reader: bytes.NewReader(payload.Attachment.Data),
		}}
	}

	if _, err := session.ChannelMessageSendComplex(payload.ReplyTo.Channel, send); err != nil {
		logger.WithFields(logrus.Fields{
			"channel": payload.ReplyTo.Channel,
			"error":   err,
		}).Error("failed-to-send-reply-to-discord")
		return fmt.Errorf("failed to send reply to channel %s: %w", payload.ReplyTo.Channel, err)
	}

	logger.WithFields(logrus.Fields{
		"channel":    payload.ReplyTo.Channel,
		"reply_to":   payload.ReplyTo.MessageID,
		"attachment": payload.Attachment != nil,
	}).Info("reply-sent-to-discord")
	return nil
}

// Stop closes the Discord connection and cleans up resources
func (d *DiscordBot) Stop() error {
	d.mu.Lock()
	session := d.session
	d.session = nil
	d.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}

	logger.Info("discord-bot-stopped")
	return nil
}

// SetMessageHandler sets the message handler in a thread-safe manner
func (d *DiscordBot) SetMessageHandler(handler func(BotMessage)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messageHandler = handler
}

// GetMessageHandler gets the message handler in a thread-safe manner
func (d *DiscordBot) GetMessageHandler() func(BotMessage) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messageHandler
}
