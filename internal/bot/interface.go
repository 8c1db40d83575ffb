// Package bot provides the gateway adapters replybot talks to.
//
// An adapter owns the platform connection: it authenticates, delivers every
// inbound message to a handler callback, and sends reply payloads back as
// threaded replies. Discord is the default platform; Telegram is available
// through the same interface.
//
// # Usage
//
//	adapter, err := bot.NewAdapter(bot.PlatformDiscord, token)
//	if err != nil {
//		return err
//	}
//	err = adapter.Start(func(msg bot.BotMessage) {
//		fmt.Printf("Received: %s\n", msg.Content)
//	})
//	...
//	adapter.Reply(bot.ReplyPayload{Content: "hi", ReplyTo: msg.Ref()})
//	adapter.Stop()
//
// # Thread Safety
//
// Adapters guard their state with mutexes. The message handler may be called
// from several goroutines at once (discordgo runs each event handler in its
// own goroutine), so handlers must do their own serialization.
package bot

import (
	"fmt"
	"strings"
	"time"
)

// Supported platforms
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
)

// BotAdapter defines the interface for bot adapters
type BotAdapter interface {
	// Start starts the bot, establishes connection and begins listening for messages
	Start(messageHandler func(BotMessage)) error

	// Reply delivers a payload as a reply to the referenced message.
	// Adapters truncate content to platform limits.
	Reply(payload ReplyPayload) error

	// Stop stops the bot and cleans up resources
	Stop() error
}

// BotMessage represents an inbound message event
type BotMessage struct {
	Platform  string
	MessageID string
	Channel   string // Channel/chat ID
	GuildID   string // Discord only, empty for DMs
	UserID    string
	Username  string
	FromBot   bool // Author is an automated account (including this bot)
	Content   string
	Timestamp time.Time
}

// Ref returns a reference that a reply can point at.
func (m BotMessage) Ref() MessageRef {
	return MessageRef{
		Channel:   m.Channel,
		MessageID: m.MessageID,
		GuildID:   m.GuildID,
	}
}

// MessageRef identifies the message being replied to
type MessageRef struct {
	Channel   string
	MessageID string
	GuildID   string
}

// Attachment is a binary file sent along with a reply
type Attachment struct {
	Name string
	Data []byte
}

// ReplyPayload is the outbound reply handed to an adapter
type ReplyPayload struct {
	Content    string
	ReplyTo    MessageRef
	Attachment *Attachment
}

// NewAdapter creates the adapter for platform.
func NewAdapter(platform, token string) (BotAdapter, error) {
	switch strings.ToLower(platform) {
	case "", PlatformDiscord:
		return NewDiscordBot(token), nil
	case PlatformTelegram:
		return NewTelegramBot(token), nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
}
