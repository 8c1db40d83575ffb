package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/keepmind9/replybot/internal/bot"
)

// PayloadBuilder builds the reply sent for a triggering message
type PayloadBuilder struct {
	text      string
	imagePath string
	readFile  func(name string) ([]byte, error)
}

// NewPayloadBuilder creates a builder for the configured reply. imagePath
// may be empty.
func NewPayloadBuilder(text, imagePath string) *PayloadBuilder {
	return &PayloadBuilder{
		text:      text,
		imagePath: imagePath,
		readFile:  os.ReadFile,
	}
}

// Build returns the payload replying to msg. The image, if any, is read
// from disk on every call.
func (b *PayloadBuilder) Build(msg bot.BotMessage) (bot.ReplyPayload, error) {
	payload := bot.ReplyPayload{
		Content: b.text,
		ReplyTo: msg.Ref(),
	}

	if b.imagePath == "" {
		return payload, nil
	}

	data, err := b.readFile(b.imagePath)
	if err != nil {
		return bot.ReplyPayload{}, fmt.Errorf("failed to read reply image %s: %w", b.imagePath, err)
	}
	payload.Attachment = &bot.Attachment{
		Name: filepath.Base(b.imagePath),
		Data: data,
	}
	return payload, nil
}
