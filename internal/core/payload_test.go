package core

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/keepmind9/replybot/internal/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadBuilder_TextOnly(t *testing.T) {
	b := NewPayloadBuilder("hi there", "")

	msg := userMessage("hello")
	msg.GuildID = "g-1"
	payload, err := b.Build(msg)
	require.NoError(t, err)

	assert.Equal(t, "hi there", payload.Content)
	assert.Equal(t, bot.MessageRef{Channel: "c-1", MessageID: "m-1", GuildID: "g-1"}, payload.ReplyTo)
	assert.Nil(t, payload.Attachment)
}

func TestPayloadBuilder_WithImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.png")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	b := NewPayloadBuilder("", path)

	payload, err := b.Build(userMessage("hello"))
	require.NoError(t, err)
	require.NotNil(t, payload.Attachment)
	assert.Equal(t, "wave.png", payload.Attachment.Name)
	assert.Equal(t, []byte("first"), payload.Attachment.Data)

	// The image is read again on each build
	require.NoError(t, os.WriteFile(path, []byte("second"), 0644))
	payload, err = b.Build(userMessage("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload.Attachment.Data)
}

func TestPayloadBuilder_MissingImage(t *testing.T) {
	b := NewPayloadBuilder("hi", filepath.Join(t.TempDir(), "missing.png"))

	_, err := b.Build(userMessage("hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

