package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keepmind9/replybot/internal/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records replies instead of talking to a platform
type fakeAdapter struct {
	mu        sync.Mutex
	handler   func(bot.BotMessage)
	replies   []bot.ReplyPayload
	startErr  error
	replyErr  error
	panicOnce bool
	stopped   bool
}

func (f *fakeAdapter) Start(handler func(bot.BotMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.handler = handler
	return nil
}

func (f *fakeAdapter) Reply(payload bot.ReplyPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnce {
		f.panicOnce = false
		panic("boom")
	}
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies = append(f.replies, payload)
	return nil
}

func (f *fakeAdapter) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeAdapter) deliver(msg bot.BotMessage) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	handler(msg)
}

func (f *fakeAdapter) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(t *testing.T, env map[string]string) *Config {
	t.Helper()
	vars := map[string]string{EnvToken: "token"}
	for k, v := range env {
		vars[k] = v
	}
	config, err := LoadConfig(LoadOptions{LookupEnv: envMap(vars)})
	require.NoError(t, err)
	return config
}

func newTestEngine(t *testing.T, env map[string]string) (*Engine, *fakeAdapter, *fakeClock) {
	t.Helper()
	adapter := &fakeAdapter{}
	clock := &fakeClock{now: epoch}
	engine := newEngineWithClock(testConfig(t, env), adapter, clock.Now)
	return engine, adapter, clock
}

func TestEngine_ZeroCooldownBothFire(t *testing.T) {
	engine, adapter, clock := newTestEngine(t, map[string]string{
		EnvCooldown:  "0",
		EnvPattern:   "hello",
		EnvReplyText: "hi",
	})

	engine.HandleUserMessage(userMessage("hello"))
	clock.Advance(time.Millisecond)
	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	assert.Equal(t, 2, adapter.replyCount())
}

func TestEngine_CooldownSuppressesSecondReply(t *testing.T) {
	engine, adapter, clock := newTestEngine(t, map[string]string{
		EnvCooldown:  "5",
		EnvPattern:   "hello",
		EnvReplyText: "hi",
	})

	engine.HandleUserMessage(userMessage("hello"))
	clock.Advance(60 * time.Second)
	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	require.Equal(t, 1, adapter.replyCount())
	assert.Equal(t, "hi", adapter.replies[0].Content)
	assert.Equal(t, "m-1", adapter.replies[0].ReplyTo.MessageID)

	clock.Advance(4 * time.Minute)
	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()
	assert.Equal(t, 2, adapter.replyCount())
}

func TestEngine_WhitespaceNeverFires(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, map[string]string{EnvCooldown: "0"})

	engine.HandleUserMessage(userMessage("   "))
	engine.inflight.Wait()

	assert.Equal(t, 0, adapter.replyCount())
	assert.Equal(t, epoch, engine.Responder().NextEligibleAt())
}

func TestEngine_MissingImageDoesNotStopProcessing(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "reply.png")

	engine, adapter, clock := newTestEngine(t, map[string]string{
		EnvCooldown:   "0",
		EnvPattern:    "hello",
		EnvReplyText:  "hi",
		EnvReplyImage: image,
	})

	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()
	assert.Equal(t, 0, adapter.replyCount())

	require.NoError(t, os.WriteFile(image, []byte("PNG"), 0644))
	clock.Advance(time.Millisecond)
	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	require.Equal(t, 1, adapter.replyCount())
	require.NotNil(t, adapter.replies[0].Attachment)
	assert.Equal(t, []byte("PNG"), adapter.replies[0].Attachment.Data)
}

func TestEngine_FailedSendStillConsumesWindow(t *testing.T) {
	engine, adapter, clock := newTestEngine(t, map[string]string{
		EnvCooldown: "1",
		EnvPattern:  "hello",
	})
	adapter.replyErr = errors.New("network down")

	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	clock.Advance(30 * time.Second)
	adapter.mu.Lock()
	adapter.replyErr = nil
	adapter.mu.Unlock()

	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()
	assert.Equal(t, 0, adapter.replyCount())
	assert.Equal(t, epoch.Add(time.Minute), engine.Responder().NextEligibleAt())
}

func TestEngine_RecoversFromReplyPanic(t *testing.T) {
	engine, adapter, clock := newTestEngine(t, map[string]string{EnvCooldown: "0", EnvPattern: "hello"})
	adapter.panicOnce = true

	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	clock.Advance(time.Millisecond)
	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	assert.Equal(t, 1, adapter.replyCount())
}

func TestEngine_IgnoresBotMessages(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, map[string]string{EnvCooldown: "0", EnvPattern: "hello"})

	msg := userMessage("hello")
	msg.FromBot = true
	engine.HandleUserMessage(msg)
	engine.inflight.Wait()

	assert.Equal(t, 0, adapter.replyCount())
}

func TestEngine_RunProcessesDeliveredMessages(t *testing.T) {
	engine, adapter, clock := newTestEngine(t, map[string]string{
		EnvCooldown:  "0",
		EnvPattern:   "ping",
		EnvReplyText: "pong",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	require.Eventually(t, func() bool {
		adapter.mu.Lock()
		defer adapter.mu.Unlock()
		return adapter.handler != nil
	}, time.Second, 5*time.Millisecond)

	adapter.deliver(userMessage("ping"))
	adapter.deliver(userMessage("nope"))
	clock.Advance(time.Millisecond)
	adapter.deliver(userMessage("PING!"))

	assert.Eventually(t, func() bool { return adapter.replyCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestEngine_RunReturnsStartError(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, nil)
	adapter.startErr = errors.New("authentication failed")

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestEngine_Stop(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, nil)

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		adapter.mu.Lock()
		defer adapter.mu.Unlock()
		return adapter.handler != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.Stop())
	assert.NoError(t, <-done)
	assert.True(t, adapter.stopped)

	// Delivering after stop must not block
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			engine.HandleBotMessage(userMessage("hello"))
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("HandleBotMessage blocked after Stop")
	}
}

func TestEngine_NoReplyAfterStop(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, map[string]string{EnvCooldown: "0", EnvPattern: "hello"})

	require.NoError(t, engine.Stop())

	engine.HandleUserMessage(userMessage("hello"))
	engine.inflight.Wait()

	assert.Equal(t, 0, adapter.replyCount())
	assert.Equal(t, epoch, engine.Responder().NextEligibleAt())
}

func TestEngine_StopWhileMessagesArrive(t *testing.T) {
	engine, adapter, _ := newTestEngine(t, map[string]string{EnvCooldown: "0", EnvPattern: "hello"})

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		adapter.mu.Lock()
		defer adapter.mu.Unlock()
		return adapter.handler != nil
	}, time.Second, 5*time.Millisecond)

	var senders sync.WaitGroup
	for i := 0; i < 8; i++ {
		senders.Add(1)
		go func() {
			defer senders.Done()
			for j := 0; j < 100; j++ {
				adapter.deliver(userMessage("hello"))
				engine.HandleUserMessage(userMessage("hello"))
			}
		}()
	}

	require.NoError(t, engine.Stop())
	assert.NoError(t, <-done)

	stoppedAt := adapter.replyCount()
	senders.Wait()
	engine.inflight.Wait()

	assert.Equal(t, stoppedAt, adapter.replyCount())
}
