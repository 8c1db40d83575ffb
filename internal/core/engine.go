package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keepmind9/replybot/internal/bot"
	"github.com/keepmind9/replybot/internal/logger"
	"github.com/keepmind9/replybot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// Engine connects a bot adapter to the cooldown responder.
//
// Adapters push messages into a buffered channel; a single event loop drains
// it and evaluates messages one at a time in arrival order. Replies are built
// and sent on their own goroutines so a slow file read or network send never
// holds up the loop.
type Engine struct {
	config      *Config
	adapter     bot.BotAdapter
	responder   *Responder
	payloads    *PayloadBuilder
	messageChan chan bot.BotMessage
	clock       func() time.Time

	// mu orders inflight.Add against Stop so no reply starts once the
	// engine is stopping.
	mu       sync.Mutex
	stopping bool
	inflight sync.WaitGroup

	ctx         context.Context
	cancel      context.CancelFunc
}

// NewEngine creates a new Engine. The first cooldown window opens immediately.
func NewEngine(config *Config, adapter bot.BotAdapter) *Engine {
	return newEngineWithClock(config, adapter, time.Now)
}

func newEngineWithClock(config *Config, adapter bot.BotAdapter, clock func() time.Time) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		config:      config,
		adapter:     adapter,
		responder:   NewResponder(config.Matcher(), config.Cooldown, clock()),
		payloads:    NewPayloadBuilder(config.ReplyText, config.ReplyImage),
		messageChan: make(chan bot.BotMessage, constants.MessageChannelBufferSize),
		clock:       clock,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Responder exposes the engine's responder
func (e *Engine) Responder() *Responder {
	return e.responder
}

// Run starts the adapter and processes messages until ctx is cancelled or
// Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	logger.WithFields(logrus.Fields{
		"platform": e.config.Platform,
		"cooldown": e.config.Cooldown.String(),
		"pattern":  e.config.Pattern,
		"image":    e.config.ReplyImage,
	}).Info("starting-replybot-engine")

	if err := e.adapter.Start(e.HandleBotMessage); err != nil {
		return fmt.Errorf("failed to start %s bot: %w", e.config.Platform, err)
	}

	e.runEventLoop(ctx)
	return nil
}

// runEventLoop runs the main event loop for processing messages
func (e *Engine) runEventLoop(ctx context.Context) {
	logger.Info("engine-event-loop-started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("event-loop-shutting-down")
			return
		case <-e.ctx.Done():
			logger.Info("event-loop-shutting-down")
			return
		case msg := <-e.messageChan:
			e.HandleUserMessage(msg)
		}
	}
}

// HandleBotMessage is the callback function for bots to deliver messages
func (e *Engine) HandleBotMessage(msg bot.BotMessage) {
	select {
	case e.messageChan <- msg:
	case <-e.ctx.Done():
	}
}

// HandleUserMessage evaluates one message and fires a reply when it triggers
func (e *Engine) HandleUserMessage(msg bot.BotMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopping {
		logger.WithField("message_id", msg.MessageID).Debug("message-dropped-engine-stopping")
		return
	}
	if !e.responder.Evaluate(msg, e.clock()) {
		return
	}

	logger.WithFields(logrus.Fields{
		"platform":         msg.Platform,
		"channel":          msg.Channel,
		"message_id":       msg.MessageID,
		"user_id":          msg.UserID,
		"next_eligible_at": e.responder.NextEligibleAt().Format(time.RFC3339),
	}).Info("reply-triggered")

	e.inflight.Add(1)
	go e.sendReply(msg)
}

// sendReply builds and delivers the reply. Failures are logged only; the
// cooldown window stays consumed.
func (e *Engine) sendReply(msg bot.BotMessage) {
	defer e.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"channel": msg.Channel,
				"panic":   r,
			}).Error("reply-panic-recovered")
		}
	}()

	payload, err := e.payloads.Build(msg)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"channel": msg.Channel,
			"error":   err,
		}).Error("failed-to-build-reply")
		return
	}

	if err := e.adapter.Reply(payload); err != nil {
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"channel":  msg.Channel,
			"error":    err,
		}).Error("failed-to-send-reply")
		return
	}

	logger.WithFields(logrus.Fields{
		"platform": msg.Platform,
		"channel":  msg.Channel,
		"reply_to": msg.MessageID,
	}).Info("reply-sent")
}

// Stop stops the event loop and the adapter, then waits briefly for replies
// still in flight. Messages handled after Stop never trigger a reply.
func (e *Engine) Stop() error {
	logger.Info("stopping-replybot-engine")

	e.mu.Lock()
	e.stopping = true
	e.mu.Unlock()
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(constants.ShutdownTimeout):
		logger.Warn("timed-out-waiting-for-in-flight-replies")
	}

	if err := e.adapter.Stop(); err != nil {
		logger.WithField("error", err).Error("failed-to-stop-bot")
		return fmt.Errorf("failed to stop bot: %w", err)
	}

	logger.Info("engine-stopped")
	return nil
}
