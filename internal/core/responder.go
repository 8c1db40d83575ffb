package core

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/keepmind9/replybot/internal/bot"
)

// Responder decides whether an inbound message triggers a reply.
//
// It holds a single piece of state, the instant at which the cooldown window
// next opens. The check against that instant and its update happen under one
// lock, so at most one reply fires per window no matter how many goroutines
// call Evaluate.
type Responder struct {
	mu             sync.Mutex
	matcher        *regexp.Regexp
	cooldown       time.Duration
	nextEligibleAt time.Time
}

// NewResponder creates a responder whose first window opens at start
func NewResponder(matcher *regexp.Regexp, cooldown time.Duration, start time.Time) *Responder {
	return &Responder{
		matcher:        matcher,
		cooldown:       cooldown,
		nextEligibleAt: start,
	}
}

// Evaluate reports whether msg, observed at now, should get a reply. A true
// result has already consumed the current window.
func (r *Responder) Evaluate(msg bot.BotMessage, now time.Time) bool {
	if msg.FromBot {
		return false
	}
	if !matchesTrigger(r.matcher, msg.Content) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Before(r.nextEligibleAt) {
		return false
	}
	r.nextEligibleAt = now.Add(r.cooldown)
	return true
}

// NextEligibleAt returns the instant the cooldown window next opens
func (r *Responder) NextEligibleAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextEligibleAt
}

// Cooldown returns the configured window length
func (r *Responder) Cooldown() time.Duration {
	return r.cooldown
}

// matchesTrigger trims text and tests it against re. Blank text never matches.
func matchesTrigger(re *regexp.Regexp, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || re == nil {
		return false
	}
	return re.MatchString(trimmed)
}
