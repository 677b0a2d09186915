package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
)

// RateLimiter spaces out messages per chat so the bot stays under the
// Telegram per-chat limits. Group chats have negative ids.
type RateLimiter struct {
	mu          sync.Mutex
	nextSlot    map[int64]time.Time
	privateRate time.Duration
	groupRate   time.Duration
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*RateLimiter)

// WithRates overrides the minimum spacing for private and group chats.
func WithRates(private, group time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.privateRate = private
		rl.groupRate = group
	}
}

func New(log *slog.Logger, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		nextSlot:    make(map[int64]time.Time),
		privateRate: privateChatRate,
		groupRate:   groupChatRate,
		now:         time.Now,
		log:         log,
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Wait blocks until a message may be sent to chatID. Concurrent callers for
// one chat are served in call order.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	delay := rl.reserve(chatID)
	if delay <= 0 {
		return nil
	}

	rl.log.DebugContext(ctx, "Rate limiting message",
		"chatID", chatID,
		"delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *RateLimiter) reserve(chatID int64) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	slot, exists := rl.nextSlot[chatID]
	if !exists || slot.Before(now) {
		slot = now
	}

	rl.nextSlot[chatID] = slot.Add(rl.getRate(chatID))

	return slot.Sub(now)
}

func (rl *RateLimiter) getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return rl.groupRate
	}
	return rl.privateRate
}
