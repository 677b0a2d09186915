package ratelimiter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestLimiter(now time.Time) (*RateLimiter, *time.Time) {
	clock := now
	rl := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rl.now = func() time.Time { return clock }

	return rl, &clock
}

func TestGetRate(t *testing.T) {
	rl := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if got := rl.getRate(42); got != privateChatRate {
		t.Fatalf("private chat rate = %v", got)
	}

	if got := rl.getRate(-100123); got != groupChatRate {
		t.Fatalf("group chat rate = %v", got)
	}

	rl = New(slog.New(slog.NewTextHandler(io.Discard, nil)), WithRates(time.Millisecond, 2*time.Millisecond))

	if got := rl.getRate(42); got != time.Millisecond {
		t.Fatalf("overridden private chat rate = %v", got)
	}

	if got := rl.getRate(-1); got != 2*time.Millisecond {
		t.Fatalf("overridden group chat rate = %v", got)
	}
}

func TestReserveSpacesMessagesPerChat(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl, clock := newTestLimiter(start)

	tests := []struct {
		name   string
		chatID int64
		after  time.Duration
		want   time.Duration
	}{
		{"first private message", 1, 0, 0},
		{"second private message", 1, 0, privateChatRate},
		{"third private message queues behind", 1, 0, 2 * privateChatRate},
		{"other chat is independent", 2, 0, 0},
		{"first group message", -5, 0, 0},
		{"second group message", -5, 0, groupChatRate},
		{"private slot freed after waiting", 3, 0, 0},
		{"private chat after rate elapsed", 3, 2 * privateChatRate, 0},
	}

	for _, test := range tests {
		*clock = clock.Add(test.after)

		if got := rl.reserve(test.chatID); got != test.want {
			t.Fatalf("%s: reserve(%d) = %v, want %v", test.name, test.chatID, got, test.want)
		}
	}
}

func TestWaitReturnsImmediatelyForFreshChat(t *testing.T) {
	rl := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan error, 1)
	go func() { done <- rl.Wait(context.Background(), 7) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("first message should not wait")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	rl := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := rl.Wait(context.Background(), -9); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx, -9); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
