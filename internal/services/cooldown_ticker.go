package services

import (
	"context"
	"sync"
	"time"

	"github.com/codyseavey/nextbet/internal/metrics"
	"github.com/codyseavey/nextbet/internal/store"
)

// CooldownTicker is the external one-second trigger behind the cooldown
// countdown. At most one countdown goroutine runs at a time.
type CooldownTicker struct {
	store    *store.Store
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	onTick func()
}

// NewCooldownTicker creates a ticker that decrements the store's cooldown
// every interval
func NewCooldownTicker(st *store.Store, interval time.Duration) *CooldownTicker {
	if interval <= 0 {
		interval = time.Second
	}
	return &CooldownTicker{store: st, interval: interval}
}

// Start begins counting down, replacing any countdown already running. The
// goroutine exits when the cooldown reaches zero, ctx is cancelled or Stop is
// called.
func (t *CooldownTicker) Start(ctx context.Context) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.run(runCtx, cancel, done)
}

// Stop cancels the running countdown and waits for it to exit
func (t *CooldownTicker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// OnTick registers fn to run after every decrement
func (t *CooldownTicker) OnTick(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// Running reports whether a countdown goroutine is active
func (t *CooldownTicker) Running() bool {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (t *CooldownTicker) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			left := 0
			t.store.Update(func(st *store.State) {
				st.TickCooldown(st.Cooldown.SecondsLeft - 1)
				left = st.Cooldown.SecondsLeft
			})
			metrics.CooldownSecondsLeft.Set(float64(left))

			t.mu.Lock()
			onTick := t.onTick
			t.mu.Unlock()
			if onTick != nil {
				onTick()
			}

			if left == 0 {
				return
			}
		}
	}
}
