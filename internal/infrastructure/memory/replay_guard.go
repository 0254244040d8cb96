package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
)

// ReplayGuard is a TTL-bounded set of processed webhook keys. When full, expired
// keys are swept first and then the key closest to expiry is dropped.
type ReplayGuard struct {
	mu        sync.Mutex
	ttl       time.Duration
	max       int
	seen      map[string]time.Time // key -> expiry
	lastSweep time.Time
	now       func() time.Time
}

var _ payment.ReplayGuard = (*ReplayGuard)(nil)

func NewReplayGuard(ttl time.Duration, maxEntries int) *ReplayGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 100_000
	}
	return &ReplayGuard{
		ttl:  ttl,
		max:  maxEntries,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (g *ReplayGuard) Claim(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.lastSweep) >= g.ttl {
		g.sweep(now)
	}
	if exp, ok := g.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	if len(g.seen) >= g.max {
		g.sweep(now)
		if len(g.seen) >= g.max {
			g.evictOldest()
		}
	}
	g.seen[key] = now.Add(g.ttl)
	return true, nil
}

func (g *ReplayGuard) Release(ctx context.Context, key string) error {
	_ = ctx
	g.mu.Lock()
	delete(g.seen, key)
	g.mu.Unlock()
	return nil
}

// Len reports the number of remembered keys, expired or not.
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func (g *ReplayGuard) sweep(now time.Time) {
	for k, exp := range g.seen {
		if !now.Before(exp) {
			delete(g.seen, k)
		}
	}
	g.lastSweep = now
}

func (g *ReplayGuard) evictOldest() {
	var (
		oldestKey string
		oldestExp time.Time
	)
	for k, exp := range g.seen {
		if oldestKey == "" || exp.Before(oldestExp) {
			oldestKey, oldestExp = k, exp
		}
	}
	delete(g.seen, oldestKey)
}
