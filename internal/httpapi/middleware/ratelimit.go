package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cooldown admits one invocation per gap across every route it wraps and
// every caller. Rejected attempts do not move the window.
type Cooldown struct {
	gap   time.Duration
	clock clockwork.Clock

	mu   sync.Mutex
	last time.Time
}

func NewCooldown(gap time.Duration, clock clockwork.Clock) *Cooldown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cooldown{gap: gap, clock: clock}
}

// Allow records an invocation and returns true, or returns false with the
// time left until the next one is admitted.
func (c *Cooldown) Allow() (bool, time.Duration) {
	if c.gap <= 0 {
		return true, 0
	}
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.last.IsZero() {
		if elapsed := now.Sub(c.last); elapsed < c.gap {
			return false, c.gap - elapsed
		}
	}
	c.last = now
	return true, 0
}

// Middleware answers 429 with Retry-After while the cooldown is running.
func (c *Cooldown) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := c.Allow()
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = fmt.Fprintf(w, `{"error":"Rate limited. Try again in %d seconds"}`, secs)
			return
		}
		next.ServeHTTP(w, r)
	})
}
