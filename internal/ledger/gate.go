package ledger

import (
	"sync"
	"time"

	"github.com/blapoker/loyalty/internal/domain"
)

// Gate is the process-wide scan guard. It tracks the time of the last
// check-in attempt by anybody plus the last presented token, and
// refuses attempts that land inside the rate-limit or duplicate-scan
// windows. The state is updated in one critical section per attempt,
// whatever the outcome.
type Gate struct {
	mu        sync.Mutex
	window    time.Duration
	dupWindow time.Duration

	lastAttempt time.Time
	lastToken   string
	lastTokenAt time.Time
}

func NewGate(window, dupWindow time.Duration) *Gate {
	return &Gate{window: window, dupWindow: dupWindow}
}

// Admit records the attempt and reports whether it may proceed.
// The rate-limit check runs before the duplicate-scan check.
func (g *Gate) Admit(now time.Time, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	prevAttempt := g.lastAttempt
	prevToken := g.lastToken
	prevTokenAt := g.lastTokenAt

	g.lastAttempt = now
	g.lastToken = token
	g.lastTokenAt = now

	// A negative elapsed time means the clock moved backwards; that
	// is the interval guard's anomaly case, not a rapid retry.
	if !prevAttempt.IsZero() && within(now.Sub(prevAttempt), g.window) {
		return domain.ErrBusy
	}
	if prevToken == token && !prevTokenAt.IsZero() && within(now.Sub(prevTokenAt), g.dupWindow) {
		return domain.ErrDuplicateScan
	}
	return nil
}

func within(elapsed, window time.Duration) bool {
	return elapsed >= 0 && elapsed < window
}
