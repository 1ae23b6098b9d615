package feather

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshWindow is the proactive-refresh safety margin: user tokens are
// refreshed this long before their expiry rather than reactively after a
// request fails with an expired token.
const refreshWindow = 30 * time.Second

// refreshTimer owns at most one pending refresh. Arming a new timer cancels
// the previous one in the same critical section, so two refreshes can never
// be outstanding for the same client.
type refreshTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func newRefreshTimer() *refreshTimer {
	return &refreshTimer{}
}

// arm schedules fn to run once after delay, releasing any previously armed
// timer first.
func (t *refreshTimer) arm(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delay, fn)
}

// cancel releases the pending timer, if any.
func (t *refreshTimer) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// idTokenExpiry reads the expiry claim out of an ID token without checking
// its signature. The engine only calls this on tokens it just received from
// the API, so a signature check would add nothing.
func idTokenExpiry(tokenString string) (time.Time, error) {
	claims := &IDClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.Expires(), nil
}

// refreshDelay computes how long to wait before proactively refreshing a
// token that expires at exp: the time until expiry minus the safety window,
// clamped at zero.
func refreshDelay(exp, now time.Time) time.Duration {
	delay := exp.Sub(now) - refreshWindow
	if delay < 0 {
		return 0
	}
	return delay
}
