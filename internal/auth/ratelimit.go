package auth

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimiter tracks failed login attempts per client IP. A client is
// locked out after maxAttempts failures inside the window, and each failure
// also imposes an exponential backoff before the next try.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptInfo
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

type attemptInfo struct {
	count    int
	firstAt  time.Time
	lastFail time.Time
}

// NewRateLimiter creates a rate limiter (e.g. 5 attempts per 15 minutes)
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:    make(map[string]*attemptInfo),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Run drops expired entries every interval until ctx is done
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// Check reports whether ip may attempt a login, and if not how many
// seconds it has to wait
func (rl *RateLimiter) Check(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, exists := rl.attempts[ip]
	if !exists {
		return true, 0
	}

	if rl.now().Sub(info.firstAt) > rl.window {
		delete(rl.attempts, ip)
		return true, 0
	}

	if info.count >= rl.maxAttempts {
		remaining := rl.window - rl.now().Sub(info.firstAt)
		return false, int(remaining.Seconds())
	}

	// Exponential backoff: after each fail, wait 2^(n-1) seconds
	if info.count > 0 {
		backoff := time.Duration(math.Pow(2, float64(info.count-1))) * time.Second
		if rl.now().Sub(info.lastFail) < backoff {
			wait := backoff - rl.now().Sub(info.lastFail)
			return false, int(wait.Seconds()) + 1
		}
	}

	return true, 0
}

// RecordFail records a failed login attempt
func (rl *RateLimiter) RecordFail(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	info, exists := rl.attempts[ip]
	if !exists {
		rl.attempts[ip] = &attemptInfo{count: 1, firstAt: now, lastFail: now}
		return
	}
	info.count++
	info.lastFail = now
}

// RecordSuccess clears attempts for an IP
func (rl *RateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, ip)
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.window)
	for ip, info := range rl.attempts {
		if info.firstAt.Before(cutoff) {
			delete(rl.attempts, ip)
		}
	}
}
