package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(max, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterBackoff(t *testing.T) {
	rl, clock := newTestLimiter(5, 15*time.Minute)

	ok, _ := rl.Check("1.2.3.4")
	assert.True(t, ok)

	rl.RecordFail("1.2.3.4")
	ok, wait := rl.Check("1.2.3.4")
	assert.False(t, ok, "first failure imposes a one second backoff")
	assert.Equal(t, 2, wait)

	clock.advance(time.Second)
	ok, _ = rl.Check("1.2.3.4")
	assert.True(t, ok)

	rl.RecordFail("1.2.3.4")
	clock.advance(time.Second)
	ok, _ = rl.Check("1.2.3.4")
	assert.False(t, ok, "second failure doubles the backoff")

	ok, _ = rl.Check("5.6.7.8")
	assert.True(t, ok, "other clients are unaffected")
}

func TestRateLimiterLockoutAndReset(t *testing.T) {
	rl, clock := newTestLimiter(3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		rl.RecordFail("ip")
		clock.advance(time.Minute)
	}
	ok, wait := rl.Check("ip")
	assert.False(t, ok)
	assert.Equal(t, 7*60, wait)

	clock.advance(8 * time.Minute)
	ok, _ = rl.Check("ip")
	assert.True(t, ok, "window expiry resets the counter")

	rl.RecordFail("ip")
	rl.RecordSuccess("ip")
	ok, _ = rl.Check("ip")
	assert.True(t, ok)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)
	rl.RecordFail("old")
	clock.advance(2 * time.Minute)
	rl.RecordFail("new")

	rl.cleanup()
	assert.NotContains(t, rl.attempts, "old")
	assert.Contains(t, rl.attempts, "new")
}
