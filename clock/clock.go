// Package clock provides an injectable time abstraction so waits can be
// driven deterministically in tests.
//
// Production code holds a Clock and calls After instead of time.After.
// Real returns the standard library behavior; Fake returns a clock that
// only moves when Advance is called.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go worker(c)
//	c.WaitForTimers(1)
//	c.Advance(20 * time.Second)
package clock

import "time"

// Clock abstracts the time operations used by the retry wait.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
