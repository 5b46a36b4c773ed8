package server

import "time"

// runLoop drives one fixed-interval cadence with a sleep-until-deadline loop.
// After each callback the due time advances by exactly one interval; if the
// wall clock has already passed it (the callback overran or the process was
// blocked), the due time fast-forwards in whole-interval steps instead of
// replaying the missed callbacks. A stall therefore under-simulates elapsed
// time rather than firing a burst of catch-up calls; the callback always sees
// the same fixed dt.
func runLoop(interval time.Duration, stop <-chan struct{}, fn func(now time.Time)) {
	if interval <= 0 {
		return
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	next := time.Now().Add(interval)

	for {
		select {
		case <-stop:
			return
		case now := <-timer.C:
			fn(now)
			next = advanceDue(next, time.Now(), interval)
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}

// advanceDue moves the due time one interval forward, then fast-forwards in
// whole-interval steps until it is ahead of the clock again. At most one
// callback fires per scheduling cycle regardless of how far the clock
// drifted.
func advanceDue(next, now time.Time, interval time.Duration) time.Time {
	next = next.Add(interval)
	if !now.After(next) {
		return next
	}
	behind := now.Sub(next)
	steps := behind/interval + 1
	return next.Add(steps * interval)
}
