package progress

import (
	"context"
	"time"
)

// SynthesizedCap is the ceiling of synthesized progress: without a real
// signal we never claim completion.
const SynthesizedCap = 90

// DefaultSynthesizeInterval paces synthesized progress ticks.
const DefaultSynthesizeInterval = 400 * time.Millisecond

// NextSynthesized returns the next synthesized value after cur. Steps shrink
// as the value approaches SynthesizedCap, so the curve keeps moving without
// ever reaching it prematurely.
func NextSynthesized(cur int) int {
	if cur >= SynthesizedCap {
		return SynthesizedCap
	}
	step := (SynthesizedCap - cur) / 8
	if step < 1 {
		step = 1
	}
	return min(cur+step, SynthesizedCap)
}

// Synthesize reports a monotonically non-decreasing approximation through
// report until stop is called or ctx is done. stop blocks until the
// reporting goroutine has exited, so no report arrives after it returns.
func Synthesize(ctx context.Context, interval time.Duration, report func(int)) (stop func()) {
	if interval <= 0 {
		interval = DefaultSynthesizeInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		cur := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next := NextSynthesized(cur)
				if next == cur {
					continue
				}
				cur = next
				report(cur)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
