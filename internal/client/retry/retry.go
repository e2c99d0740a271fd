// Package retry wraps a single transport strategy call with bounded retry
// and a linear, jittered delay between attempts.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	goretry "github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = time.Second
)

// Policy configures the Retry Controller. A strategy is attempted at most
// MaxRetries+1 times.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Jitter is the upper bound of the random delay added to every wait.
	// Zero means BaseDelay/2.
	Jitter time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait before retry number n (1-based):
// BaseDelay*n plus a random jitter in [0, Jitter).
func (p Policy) Delay(n int) time.Duration {
	d := p.BaseDelay * time.Duration(n)
	j := p.Jitter
	if j == 0 {
		j = p.BaseDelay / 2
	}
	if j > 0 {
		d += rand.N(j)
	}
	return d
}

func (p Policy) backoff() goretry.Backoff {
	var n int
	b := goretry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return p.Delay(n), false
	})
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return goretry.WithMaxRetries(uint64(maxRetries), b)
}

// AttemptFunc performs one attempt. attempt is 1-based.
type AttemptFunc func(ctx context.Context, attempt int) models.UploadResult

// Do runs fn until it succeeds, it is aborted, or the policy gives up. It
// returns the last result and the number of attempts made. Aborted attempts
// are never retried, and cancelling ctx while waiting between attempts is
// reported as an abort.
func Do(ctx context.Context, p Policy, fn AttemptFunc) (models.UploadResult, int) {
	if ctx.Err() != nil {
		return models.Failed("", common.ErrAborted), 0
	}

	var (
		attempts atomic.Int32
		last     models.UploadResult
	)

	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		n := int(attempts.Add(1))
		last = fn(ctx, n)
		if !last.Success && last.Err == nil {
			if last.Aborted {
				last.Err = common.ErrAborted
			} else {
				last.Err = errors.New("upload attempt failed")
			}
		}
		switch {
		case last.Success:
			return nil
		case last.Aborted:
			return last.Err
		default:
			return goretry.RetryableError(last.Err)
		}
	})

	n := int(attempts.Load())
	if (err != nil && n == 0) || ctxAbortedBetweenAttempts(ctx, err, last) {
		return models.Failed(last.Method, common.ErrAborted), n
	}
	return last, n
}

// ctxAbortedBetweenAttempts detects go-retry returning ctx.Err() while it was
// waiting for the next attempt.
func ctxAbortedBetweenAttempts(ctx context.Context, err error, last models.UploadResult) bool {
	if err == nil || last.Aborted || last.Success {
		return false
	}
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
