// Package retry 重试幂等的外部调用：OVH 只读接口与通知投递。
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Func is one attempt. It must honour ctx.
type Func func(ctx context.Context) error

// Backoff returns the wait before retry n, where n starts at 0 for the
// retry after the first failure.
type Backoff func(n int) time.Duration

// Jitter randomises a computed wait.
type Jitter func(time.Duration) time.Duration

func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Exponential doubles base per retry. A ceiling <= 0 leaves it unbounded.
func Exponential(base, ceiling time.Duration) Backoff {
	return func(n int) time.Duration {
		d := base
		for i := 0; i < n && i < 32; i++ {
			if ceiling > 0 && d >= ceiling {
				break
			}
			d *= 2
		}
		if ceiling > 0 && d > ceiling {
			return ceiling
		}
		return d
	}
}

// FullJitter picks a wait in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

type policy struct {
	attempts  int
	budget    time.Duration
	backoff   Backoff
	jitter    Jitter
	retryable func(error) bool
}

type Option func(*policy)

// WithMaxAttempts counts the first call too.
func WithMaxAttempts(n int) Option {
	return func(p *policy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithMaxElapsedTime stops retrying once the next wait would end past d,
// measured from the first attempt.
func WithMaxElapsedTime(d time.Duration) Option {
	return func(p *policy) {
		if d > 0 {
			p.budget = d
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(p *policy) {
		if b != nil {
			p.backoff = b
		}
	}
}

func WithJitter(j Jitter) Option {
	return func(p *policy) { p.jitter = j }
}

// WithRetryIf replaces the default condition, which retries everything but
// context errors.
func WithRetryIf(fn func(error) bool) Option {
	return func(p *policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// Do calls fn until it succeeds, returns a Permanent error, fails the retry
// condition or runs out of attempts or budget. The last error is returned.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	p := policy{attempts: 3, backoff: Fixed(time.Second), retryable: notContextErr}
	for _, opt := range opts {
		opt(&p)
	}

	var deadline time.Time
	if p.budget > 0 {
		deadline = time.Now().Add(p.budget)
	}

	var err error
	for n := 0; n < p.attempts; n++ {
		if n > 0 {
			wait := p.backoff(n - 1)
			if p.jitter != nil {
				wait = p.jitter(wait)
			}
			if !deadline.IsZero() && time.Now().Add(wait).After(deadline) {
				break
			}
			if serr := sleep(ctx, wait); serr != nil {
				return serr
			}
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if !p.retryable(err) {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func notContextErr(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the unwrapped err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
