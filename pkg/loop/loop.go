// Package loop runs a task immediately and then on an interval until the
// task asks to stop or the context is done.
//
//	l := loop.New(loop.WithContext(ctx), loop.WithInterval(time.Second))
//	_ = l.Do(func() (bool, error) {
//		return false, tick(ctx)
//	})
package loop

import (
	"context"
	"time"
)

type Loop struct {
	ctx          context.Context
	interval     time.Duration
	intervalFunc func() time.Duration
	declineRatio float64
	declineLimit time.Duration

	// wait 是最近一次休眠时长，出错时在此基础上按比例拉长
	wait time.Duration
}

type Option func(*Loop)

func New(options ...Option) *Loop {
	l := &Loop{
		ctx:          context.Background(),
		interval:     time.Second,
		declineRatio: 1,
	}
	for _, opt := range options {
		opt(l)
	}
	l.wait = l.nextInterval()
	return l
}

func (l *Loop) nextInterval() time.Duration {
	if l.intervalFunc != nil {
		if d := l.intervalFunc(); d >= time.Millisecond {
			return d
		}
	}
	return l.interval
}

func (l *Loop) decline() time.Duration {
	d := time.Duration(float64(l.wait) * l.declineRatio)
	if l.declineLimit > 0 && d > l.declineLimit {
		d = l.declineLimit
	}
	return d
}

// Do runs f until it returns stop=true, whose error is returned, or until
// the context is done. An error from f stretches the next wait by the
// decline ratio; the next success goes back to the interval.
func (l *Loop) Do(f func() (stop bool, err error)) error {
	for {
		if l.ctx.Err() != nil {
			return nil
		}
		stop, err := f()
		if stop {
			return err
		}
		if err != nil {
			l.wait = l.decline()
		} else {
			l.wait = l.nextInterval()
		}
		if !l.sleep(l.wait) {
			return nil
		}
	}
}

// sleep 返回 false 表示 ctx 已结束
func (l *Loop) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func WithContext(ctx context.Context) Option {
	return func(l *Loop) {
		if ctx != nil {
			l.ctx = ctx
		}
	}
}

// WithInterval sets the wait between runs. Default 1s, minimum 1ms.
func WithInterval(t time.Duration) Option {
	return func(l *Loop) {
		if t >= time.Millisecond {
			l.interval = t
		}
	}
}

// WithIntervalFunc reads the interval before every sleep, for intervals that
// change at runtime. Values below 1ms fall back to the fixed interval.
func WithIntervalFunc(f func() time.Duration) Option {
	return func(l *Loop) {
		l.intervalFunc = f
	}
}

// WithDeclineRatio multiplies the wait after each failed run. Ratios below 1
// are ignored.
func WithDeclineRatio(n float64) Option {
	return func(l *Loop) {
		if n >= 1 {
			l.declineRatio = n
		}
	}
}

// WithDeclineLimit caps the stretched wait. Zero means no cap.
func WithDeclineLimit(t time.Duration) Option {
	return func(l *Loop) {
		if t >= 0 {
			l.declineLimit = t
		}
	}
}
