package session

import (
	"fmt"

	"github.com/san-kum/rkode/internal/ode"
)

// Sequence is a single-pass, pull-based source of values.
type Sequence[T any] interface {
	// Next returns the next value, or false once the sequence is exhausted.
	Next() (T, bool)
}

// LimitCallback runs when a Limited sequence reaches its cap while the
// source still had values. pending is the first undelivered value and
// delivered the number handed out. src is the underlying sequence, positioned
// just after pending, so the callback may keep consuming it. The returned
// error becomes Limited.Err.
type LimitCallback[T any] func(pending T, delivered int, src Sequence[T]) error

// muter is implemented by sources that report side effects per value. The
// value pulled only to detect the cap is drawn muted.
type muter interface {
	mute(on bool)
}

// Limited caps the number of values drawn from a source sequence.
type Limited[T any] struct {
	src       Sequence[T]
	limit     int
	callback  LimitCallback[T]
	delivered int
	done      bool
	truncated bool
	err       error
}

// Limit wraps src so that at most limit values are delivered. callback may
// be nil.
func Limit[T any](src Sequence[T], limit int, callback LimitCallback[T]) (*Limited[T], error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1, got %d", ode.ErrInvalidOptions, limit)
	}
	return &Limited[T]{src: src, limit: limit, callback: callback}, nil
}

func (l *Limited[T]) Next() (T, bool) {
	var zero T
	if l.done {
		return zero, false
	}

	capped := l.delivered == l.limit
	m, canMute := l.src.(muter)
	if capped && canMute {
		m.mute(true)
	}
	v, ok := l.src.Next()
	if capped && canMute {
		m.mute(false)
	}
	if !ok {
		l.done = true
		return zero, false
	}
	if capped {
		l.done = true
		l.truncated = true
		if l.callback != nil {
			l.err = l.callback(v, l.delivered, l.src)
		}
		return zero, false
	}
	l.delivered++
	return v, true
}

// Err is nil after natural completion, otherwise the callback's result.
func (l *Limited[T]) Err() error { return l.err }

// Truncated reports whether the cap was hit before the source ran out.
func (l *Limited[T]) Truncated() bool { return l.truncated }

func (l *Limited[T]) Delivered() int { return l.delivered }
