package profiler

import (
	"sync"
	"time"
)

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Banner holds the one transient message of a page. Each non-empty message clears itself
// after the TTL; setting a newer message restarts the countdown.
type Banner struct {
	mu    sync.Mutex
	clock Clock
	ttl   time.Duration
	text  string
	seq   uint64
	timer Timer
}

// NewBanner returns a banner clearing messages after ttl. A nil clock uses wall time.
func NewBanner(ttl time.Duration, clock Clock) *Banner {
	if clock == nil {
		clock = realClock{}
	}
	return &Banner{clock: clock, ttl: ttl}
}

// Set replaces the message. An empty message clears it immediately.
func (b *Banner) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.seq++
	b.text = text
	if text == "" {
		return
	}
	seq := b.seq
	b.timer = b.clock.AfterFunc(b.ttl, func() { b.expire(seq) })
}

// Text returns the current message.
func (b *Banner) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Stop cancels a pending clear without touching the message.
func (b *Banner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Banner) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// expire clears the message set as seq, unless it has been replaced since.
func (b *Banner) expire(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq != seq {
		return
	}
	b.text = ""
	b.timer = nil
}
