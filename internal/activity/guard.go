// Package activity keeps recording and playback mutually exclusive.
package activity

import "sync"

type Kind string

const (
	Recording Kind = "recording"
	Playback  Kind = "playback"
)

// Guard remembers the single live activity and how to cancel it.
type Guard struct {
	mu      sync.Mutex
	seq     uint64
	token   uint64
	kind    Kind
	cancel  CancelFunc
	holding bool
}

// CancelFunc ends a displaced holder. by is the kind that displaced it.
type CancelFunc func(by Kind)

func NewGuard() *Guard {
	return &Guard{}
}

// Acquire makes kind the live activity and returns its token.
// The previous holder's cancel func runs after the guard lock is released,
// so it may call back into Release. A holder can be cancelled before its own
// Acquire call has returned.
func (g *Guard) Acquire(kind Kind, cancel CancelFunc) uint64 {
	g.mu.Lock()
	prev := g.cancel
	hadPrev := g.holding
	g.seq++
	g.token = g.seq
	g.kind = kind
	g.cancel = cancel
	g.holding = true
	token := g.token
	g.mu.Unlock()

	if hadPrev && prev != nil {
		prev(kind)
	}
	return token
}

// Release clears the live activity if token still owns it.
func (g *Guard) Release(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holding && g.token == token {
		g.holding = false
		g.cancel = nil
		g.kind = ""
	}
}

// Current reports the live activity, if any.
func (g *Guard) Current() (Kind, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.kind, g.holding
}
