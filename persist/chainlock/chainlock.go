// Package chainlock provides the capability that serializes chain-state
// transitions. Writers to the coin database must present a Guard, and a
// Guard can only be obtained from a Gate.
package chainlock

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/UdjinM6/dash-sub001/errcode"
)

// Gate serializes state transitions across the coin, block and index
// databases.
type Gate struct {
	mu          sync.Mutex
	transitions atomic.Uint64
	holder      atomic.Uint64
}

// Guard proves that its holder owns the Gate. The zero value is not a
// valid guard.
type Guard struct {
	gate  *Gate
	epoch uint64
}

func NewGate() *Gate {
	return &Gate{}
}

// Lock blocks until the gate is free and returns the guard for the new
// transition.
func (g *Gate) Lock() *Guard {
	g.mu.Lock()
	epoch := g.transitions.Inc()
	g.holder.Store(epoch)
	return &Guard{gate: g, epoch: epoch}
}

// Transitions is the number of guards handed out so far.
func (g *Gate) Transitions() uint64 {
	return g.transitions.Load()
}

// Unlock releases the gate. Releasing a stale guard is a no-op.
func (guard *Guard) Unlock() {
	if !guard.Held() {
		return
	}
	guard.gate.holder.Store(0)
	guard.gate.mu.Unlock()
}

// Held reports whether the guard still owns its gate.
func (guard *Guard) Held() bool {
	return guard != nil && guard.gate != nil && guard.epoch != 0 &&
		guard.gate.holder.Load() == guard.epoch
}

// Check returns ErrorNoGuard unless guard currently owns gate. A nil gate
// accepts any held guard.
func Check(gate *Gate, guard *Guard) error {
	if !guard.Held() || (gate != nil && guard.gate != gate) {
		return errcode.New(errcode.ErrorNoGuard)
	}
	return nil
}

// With runs fn while holding the gate.
func (g *Gate) With(fn func(guard *Guard) error) error {
	guard := g.Lock()
	defer guard.Unlock()
	return fn(guard)
}
