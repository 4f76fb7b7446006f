package utxo

import (
	"math/rand"
	"sync"

	"go.uber.org/atomic"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/log"
)

// Phase names the step of a flush a batch belongs to.
type Phase int

const (
	// PhaseMark erases the best block and writes the head-blocks marker.
	PhaseMark Phase = iota
	// PhaseCoins writes and erases coins, possibly over several batches.
	PhaseCoins
	// PhaseCommit erases the marker and writes the new best block.
	PhaseCommit
)

func (p Phase) String() string {
	switch p {
	case PhaseMark:
		return "mark"
	case PhaseCoins:
		return "coins"
	case PhaseCommit:
		return "commit"
	}
	return "unknown"
}

// FaultHook is called after each batch of a flush has been committed.
// Returning an error stops the flush right there, leaving the database as a
// crash at that point would.
type FaultHook func(phase Phase, batch int) error

// CrashSimulator fails a coin batch with probability 1/ratio, mirroring
// the -dbcrashratio test option.
type CrashSimulator struct {
	ratio int

	mu  sync.Mutex
	rnd *rand.Rand

	commits atomic.Int64
	crashes atomic.Int64
}

func NewCrashSimulator(ratio int, seed int64) *CrashSimulator {
	return &CrashSimulator{
		ratio: ratio,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// Hook only fires during the coin phase.
func (cs *CrashSimulator) Hook(phase Phase, batch int) error {
	cs.commits.Inc()
	if cs.ratio <= 0 || phase != PhaseCoins {
		return nil
	}
	cs.mu.Lock()
	hit := cs.rnd.Intn(cs.ratio) == 0
	cs.mu.Unlock()
	if !hit {
		return nil
	}
	cs.crashes.Inc()
	log.Print("coindb", "warn", "Simulating a crash after coin batch %d", batch)
	return errcode.New(errcode.ErrorSimulatedCrash)
}

func (cs *CrashSimulator) Commits() int64 {
	return cs.commits.Load()
}

func (cs *CrashSimulator) Crashes() int64 {
	return cs.crashes.Load()
}

// CrashAfter returns a hook that fails once, right after the n-th batch
// commit (counting from one) across all phases.
func CrashAfter(n int) FaultHook {
	var seen atomic.Int64
	return func(phase Phase, batch int) error {
		if seen.Inc() == int64(n) {
			return errcode.New(errcode.ErrorSimulatedCrash)
		}
		return nil
	}
}
