package scan

import "sync/atomic"

// GateState is the analysis state of a scanning session.
type GateState int32

const (
	// Active means the next frame may be analysed.
	Active GateState = iota
	// Suspended means analysis is paused until Resume.
	Suspended
)

func (s GateState) String() string {
	switch s {
	case Active:
		return "active"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Gate decides whether frames are analysed. It is suspended while a frame
// is being analysed and while a hit is being presented; only Resume
// re-opens it after a hit. A zero Gate is Active.
type Gate struct {
	state atomic.Int32
}

// NewGate returns an active gate.
func NewGate() *Gate { return &Gate{} }

// State returns the current state.
func (g *Gate) State() GateState { return GateState(g.state.Load()) }

// Suspend pauses analysis.
func (g *Gate) Suspend() { g.state.Store(int32(Suspended)) }

// Resume re-enables analysis.
func (g *Gate) Resume() { g.state.Store(int32(Active)) }

// TryAcquire moves an active gate to Suspended and reports whether it did.
// Exactly one caller wins while the gate is active.
func (g *Gate) TryAcquire() bool {
	return g.state.CompareAndSwap(int32(Active), int32(Suspended))
}
