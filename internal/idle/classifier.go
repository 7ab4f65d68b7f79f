// Package idle decides, tick by tick, whether the user has stopped doing
// anything. A user is idle once the observed application set has stayed the
// same for a configured number of consecutive ticks.
package idle

import "github.com/blackwell-systems/screentime/internal/snapshot"

// Sentinel is the single application name logged for an idle tick.
const Sentinel = "IDLE"

// DefaultThreshold is the number of unchanged ticks before a user is idle.
const DefaultThreshold = 5

// State is the idle run carried from one tick to the next.
type State struct {
	// Last is the most recent real snapshot, never the collapsed idle one.
	Last snapshot.Snapshot
	// IdleTicks counts consecutive ticks whose snapshot equalled Last.
	IdleTicks int
	// Threshold is the IdleTicks value at which ticks are reported idle.
	Threshold int
}

// NewState returns the state for a fresh session: no previous snapshot and
// no idle run. Thresholds below 1 are raised to 1.
func NewState(threshold int) State {
	if threshold < 1 {
		threshold = 1
	}
	return State{Threshold: threshold}
}

// Idle reports whether the run has reached the threshold.
func (s State) Idle() bool {
	return s.IdleTicks >= s.Threshold
}

// IdleSnapshot is the snapshot logged in place of the real one while idle.
func IdleSnapshot() snapshot.Snapshot {
	return snapshot.New(Sentinel)
}

// Classify consumes one observed snapshot and returns the snapshot to log
// along with the next state.
func Classify(current snapshot.Snapshot, st State) (snapshot.Snapshot, State) {
	next := st
	next.Last = current

	if !current.Equal(st.Last) {
		next.IdleTicks = 0
		return current, next
	}

	next.IdleTicks++
	if next.Idle() {
		return IdleSnapshot(), next
	}
	return current, next
}
