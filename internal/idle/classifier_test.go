package idle

import (
	"testing"

	"github.com/blackwell-systems/screentime/internal/snapshot"
)

func TestNewState(t *testing.T) {
	tests := []struct {
		threshold int
		want      int
	}{
		{5, 5},
		{1, 1},
		{0, 1},
		{-3, 1},
	}

	for _, tt := range tests {
		st := NewState(tt.threshold)
		if st.Threshold != tt.want {
			t.Errorf("NewState(%d).Threshold = %d, want %d", tt.threshold, st.Threshold, tt.want)
		}
		if st.IdleTicks != 0 || !st.Last.IsEmpty() {
			t.Errorf("NewState(%d) not reset: %+v", tt.threshold, st)
		}
	}
}

func TestClassify_FirstTickIsNeverIdle(t *testing.T) {
	st := NewState(1)
	got, next := Classify(snapshot.New("bash"), st)

	if !got.Equal(snapshot.New("bash")) {
		t.Errorf("first tick logged %v, want real snapshot", got.Names())
	}
	if next.IdleTicks != 0 {
		t.Errorf("IdleTicks = %d, want 0", next.IdleTicks)
	}
}

func TestClassify_EmptyFirstSnapshotCountsAsUnchanged(t *testing.T) {
	st := NewState(1)
	got, next := Classify(snapshot.New(), st)

	if next.IdleTicks != 1 {
		t.Errorf("IdleTicks = %d, want 1", next.IdleTicks)
	}
	if !got.Equal(IdleSnapshot()) {
		t.Errorf("got %v, want idle sentinel", got.Names())
	}
}

// A snapshot observed once and then repeated: the repeats numbered
// 1..threshold-1 log the real snapshot, repeat number threshold and every
// one after it logs IDLE, and a change reverts immediately.
func TestClassify_IdleRun(t *testing.T) {
	for _, threshold := range []int{1, 2, 5} {
		t.Run("", func(t *testing.T) {
			active := snapshot.New("Code", "bash", "firefox")
			st := NewState(threshold)

			got, st := Classify(active, st)
			if !got.Equal(active) {
				t.Fatalf("initial observation logged %v", got.Names())
			}

			for repeat := 1; repeat <= threshold+3; repeat++ {
				got, st = Classify(active, st)
				wantIdle := repeat >= threshold
				if wantIdle && !got.Equal(IdleSnapshot()) {
					t.Errorf("threshold %d repeat %d: got %v, want IDLE", threshold, repeat, got.Names())
				}
				if !wantIdle && !got.Equal(active) {
					t.Errorf("threshold %d repeat %d: got %v, want real snapshot", threshold, repeat, got.Names())
				}
				if !st.Last.Equal(active) {
					t.Errorf("threshold %d repeat %d: Last = %v, want real snapshot", threshold, repeat, st.Last.Names())
				}
			}

			changed := snapshot.New("Code", "bash")
			got, st = Classify(changed, st)
			if !got.Equal(changed) {
				t.Errorf("after change got %v, want %v", got.Names(), changed.Names())
			}
			if st.IdleTicks != 0 || st.Idle() {
				t.Errorf("after change IdleTicks = %d, want 0", st.IdleTicks)
			}
		})
	}
}

func TestClassify_OrderInsensitive(t *testing.T) {
	st := NewState(1)
	_, st = Classify(snapshot.New("a", "b"), st)
	got, st := Classify(snapshot.New("b", "a"), st)

	if !got.Equal(IdleSnapshot()) {
		t.Errorf("reordered snapshot not treated as unchanged: %v", got.Names())
	}
	if st.IdleTicks != 1 {
		t.Errorf("IdleTicks = %d, want 1", st.IdleTicks)
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	st := NewState(3)
	st.IdleTicks = 2
	st.Last = snapshot.New("x")

	_, next := Classify(snapshot.New("x"), st)
	if st.IdleTicks != 2 {
		t.Errorf("input state mutated: IdleTicks = %d", st.IdleTicks)
	}
	if next.IdleTicks != 3 || !next.Idle() {
		t.Errorf("next = %+v, want IdleTicks 3 and idle", next)
	}
}
