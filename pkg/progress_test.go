package dircast

import "testing"

func TestProgressTracker_Monotonic(t *testing.T) {
	var got []int
	pt := newProgressTracker(func(phase string, pct int) {
		if phase != PhaseHashing {
			t.Errorf("unexpected phase %q", phase)
		}
		got = append(got, pct)
	}, PhaseHashing)

	pt.update(1, 3)
	pt.update(1, 3) // repeat suppressed
	pt.update(2, 3)
	pt.update(5, 3) // clamped
	pt.finish()     // already at 100

	want := []int{33, 66, 100}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d: want %d, got %d", i, want[i], got[i])
		}
	}
}

func TestProgressTracker_NilSafe(t *testing.T) {
	var pt *progressTracker
	pt.update(1, 2)
	pt.finish()

	newProgressTracker(nil, PhaseScanning).update(1, 1)
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	calls := 0
	pt := newProgressTracker(func(string, int) { calls++ }, PhaseComparing)
	pt.update(0, 0)
	pt.finish()
	if calls != 1 {
		t.Errorf("Expected a single 100%% report, got %d calls", calls)
	}
}
