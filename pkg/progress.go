package dircast

import "sync"

// ProgressFunc receives a phase label and a completion percentage (0-100).
// It is purely advisory; nil is allowed everywhere a ProgressFunc is accepted.
type ProgressFunc func(phase string, percent int)

// progressTracker reports a phase only when the integer percentage increases
type progressTracker struct {
	mu    sync.Mutex
	fn    ProgressFunc
	phase string
	last  int
}

func newProgressTracker(fn ProgressFunc, phase string) *progressTracker {
	return &progressTracker{fn: fn, phase: phase, last: -1}
}

// update reports done/total; a zero total counts as complete
func (pt *progressTracker) update(done, total int) {
	if pt == nil || pt.fn == nil {
		return
	}
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	if pct > 100 {
		pct = 100
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pct <= pt.last {
		return
	}
	pt.last = pct
	pt.fn(pt.phase, pct)
}

// finish always emits 100 once
func (pt *progressTracker) finish() {
	if pt == nil || pt.fn == nil {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.last == 100 {
		return
	}
	pt.last = 100
	pt.fn(pt.phase, 100)
}
