package clock

import (
	"sync"
	"time"
)

// DefaultResyncThreshold bounds how far a probe result may move the delta in
// a single resync before it is rejected as noise.
const DefaultResyncThreshold = time.Minute

// Reconciler maps recognizer-relative milliseconds onto the broadcast
// timeline. Safe for concurrent use.
type Reconciler struct {
	mu        sync.Mutex
	delta     time.Duration
	threshold time.Duration
}

// NewReconciler seeds the delta conservatively from wall clock time: audio
// that starts flowing now is (now - liveStart) into the broadcast.
func NewReconciler(liveStart, now time.Time, threshold time.Duration) *Reconciler {
	if threshold <= 0 {
		threshold = DefaultResyncThreshold
	}
	delta := now.Sub(liveStart)
	if delta < 0 {
		delta = 0
	}
	return &Reconciler{delta: delta, threshold: threshold}
}

// Reset replaces the delta unconditionally. Used when the reference frame
// itself changes: recognizer offsets restart at zero with every new
// connection, so each attempt re-seeds the delta from wall clock time before
// probes refine it. The threshold gates only Resync, never Reset.
func (r *Reconciler) Reset(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	r.mu.Lock()
	r.delta = delta
	r.mu.Unlock()
}

// Delta returns the current offset estimate.
func (r *Reconciler) Delta() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delta
}

// Absolute converts a recognizer-relative offset in milliseconds into
// elapsed broadcast time.
func (r *Reconciler) Absolute(ms int64) time.Duration {
	return r.Delta() + time.Duration(ms)*time.Millisecond
}

// Resync offers a probe-derived delta. The value replaces the current delta
// only when the discrepancy stays within the threshold; larger jumps are
// rejected and the prior delta kept. Reports whether the update was applied.
func (r *Reconciler) Resync(probeDelta time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	diff := probeDelta - r.delta
	if diff < 0 {
		diff = -diff
	}
	if diff > r.threshold {
		return false
	}
	r.delta = probeDelta
	return true
}
