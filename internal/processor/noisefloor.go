package processor

// Noise floor tracking constants.
const (
	// noiseFloorWindow is the ring capacity in frames: ~3 s at 100
	// frames/s for the default 10 ms frame.
	noiseFloorWindow = 300

	// noiseFloorRecent is how many of the newest entries the minimum
	// search scans (~300 ms).
	noiseFloorRecent = 30

	// noiseFloorMinSamples is the warm-up count before the estimate
	// starts moving off its initial value.
	noiseFloorMinSamples = 10

	// Smoothing factors for the floor estimate: heavy smoothing keeps
	// a single quiet frame from yanking the gate threshold around.
	noiseFloorKeep = 0.95
	noiseFloorMix  = 0.05

	// noiseFloorSilence excludes digital silence from the minimum
	// search so muted input does not drag the floor to zero.
	noiseFloorSilence = 0.0001

	// noiseFloorInitial is the floor before any audio is observed
	// (-40 dBFS).
	noiseFloorInitial = 0.01
)

// noiseFloorTracker estimates the ambient noise floor from recent mono
// RMS levels. It keeps a fixed-capacity ring of per-frame RMS values,
// takes the minimum over the newest entries, and smooths the result.
// Push is O(window), allocation-free, and overwrites the oldest entry
// when full.
type noiseFloorTracker struct {
	window   []float32
	writeIdx int
	count    int
	floor    float32
}

// newNoiseFloorTracker builds a tracker with the given ring capacity.
// Capacity below the recent-search span falls back to the default.
func newNoiseFloorTracker(capacity int) *noiseFloorTracker {
	if capacity < noiseFloorRecent {
		capacity = noiseFloorWindow
	}
	return &noiseFloorTracker{
		window: make([]float32, capacity),
		floor:  noiseFloorInitial,
	}
}

// push records one frame's RMS and advances the floor estimate.
func (t *noiseFloorTracker) push(rms float32) {
	n := len(t.window)
	t.window[t.writeIdx] = rms
	t.writeIdx = (t.writeIdx + 1) % n
	if t.count < n {
		t.count++
	}

	if t.count < noiseFloorMinSamples {
		return
	}

	// Minimum over the most recent entries, skipping digital silence.
	recent := noiseFloorRecent
	if recent > t.count {
		recent = t.count
	}
	start := t.writeIdx - recent
	if start < 0 {
		start += n
	}
	minVal := float32(0)
	found := false
	for i := 0; i < recent; i++ {
		v := t.window[(start+i)%n]
		if v <= noiseFloorSilence {
			continue
		}
		if !found || v < minVal {
			minVal = v
			found = true
		}
	}
	if found {
		t.floor = t.floor*noiseFloorKeep + minVal*noiseFloorMix
	}
}

// value returns the current smoothed floor estimate (linear RMS).
func (t *noiseFloorTracker) value() float32 {
	return t.floor
}

// occupancy reports how many entries the ring currently holds. Never
// exceeds capacity.
func (t *noiseFloorTracker) occupancy() int {
	return t.count
}

// reset clears the ring and restores the initial floor.
func (t *noiseFloorTracker) reset() {
	t.writeIdx = 0
	t.count = 0
	t.floor = noiseFloorInitial
}
