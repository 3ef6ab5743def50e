package processor

import "testing"

func TestNoiseFloorWarmup(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)

	// The estimate must hold its initial value until enough frames
	// have been observed.
	for i := 0; i < noiseFloorMinSamples-1; i++ {
		tr.push(0.2)
		if got := tr.value(); got != noiseFloorInitial {
			t.Fatalf("floor moved during warm-up after %d frames: %v", i+1, got)
		}
	}
}

func TestNoiseFloorConvergesToAmbient(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)

	const ambient = 0.02
	for i := 0; i < 400; i++ {
		tr.push(ambient)
	}
	got := tr.value()
	if got < ambient*0.9 || got > ambient*1.1 {
		t.Errorf("floor = %v, want near %v", got, ambient)
	}
}

func TestNoiseFloorTracksMinimumNotMean(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)

	// Alternate quiet ambient with loud speech-level frames. The floor
	// must settle near the quiet level, not the average.
	for i := 0; i < 600; i++ {
		if i%2 == 0 {
			tr.push(0.01)
		} else {
			tr.push(0.5)
		}
	}
	got := tr.value()
	if got > 0.02 {
		t.Errorf("floor = %v, want near the quiet level 0.01", got)
	}
}

func TestNoiseFloorIgnoresDigitalSilence(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)

	for i := 0; i < 100; i++ {
		tr.push(0.02)
	}
	settled := tr.value()

	// A run of muted frames must not drag the floor toward zero.
	for i := 0; i < 100; i++ {
		tr.push(0)
	}
	if got := tr.value(); got < settled*0.9 {
		t.Errorf("floor collapsed on digital silence: %v -> %v", settled, got)
	}
}

func TestNoiseFloorSmoothingLimitsJump(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)

	for i := 0; i < 100; i++ {
		tr.push(0.02)
	}
	before := tr.value()

	// One much quieter frame should nudge the estimate, not replace it.
	tr.push(0.001)
	after := tr.value()
	if after >= before {
		t.Fatalf("floor did not move down: %v -> %v", before, after)
	}
	if after < before*0.8 {
		t.Errorf("floor jumped too far on one frame: %v -> %v", before, after)
	}
}

func TestNoiseFloorOccupancyCapped(t *testing.T) {
	tr := newNoiseFloorTracker(50)

	for i := 0; i < 200; i++ {
		tr.push(0.01)
	}
	if got := tr.occupancy(); got != 50 {
		t.Errorf("occupancy = %d, want 50", got)
	}
}

func TestNoiseFloorReset(t *testing.T) {
	tr := newNoiseFloorTracker(noiseFloorWindow)
	for i := 0; i < 100; i++ {
		tr.push(0.05)
	}

	tr.reset()
	if got := tr.value(); got != noiseFloorInitial {
		t.Errorf("floor after reset = %v, want %v", got, noiseFloorInitial)
	}
	if got := tr.occupancy(); got != 0 {
		t.Errorf("occupancy after reset = %d, want 0", got)
	}
}
