package processor

import "testing"

func TestEchoCancellerConverges(t *testing.T) {
	// Mic hears a scaled copy of the reference and nothing else. After
	// adaptation the residual should be a small fraction of the echo.
	e := newEchoCanceller()

	var state uint32 = 777
	var lastIn, lastOut float64
	for i := 0; i < 200; i++ {
		ref := noiseFrame(testFrameLen, 0.3, &state)
		mic := make([]float32, testFrameLen)
		for k := range mic {
			mic[k] = ref[k] * 0.5
		}
		lastIn = frameRMS(mic)
		e.process(mic, ref)
		lastOut = frameRMS(mic)
	}

	if lastIn == 0 {
		t.Fatal("test signal generation failed")
	}
	if ratio := lastOut / lastIn; ratio > 0.1 {
		t.Errorf("residual ratio after adaptation = %v, want < 0.1", ratio)
	}
}

func TestEchoCancellerHandlesDelay(t *testing.T) {
	// The echo arrives a few samples late, well within the filter's
	// tap span.
	e := newEchoCanceller()
	const delay = 32

	var state uint32 = 42
	prev := make([]float32, testFrameLen)
	var lastIn, lastOut float64
	for i := 0; i < 400; i++ {
		ref := noiseFrame(testFrameLen, 0.3, &state)
		mic := make([]float32, testFrameLen)
		for k := range mic {
			// Delayed echo, spilling across the frame boundary.
			src := k - delay
			if src >= 0 {
				mic[k] = ref[src] * 0.4
			} else {
				mic[k] = prev[testFrameLen+src] * 0.4
			}
		}
		copy(prev, ref)
		lastIn = frameRMS(mic)
		e.process(mic, ref)
		lastOut = frameRMS(mic)
	}

	if ratio := lastOut / lastIn; ratio > 0.15 {
		t.Errorf("residual ratio with delayed echo = %v, want < 0.15", ratio)
	}
}

func TestEchoCancellerPreservesNearEnd(t *testing.T) {
	// Speech with no correlated reference must pass nearly untouched:
	// a silent reference gives the filter nothing to subtract.
	e := newEchoCanceller()

	var phase float64
	ref := silentFrame(testFrameLen)
	for i := 0; i < 20; i++ {
		mic := sineFrame(testFrameLen, 300, 0.2, &phase)
		before := frameRMS(mic)
		e.process(mic, ref)
		after := frameRMS(mic)
		if before > 0 && after/before < 0.99 {
			t.Fatalf("near-end speech attenuated with silent reference: %v -> %v", before, after)
		}
	}
}

func TestEchoCancellerReset(t *testing.T) {
	e := newEchoCanceller()

	var state uint32 = 9
	for i := 0; i < 100; i++ {
		ref := noiseFrame(testFrameLen, 0.3, &state)
		mic := make([]float32, testFrameLen)
		for k := range mic {
			mic[k] = ref[k] * 0.5
		}
		e.process(mic, ref)
	}

	e.reset()
	for _, w := range e.weights {
		if w != 0 {
			t.Fatal("weights not cleared by reset")
		}
	}
	if e.power != 0 {
		t.Errorf("window power after reset = %v, want 0", e.power)
	}
}
