package processor

import (
	"math"
	"testing"
)

func TestAGCBoostsQuietSignal(t *testing.T) {
	// -40 dBFS input, -20 dBFS target: gain should climb toward 10x
	// over repeated frames.
	a := newAutoGainControl(-20, 20)

	var phase float64
	var last []float32
	for i := 0; i < 2000; i++ {
		frame := sineFrame(testFrameLen, 440, 0.01, &phase)
		a.processFrame([][]float32{frame})
		last = frame
	}

	peak := 0.0
	for _, s := range last {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	// Sine peak 0.01 amplified toward the -20 dBFS RMS target.
	if peak < 0.05 {
		t.Errorf("peak after AGC = %v, want quiet input boosted well above 0.05", peak)
	}
	if a.currentGain() < 2 {
		t.Errorf("gain = %v, want > 2 after convergence", a.currentGain())
	}
}

func TestAGCRespectsMaxGain(t *testing.T) {
	// Very quiet input with a 6 dB cap: gain must saturate near 2x,
	// not chase the target.
	a := newAutoGainControl(-10, 6)

	var phase float64
	for i := 0; i < 5000; i++ {
		a.processFrame([][]float32{sineFrame(testFrameLen, 440, 0.001, &phase)})
	}
	if g := a.currentGain(); g > 2.1 {
		t.Errorf("gain = %v, want capped near 2 (6 dB)", g)
	}
}

func TestAGCAttenuatesLoudSignal(t *testing.T) {
	a := newAutoGainControl(-20, 20)

	var phase float64
	for i := 0; i < 2000; i++ {
		a.processFrame([][]float32{sineFrame(testFrameLen, 440, 0.9, &phase)})
	}
	if g := a.currentGain(); g > 0.5 {
		t.Errorf("gain = %v, want well below 1 for a loud input", g)
	}
}

func TestAGCIgnoresSilence(t *testing.T) {
	a := newAutoGainControl(-10, 20)

	// Converge on a quiet signal first.
	var phase float64
	for i := 0; i < 2000; i++ {
		a.processFrame([][]float32{sineFrame(testFrameLen, 440, 0.01, &phase)})
	}
	converged := a.currentGain()
	if converged < 2 {
		t.Fatalf("setup failed, gain = %v", converged)
	}

	// Silence must not push the gain toward the cap; it decays slowly
	// toward unity instead.
	for i := 0; i < 100; i++ {
		a.processFrame([][]float32{silentFrame(testFrameLen)})
	}
	after := a.currentGain()
	if after > converged {
		t.Errorf("gain rose during silence: %v -> %v", converged, after)
	}
	if after < converged-0.2 {
		t.Errorf("gain decayed too fast during silence: %v -> %v", converged, after)
	}
}

func TestAGCHardLimit(t *testing.T) {
	a := newAutoGainControl(0, 20)

	var phase float64
	for i := 0; i < 50; i++ {
		frame := sineFrame(testFrameLen, 440, 1.0, &phase)
		a.processFrame([][]float32{frame})
		for k, s := range frame {
			if s > agcCeiling || s < -agcCeiling {
				t.Fatalf("sample %d exceeds ceiling: %v", k, s)
			}
		}
	}
}

func TestAGCLinkedStereoGain(t *testing.T) {
	// One loud channel, one quiet: both must receive the same gain so
	// the stereo image is preserved.
	a := newAutoGainControl(-20, 20)

	var phaseL, phaseR float64
	var left, right []float32
	for i := 0; i < 500; i++ {
		left = sineFrame(testFrameLen, 440, 0.2, &phaseL)
		right = sineFrame(testFrameLen, 440, 0.02, &phaseR)
		a.processFrame([][]float32{left, right})
	}

	// The input ratio was 10:1; the output ratio must match it.
	ratio := frameRMS(left) / frameRMS(right)
	if ratio < 9 || ratio > 11 {
		t.Errorf("channel RMS ratio = %v, want ~10 (linked gain)", ratio)
	}
}

func TestAGCEmptyInput(t *testing.T) {
	a := newAutoGainControl(-20, 20)
	a.processFrame(nil)
	a.processFrame([][]float32{})
	if g := a.currentGain(); g != 1 {
		t.Errorf("gain moved on empty input: %v", g)
	}
}
