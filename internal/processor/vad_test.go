package processor

import "testing"

func TestEnergyClassifierSilence(t *testing.T) {
	c := newEnergyClassifier()
	for i := 0; i < 10; i++ {
		if c.Classify(silentFrame(testFrameLen)) {
			t.Fatal("silence classified as speech")
		}
	}
}

func TestEnergyClassifierVoicedTone(t *testing.T) {
	// A 300 Hz tone has the energy and low zero-crossing rate of a
	// voiced sound.
	c := newEnergyClassifier()
	var phase float64
	if !c.Classify(sineFrame(testFrameLen, 300, 0.1, &phase)) {
		t.Error("voiced-band tone classified as silence")
	}
}

func TestEnergyClassifierRejectsHiss(t *testing.T) {
	// White noise carries energy but crosses zero roughly every other
	// sample, far above the voicing limit.
	c := newEnergyClassifier()
	var state uint32 = 321
	frame := noiseFrame(testFrameLen, 0.1, &state)

	if zcr := zeroCrossingRate(frame); zcr < energyVADZCRMax {
		t.Fatalf("test noise ZCR = %v, expected above %v", zcr, energyVADZCRMax)
	}
	if c.Classify(frame) {
		t.Error("broadband hiss classified as speech")
	}
}

func TestEnergyClassifierHangover(t *testing.T) {
	c := newEnergyClassifier()
	var phase float64
	if !c.Classify(sineFrame(testFrameLen, 300, 0.1, &phase)) {
		t.Fatal("setup failed, tone not classified as speech")
	}

	// Speech must persist through the hangover window, then stop.
	for i := 0; i < energyVADHangover; i++ {
		if !c.Classify(silentFrame(testFrameLen)) {
			t.Fatalf("hangover released early at frame %d", i)
		}
	}
	if c.Classify(silentFrame(testFrameLen)) {
		t.Error("hangover never released")
	}
}

func TestZeroCrossingRate(t *testing.T) {
	tests := []struct {
		name     string
		frame    []float32
		min, max float32
	}{
		{"constant positive", []float32{1, 1, 1, 1}, 0, 0},
		{"alternating", []float32{1, -1, 1, -1}, 1, 1},
		{"single crossing", []float32{1, 1, -1, -1}, 0.3, 0.4},
		{"too short", []float32{1}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := zeroCrossingRate(tt.frame)
			if got < tt.min || got > tt.max {
				t.Errorf("ZCR = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

// stubClassifier returns a scripted decision sequence.
type stubClassifier struct {
	votes []bool
	pos   int
}

func (s *stubClassifier) Classify(mono []float32) bool {
	if s.pos >= len(s.votes) {
		return false
	}
	v := s.votes[s.pos]
	s.pos++
	return v
}

func TestVoiceActivityFusesEnergyAndClassifier(t *testing.T) {
	var phase float64
	loud := sineFrame(testFrameLen, 300, 0.2, &phase)
	quiet := silentFrame(testFrameLen)

	tests := []struct {
		name      string
		frame     []float32
		rms       float32
		threshold float32
		vote      bool
		want      bool
	}{
		{"level over threshold wins alone", loud, 0.1, 0.05, false, true},
		{"classifier vote wins alone", quiet, 0.001, 0.05, true, true},
		{"neither fires", quiet, 0.001, 0.05, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := newVoiceActivity(&stubClassifier{votes: []bool{tt.vote}})
			if got := va.detect(tt.frame, tt.rms, tt.threshold); got != tt.want {
				t.Errorf("detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoiceActivityDefaultsToEnergyClassifier(t *testing.T) {
	va := newVoiceActivity(nil)
	var phase float64
	frame := sineFrame(testFrameLen, 300, 0.1, &phase)

	// Even with an unreachable level threshold the built-in classifier
	// still detects the voiced tone.
	if !va.detect(frame, 0.07, 1.0) {
		t.Error("built-in classifier missed a voiced tone")
	}
}
