package processor

import "github.com/linuxmatters/voidmic/internal/dsp"

// Classifier is the capability interface for an external frame-level
// voice-activity model. Classify receives one mono frame of the
// configured length and reports whether it contains speech. It runs on
// the audio thread and must not block or allocate.
type Classifier interface {
	Classify(mono []float32) bool
}

// Energy classifier tuning.
const (
	// energyVADThreshold is the RMS level below which a frame is
	// treated as silence regardless of spectral shape (~-46 dBFS).
	energyVADThreshold = 0.005

	// energyVADHangover keeps the classifier reporting speech for this
	// many frames after the last energetic frame (~200 ms at 10 ms
	// frames), so word endings are not clipped.
	energyVADHangover = 20

	// energyVADZCRMax rejects high-zero-crossing frames (hiss,
	// broadband clicks) that carry energy but no voicing.
	energyVADZCRMax = 0.35
)

// energyClassifier is the built-in VAD used when no external model is
// supplied: frame RMS against a fixed threshold, a zero-crossing-rate
// sanity check, and a hangover counter.
type energyClassifier struct {
	remaining int
}

func newEnergyClassifier() *energyClassifier {
	return &energyClassifier{}
}

// Classify implements Classifier.
func (c *energyClassifier) Classify(mono []float32) bool {
	rms := dsp.RMS(mono)
	if rms > energyVADThreshold && zeroCrossingRate(mono) < energyVADZCRMax {
		c.remaining = energyVADHangover
		return true
	}
	if c.remaining > 0 {
		c.remaining--
		return true
	}
	return false
}

// zeroCrossingRate returns sign changes per sample in [0, 1].
func zeroCrossingRate(frame []float32) float32 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	prev := frame[0] >= 0
	for _, s := range frame[1:] {
		cur := s >= 0
		if cur != prev {
			crossings++
			prev = cur
		}
	}
	return float32(crossings) / float32(len(frame)-1)
}

// voiceActivity fuses the energy path with the pluggable classifier:
// a frame counts as speech when its RMS clears the effective gate
// threshold (plus noise-floor margin) or the classifier votes speech.
type voiceActivity struct {
	classifier Classifier
}

func newVoiceActivity(classifier Classifier) voiceActivity {
	if classifier == nil {
		classifier = newEnergyClassifier()
	}
	return voiceActivity{classifier: classifier}
}

// detect reports speech for the mono analysis frame. rms is the
// caller-computed frame RMS, threshold the effective gate threshold
// (linear, already including the noise-floor margin).
func (v voiceActivity) detect(mono []float32, rms, threshold float32) bool {
	return rms > threshold || v.classifier.Classify(mono)
}
