package processor

import "github.com/linuxmatters/voidmic/internal/dsp"

// Denoiser is the capability interface for a per-channel noise
// reduction model (RNNoise-class networks slot in here). ProcessFrame
// writes the denoised signal for one frame of in into out; both are the
// configured frame length. Implementations keep their own per-channel
// state, run on the audio thread, and must not block or allocate.
//
// The engine assumes zero additional latency beyond the frame size
// itself: out[i] corresponds to in[i].
type Denoiser interface {
	ProcessFrame(out, in []float32)
}

// DenoiserFactory builds one Denoiser per channel at construction time.
type DenoiserFactory func() Denoiser

// passthroughDenoiser copies input to output. Used in tests and as the
// explicit "no model" choice.
type passthroughDenoiser struct{}

// NewPassthroughDenoiser returns a Denoiser that performs no reduction.
func NewPassthroughDenoiser() Denoiser { return passthroughDenoiser{} }

func (passthroughDenoiser) ProcessFrame(out, in []float32) {
	copy(out, in)
}

// Expander denoiser tuning.
const (
	// expanderFloorKeep/Mix smooth the tracked noise floor estimate.
	expanderFloorKeep = 0.98
	expanderFloorMix  = 0.02

	// expanderMargin is how far above the tracked floor a frame must
	// sit before it passes unattenuated (linear ratio, ~6 dB).
	expanderMargin = 2.0

	// expanderDepth is the maximum attenuation applied to frames at or
	// below the floor (linear, -18 dB).
	expanderDepth = 0.125

	// expanderGainSmooth limits frame-to-frame gain movement so the
	// expander never pumps audibly.
	expanderGainSmooth = 0.3

	// expanderInitialFloor matches the noise tracker's -40 dBFS start.
	expanderInitialFloor = 0.01
)

// expanderDenoiser is the built-in fallback model: a downward expander
// that tracks the channel's noise floor and attenuates frames sitting
// near it, leaving speech-level frames untouched. Far simpler than a
// neural model but enough to make the engine useful without one.
type expanderDenoiser struct {
	floor float32
	gain  float32
}

// NewExpanderDenoiser returns the built-in downward-expander Denoiser.
func NewExpanderDenoiser() Denoiser {
	return &expanderDenoiser{floor: expanderInitialFloor, gain: 1}
}

func (d *expanderDenoiser) ProcessFrame(out, in []float32) {
	rms := dsp.RMS(in)

	// Track the floor on quiet frames only, so speech does not inflate
	// the estimate.
	if rms > 0 && rms < d.floor*expanderMargin {
		d.floor = d.floor*expanderFloorKeep + rms*expanderFloorMix
	}

	// Target gain: unity above floor*margin, expanderDepth at the
	// floor, linear in between.
	target := float32(1)
	knee := d.floor * expanderMargin
	if knee > 0 && rms < knee {
		t := rms / knee
		target = expanderDepth + (1-expanderDepth)*t
	}

	d.gain += (target - d.gain) * expanderGainSmooth

	for i, s := range in {
		out[i] = s * d.gain
	}
}
