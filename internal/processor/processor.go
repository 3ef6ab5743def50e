// Package processor implements the real-time voice-conditioning engine:
// echo cancellation, denoising, a stereo-linked hysteresis noise gate,
// three-band EQ, automatic gain control and bypass crossfading, composed
// into a single per-frame call with a lock-free parameter surface.
//
// The Process call is the hot path. It never allocates, never blocks
// and never panics on valid input; everything it needs is sized at
// construction. Parameters arrive through atomic cells written by the
// control thread and read once per frame; state flows back through
// bounded non-blocking channels that drop rather than wait.
package processor

import (
	"fmt"

	"github.com/linuxmatters/voidmic/internal/dsp"
)

// Supported sample rate range. The engine itself is rate-agnostic but
// gate timing and EQ centre frequencies assume speech-band audio.
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// Dynamic threshold shaping, applied when the adaptive gate threshold
// is active: floor*1.5 + bias, clamped to a sane linear range.
const (
	dynamicFloorRatio   = 1.5
	dynamicFloorBias    = 0.003
	dynamicThresholdMin = 0.005
	dynamicThresholdMax = 0.08
)

// Calibration: measure ambient RMS for calibrationSeconds, suggest
// max*headroom as the gate threshold.
const (
	calibrationSeconds  = 3
	calibrationHeadroom = 1.2
	calibrationMinLevel = 0.005
)

// Config carries the construction-time shape of the engine. Channel
// count, frame length and sample rate are fixed for the processor's
// lifetime; changing any of them is a reconstruction.
type Config struct {
	Channels   int
	FrameLen   int
	SampleRate int

	// Classifier is the external voice-activity model. Nil selects the
	// built-in energy classifier.
	Classifier Classifier

	// NewDenoiser builds one denoiser per channel. Nil selects the
	// built-in downward expander.
	NewDenoiser DenoiserFactory

	// HumFundamentalHz seeds the mains-hum notch bank (50 or 60).
	// Zero selects 50 Hz.
	HumFundamentalHz float64
}

// channelState is the per-channel working set, owned exclusively by the
// audio thread and mutated only inside Process.
type channelState struct {
	aec      *echoCanceller
	denoiser Denoiser
	eq       *threeBandEQ
	hum      *humNotchBank

	work     []float32 // post-echo-cancel source signal
	denoised []float32
}

// Processor is the per-frame engine. One goroutine (the audio thread)
// calls Process; any other goroutine drives the Params surface and
// drains the publish channels.
type Processor struct {
	channels   int
	frameLen   int
	sampleRate int

	params *Params
	snap   paramSnapshot

	chans []channelState

	// Stereo-linked analysis state: one mono mix, one VAD decision,
	// one gate envelope driving every channel in lockstep.
	monoMix []float32
	monoOut []float32
	gate    *gateStateMachine
	floor   *noiseFloorTracker
	va      voiceActivity
	agc     *autoGainControl
	fade    *bypassCrossfader

	spectrum *spectrumAnalyzer
	pub      *publisher

	// Calibration accumulator.
	calibFrames int
	calibMax    float32
	calibSpan   int

	prevEnvelope   float32
	lastPhase      GatePhase
	lastEnvelope   float32
	prevEchoCancel bool
	prevHumFilter  bool
	frameCount     uint64
}

// New validates the configuration and builds a processor with all
// buffers sized up front. params may be nil, in which case a default
// surface is created; it is reachable via Params either way.
func New(cfg Config, params *Params) (*Processor, error) {
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d", ErrConfig, cfg.Channels)
	}
	if cfg.FrameLen <= 0 {
		return nil, fmt.Errorf("%w: frame length %d", ErrConfig, cfg.FrameLen)
	}
	if cfg.SampleRate < MinSampleRate || cfg.SampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d outside [%d, %d]",
			ErrConfig, cfg.SampleRate, MinSampleRate, MaxSampleRate)
	}

	if params == nil {
		params = NewParams()
	}
	newDenoiser := cfg.NewDenoiser
	if newDenoiser == nil {
		newDenoiser = NewExpanderDenoiser
	}
	humHz := cfg.HumFundamentalHz
	if humHz == 0 {
		humHz = 50
	}

	framesPerSecond := float32(cfg.SampleRate) / float32(cfg.FrameLen)

	p := &Processor{
		channels:   cfg.Channels,
		frameLen:   cfg.FrameLen,
		sampleRate: cfg.SampleRate,
		params:     params,
		chans:      make([]channelState, cfg.Channels),
		monoMix:    make([]float32, cfg.FrameLen),
		monoOut:    make([]float32, cfg.FrameLen),
		gate:       newGateStateMachine(framesPerSecond),
		floor:      newNoiseFloorTracker(noiseFloorWindow),
		va:         newVoiceActivity(cfg.Classifier),
		agc:        newAutoGainControl(DefaultAGCTargetDB, DefaultAGCMaxGainDB),
		fade:       newBypassCrossfader(cfg.SampleRate),
		spectrum:   newSpectrumAnalyzer(cfg.FrameLen),
		pub:        newPublisher(),
		calibSpan:  int(float32(calibrationSeconds) * framesPerSecond),
	}

	for i := range p.chans {
		p.chans[i] = channelState{
			aec:      newEchoCanceller(),
			denoiser: newDenoiser(),
			eq:       newThreeBandEQ(float64(cfg.SampleRate)),
			hum:      newHumNotchBank(float64(cfg.SampleRate), humHz),
			work:     make([]float32, cfg.FrameLen),
			denoised: make([]float32, cfg.FrameLen),
		}
	}

	return p, nil
}

// Params returns the shared parameter surface.
func (p *Processor) Params() *Params { return p.params }

// Updates returns the gate/envelope publish channel. Receives are
// non-blocking polls on the consumer side; the producer drops when the
// channel is full.
func (p *Processor) Updates() <-chan GateUpdate { return p.pub.updates }

// Spectra returns the spectrum snapshot channel, populated at a reduced
// cadence when processing is active.
func (p *Processor) Spectra() <-chan SpectrumSnapshot { return p.pub.spectra }

// Dropped reports publish-side drops since construction.
func (p *Processor) Dropped() (updates, spectra uint64) { return p.pub.Dropped() }

// Channels returns the fixed channel count.
func (p *Processor) Channels() int { return p.channels }

// FrameLen returns the fixed per-channel frame length in samples.
func (p *Processor) FrameLen() int { return p.frameLen }

// SampleRate returns the configured sample rate.
func (p *Processor) SampleRate() int { return p.sampleRate }

// checkFrames enforces the frame contract: slice counts match the
// channel count and every frame is exactly the configured length.
func (p *Processor) checkFrames(in, out [][]float32, ref []float32) error {
	if len(in) != p.channels || len(out) != p.channels {
		return fmt.Errorf("%w: got %d input / %d output channels, want %d",
			ErrFrameLength, len(in), len(out), p.channels)
	}
	for i := range in {
		if len(in[i]) != p.frameLen {
			return fmt.Errorf("%w: input channel %d has %d samples, want %d",
				ErrFrameLength, i, len(in[i]), p.frameLen)
		}
		if len(out[i]) != p.frameLen {
			return fmt.Errorf("%w: output channel %d has %d samples, want %d",
				ErrFrameLength, i, len(out[i]), p.frameLen)
		}
	}
	if ref != nil && len(ref) != p.frameLen {
		return fmt.Errorf("%w: reference frame has %d samples, want %d",
			ErrFrameLength, len(ref), p.frameLen)
	}
	return nil
}

// Process runs one frame through the full chain: echo cancellation,
// denoise, suppression blend, linked gate, hum notch + EQ, AGC, bypass
// crossfade, and finally state publication. in and out hold one frame
// per channel; ref is the optional speaker reference for echo
// cancellation. in and out must not alias.
//
// The call is synchronous and bounded; a frame-length mismatch is the
// only error it can return.
func (p *Processor) Process(in [][]float32, ref []float32, out [][]float32) error {
	if err := p.checkFrames(in, out, ref); err != nil {
		return err
	}

	// Single parameter read per frame, before any stage runs.
	p.params.snapshot(&p.snap)
	p.applyParamChanges()

	if p.fade.bypassed() {
		// Fully bypassed: raw copy, no analysis. A heartbeat update
		// keeps consumer meters alive.
		for ch := range out {
			copy(out[ch], in[ch])
		}
		p.publishUpdate(p.rawMonoRMS(in), false, 0)
		p.frameCount++
		return nil
	}

	rms := p.runChain(in, ref, out)

	calibrated, suggested := p.advanceCalibration(rms)
	p.publishUpdate(rms, calibrated, suggested)

	if p.frameCount%spectrumInterval == 0 {
		p.mixOutput(out)
		p.pub.sendSpectrum(p.spectrum.analyze(p.monoOut))
	}
	p.frameCount++
	return nil
}

// applyParamChanges pushes the frame's parameter snapshot into the
// stateful stages and handles edge-triggered toggles.
func (p *Processor) applyParamChanges() {
	s := &p.snap

	p.gate.setTiming(s.attackMs, s.releaseMs, s.hangMs)
	p.agc.configure(s.agcTargetDB, s.agcMaxGainDB)
	for i := range p.chans {
		p.chans[i].eq.updateGains(s.eqLowDB, s.eqMidDB, s.eqHighDB)
	}

	// Bypass and master enable share the crossfade path; both are
	// discontinuity-inducing and must never hard-switch.
	p.fade.request(s.bypass || !s.enabled)

	// Re-adapt from scratch when echo cancellation turns on.
	if s.echoCancel && !p.prevEchoCancel {
		for i := range p.chans {
			p.chans[i].aec.reset()
		}
	}
	p.prevEchoCancel = s.echoCancel

	// Clear stale filter state when the hum bank re-enters the path.
	if s.humFilter && !p.prevHumFilter {
		for i := range p.chans {
			p.chans[i].hum.flatten()
		}
	}
	p.prevHumFilter = s.humFilter
}

// runChain executes the per-channel and linked stages for one frame and
// returns the post-blend mono RMS used for gating and metering.
func (p *Processor) runChain(in [][]float32, ref []float32, out [][]float32) float32 {
	s := &p.snap

	// Per-channel: echo cancel, denoise, suppression blend. The mono
	// analysis mix accumulates the blended signal.
	for k := range p.monoMix {
		p.monoMix[k] = 0
	}
	for i := range p.chans {
		ch := &p.chans[i]
		copy(ch.work, in[i])

		if s.echoCancel && ref != nil {
			ch.aec.process(ch.work, ref)
		}

		ch.denoiser.ProcessFrame(ch.denoised, ch.work)

		blend := s.blendRatio
		dry := 1 - blend
		for k := range ch.work {
			v := ch.denoised[k]*blend + ch.work[k]*dry
			out[i][k] = v
			p.monoMix[k] += v
		}
	}
	if p.channels > 1 {
		norm := 1 / float32(p.channels)
		for k := range p.monoMix {
			p.monoMix[k] *= norm
		}
	}

	rms := dsp.RMS(p.monoMix)
	p.floor.push(rms)

	// Linked gate: one decision, one envelope, every channel.
	if s.gateEnabled {
		threshold := p.effectiveThreshold()
		speech := p.va.detect(p.monoMix, rms, threshold)
		envelope := p.gate.advance(speech)
		p.applyEnvelope(out, envelope)
		p.lastPhase = p.gate.currentPhase()
		p.lastEnvelope = envelope
	} else {
		// Gate off: hold fully open. A later re-enable starts from a
		// closed machine rather than stale mid-fade state.
		p.gate.reset()
		p.prevEnvelope = 1
		p.lastPhase = GateOpen
		p.lastEnvelope = 1
	}

	// Per-channel shaping after the gate.
	for i := range p.chans {
		ch := &p.chans[i]
		if s.humFilter {
			ch.hum.process(out[i])
		}
		ch.eq.process(out[i])
	}

	if s.agcEnabled {
		p.agc.processFrame(out)
	}

	p.fade.apply(out, in)
	return rms
}

// effectiveThreshold returns the linear gate threshold for this frame:
// the adaptive noise-floor threshold when dynamic mode is on, otherwise
// the configured fixed value.
func (p *Processor) effectiveThreshold() float32 {
	if p.snap.dynamicThreshold {
		t := p.floor.value()*dynamicFloorRatio + dynamicFloorBias
		return dsp.Clamp(t, dynamicThresholdMin, dynamicThresholdMax)
	}
	return float32(dsp.DbToLinear(float64(p.snap.gateThresholdDB)))
}

// applyEnvelope multiplies every channel by the shared gate envelope,
// interpolating from the previous frame's value across the frame so the
// per-frame step never lands as a discontinuity.
func (p *Processor) applyEnvelope(out [][]float32, envelope float32) {
	start := p.prevEnvelope
	p.prevEnvelope = envelope

	if start == envelope {
		if envelope == 1 {
			return
		}
		for _, ch := range out {
			for k := range ch {
				ch[k] *= envelope
			}
		}
		return
	}

	step := (envelope - start) / float32(p.frameLen)
	for _, ch := range out {
		g := start
		for k := range ch {
			g += step
			ch[k] *= g
		}
	}
}

// advanceCalibration accumulates ambient RMS while the calibrate flag
// is set. When the window completes it clears the flag and returns the
// suggested threshold in dBFS for publication.
func (p *Processor) advanceCalibration(rms float32) (done bool, suggestedDB float32) {
	if !p.snap.calibrate {
		p.calibFrames = 0
		p.calibMax = 0
		return false, 0
	}

	if rms > p.calibMax {
		p.calibMax = rms
	}
	p.calibFrames++
	if p.calibFrames < p.calibSpan {
		return false, 0
	}

	suggested := p.calibMax * calibrationHeadroom
	if suggested < calibrationMinLevel {
		suggested = calibrationMinLevel
	}
	p.calibFrames = 0
	p.calibMax = 0
	p.params.finishCalibration()
	return true, float32(dsp.LinearToDb(float64(suggested)))
}

// publishUpdate sends the per-frame gate record, never blocking.
func (p *Processor) publishUpdate(rms float32, calibrated bool, suggestedDB float32) {
	p.pub.sendUpdate(GateUpdate{
		Phase:                p.lastPhase,
		Envelope:             p.lastEnvelope,
		RMS:                  rms,
		NoiseFloor:           p.floor.value(),
		SuggestedThresholdDB: suggestedDB,
		Calibrated:           calibrated,
	})
}

// mixOutput downmixes the processed output into the spectrum buffer.
func (p *Processor) mixOutput(out [][]float32) {
	copy(p.monoOut, out[0])
	if p.channels == 1 {
		return
	}
	for i := 1; i < p.channels; i++ {
		for k, s := range out[i] {
			p.monoOut[k] += s
		}
	}
	norm := 1 / float32(p.channels)
	for k := range p.monoOut {
		p.monoOut[k] *= norm
	}
}

// rawMonoRMS measures the unprocessed input, used for the bypassed
// heartbeat meter.
func (p *Processor) rawMonoRMS(in [][]float32) float32 {
	copy(p.monoOut, in[0])
	if p.channels > 1 {
		for i := 1; i < p.channels; i++ {
			for k, s := range in[i] {
				p.monoOut[k] += s
			}
		}
		norm := 1 / float32(p.channels)
		for k := range p.monoOut {
			p.monoOut[k] *= norm
		}
	}
	return dsp.RMS(p.monoOut)
}
