package processor

import (
	"math"
	"sync/atomic"
)

// Parameter ranges. Setters clamp rather than reject: this surface is
// driven by GUI sliders and must never produce an error path.
const (
	// Gate threshold limits. -70 dBFS handles professional studio
	// floors; gating above -25 dBFS would cut into speech.
	GateThresholdMinDB = -70.0
	GateThresholdMaxDB = -25.0

	// Gate timing limits (milliseconds).
	AttackMaxMs  = 500.0
	ReleaseMaxMs = 2000.0
	HangMaxMs    = 1000.0

	// EQ band gain limits (decibels).
	EQGainMinDB = -24.0
	EQGainMaxDB = 24.0

	// AGC target level and gain ceiling limits.
	AGCTargetMinDB  = -40.0
	AGCTargetMaxDB  = 0.0
	AGCMaxGainCapDB = 20.0
)

// Defaults applied by NewParams.
const (
	DefaultGateThresholdDB = -40.0
	DefaultAttackMs        = 5.0
	DefaultReleaseMs       = 200.0
	DefaultHangMs          = 150.0
	DefaultBlendRatio      = 1.0
	DefaultAGCTargetDB     = -14.0
	DefaultAGCMaxGainDB    = 10.0
)

// atomicFloat32 is a float32 stored as raw bits in a uint32 cell.
// Loads and stores are relaxed-equivalent in Go's memory model terms:
// last writer wins, a value is never torn.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Store(v float32) { f.bits.Store(math.Float32bits(v)) }
func (f *atomicFloat32) Load() float32   { return math.Float32frombits(f.bits.Load()) }

// Params is the externally tunable surface shared between the control
// thread and the audio thread. Each field is an independently updatable
// atomic cell; there is no whole-struct atomicity. The processor reads
// the full set once per frame, so a burst of setter calls may land
// across two adjacent frames. Fields are designed to tolerate that skew
// (e.g. threshold and hang time applying one frame apart is harmless).
type Params struct {
	enabled          atomic.Bool
	bypass           atomic.Bool
	gateEnabled      atomic.Bool
	echoCancel       atomic.Bool
	agcEnabled       atomic.Bool
	dynamicThreshold atomic.Bool
	humFilter        atomic.Bool
	calibrate        atomic.Bool

	gateThresholdDB atomicFloat32
	attackMs        atomicFloat32
	releaseMs       atomicFloat32
	hangMs          atomicFloat32
	blendRatio      atomicFloat32
	eqLowDB         atomicFloat32
	eqMidDB         atomicFloat32
	eqHighDB        atomicFloat32
	agcTargetDB     atomicFloat32
	agcMaxGainDB    atomicFloat32
}

// NewParams returns a parameter set with engine defaults: enabled, not
// bypassed, gate at -40 dBFS with 5/200/150 ms timing, full suppression
// blend, flat EQ, AGC off targeting -14 dBFS.
func NewParams() *Params {
	p := &Params{}
	p.enabled.Store(true)
	p.gateEnabled.Store(true)
	p.gateThresholdDB.Store(DefaultGateThresholdDB)
	p.attackMs.Store(DefaultAttackMs)
	p.releaseMs.Store(DefaultReleaseMs)
	p.hangMs.Store(DefaultHangMs)
	p.blendRatio.Store(DefaultBlendRatio)
	p.agcTargetDB.Store(DefaultAGCTargetDB)
	p.agcMaxGainDB.Store(DefaultAGCMaxGainDB)
	return p
}

func clamp32(v, lo, hi float32) float32 {
	// NaN from a misbehaving caller collapses to the lower bound.
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetEnabled turns the whole processing chain on or off. Disabling is
// crossfaded by the processor, not applied instantaneously.
func (p *Params) SetEnabled(on bool) { p.enabled.Store(on) }

// Enabled reports whether processing is enabled.
func (p *Params) Enabled() bool { return p.enabled.Load() }

// SetBypass toggles pass-through mode. The transition is crossfaded.
func (p *Params) SetBypass(on bool) { p.bypass.Store(on) }

// SetGateEnabled turns the noise gate on or off. With the gate off the
// rest of the chain still runs and the envelope is held fully open.
func (p *Params) SetGateEnabled(on bool) { p.gateEnabled.Store(on) }

// GateEnabled reports whether the noise gate is active.
func (p *Params) GateEnabled() bool { return p.gateEnabled.Load() }

// Bypass reports whether bypass is requested.
func (p *Params) Bypass() bool { return p.bypass.Load() }

// SetEchoCancel enables echo cancellation when a reference frame is
// supplied to Process.
func (p *Params) SetEchoCancel(on bool) { p.echoCancel.Store(on) }

// EchoCancel reports whether echo cancellation is enabled.
func (p *Params) EchoCancel() bool { return p.echoCancel.Load() }

// SetAGCEnabled enables automatic gain control.
func (p *Params) SetAGCEnabled(on bool) { p.agcEnabled.Store(on) }

// AGCEnabled reports whether AGC is enabled.
func (p *Params) AGCEnabled() bool { return p.agcEnabled.Load() }

// SetDynamicThreshold switches the gate to the adaptive noise-floor
// threshold instead of the fixed GateThresholdDB value.
func (p *Params) SetDynamicThreshold(on bool) { p.dynamicThreshold.Store(on) }

// DynamicThreshold reports whether the adaptive threshold is active.
func (p *Params) DynamicThreshold() bool { return p.dynamicThreshold.Load() }

// SetHumFilter enables the mains-hum notch bank ahead of the EQ.
func (p *Params) SetHumFilter(on bool) { p.humFilter.Store(on) }

// HumFilter reports whether the hum notch bank is enabled.
func (p *Params) HumFilter() bool { return p.humFilter.Load() }

// StartCalibration asks the processor to measure ambient noise for the
// next ~3 seconds and publish a suggested gate threshold. The flag
// clears itself when the measurement completes.
func (p *Params) StartCalibration() { p.calibrate.Store(true) }

// Calibrating reports whether a calibration pass is in progress.
func (p *Params) Calibrating() bool { return p.calibrate.Load() }

// SetGateThresholdDB sets the gate threshold in dBFS, clamped to
// [-70, -25].
func (p *Params) SetGateThresholdDB(db float32) {
	p.gateThresholdDB.Store(clamp32(db, GateThresholdMinDB, GateThresholdMaxDB))
}

// GateThresholdDB returns the gate threshold in dBFS.
func (p *Params) GateThresholdDB() float32 { return p.gateThresholdDB.Load() }

// SetAttackMs sets the gate attack time, clamped to [0, 500] ms.
// Zero means the gate opens within a single frame.
func (p *Params) SetAttackMs(ms float32) {
	p.attackMs.Store(clamp32(ms, 0, AttackMaxMs))
}

// AttackMs returns the gate attack time in milliseconds.
func (p *Params) AttackMs() float32 { return p.attackMs.Load() }

// SetReleaseMs sets the gate release time, clamped to [0, 2000] ms.
func (p *Params) SetReleaseMs(ms float32) {
	p.releaseMs.Store(clamp32(ms, 0, ReleaseMaxMs))
}

// ReleaseMs returns the gate release time in milliseconds.
func (p *Params) ReleaseMs() float32 { return p.releaseMs.Load() }

// SetHangMs sets the gate hang time, clamped to [0, 1000] ms. Hang
// keeps the gate from chattering across short pauses in speech.
func (p *Params) SetHangMs(ms float32) {
	p.hangMs.Store(clamp32(ms, 0, HangMaxMs))
}

// HangMs returns the gate hang time in milliseconds.
func (p *Params) HangMs() float32 { return p.hangMs.Load() }

// SetBlendRatio sets the denoiser wet/dry mix, clamped to [0, 1].
// 0 passes the raw signal, 1 is fully denoised.
func (p *Params) SetBlendRatio(ratio float32) {
	p.blendRatio.Store(clamp32(ratio, 0, 1))
}

// BlendRatio returns the denoiser wet/dry mix.
func (p *Params) BlendRatio() float32 { return p.blendRatio.Load() }

// SetEQGainsDB sets the three band gains in decibels, each clamped to
// [-24, +24].
func (p *Params) SetEQGainsDB(low, mid, high float32) {
	p.eqLowDB.Store(clamp32(low, EQGainMinDB, EQGainMaxDB))
	p.eqMidDB.Store(clamp32(mid, EQGainMinDB, EQGainMaxDB))
	p.eqHighDB.Store(clamp32(high, EQGainMinDB, EQGainMaxDB))
}

// EQGainsDB returns the three band gains in decibels.
func (p *Params) EQGainsDB() (low, mid, high float32) {
	return p.eqLowDB.Load(), p.eqMidDB.Load(), p.eqHighDB.Load()
}

// SetAGCTargetDB sets the AGC target level in dBFS, clamped to [-40, 0].
func (p *Params) SetAGCTargetDB(db float32) {
	p.agcTargetDB.Store(clamp32(db, AGCTargetMinDB, AGCTargetMaxDB))
}

// AGCTargetDB returns the AGC target level in dBFS.
func (p *Params) AGCTargetDB() float32 { return p.agcTargetDB.Load() }

// SetAGCMaxGainDB sets the AGC gain ceiling in dB, clamped to [0, 20].
// The ceiling stops residual noise from being amplified without bound.
func (p *Params) SetAGCMaxGainDB(db float32) {
	p.agcMaxGainDB.Store(clamp32(db, 0, AGCMaxGainCapDB))
}

// AGCMaxGainDB returns the AGC gain ceiling in dB.
func (p *Params) AGCMaxGainDB() float32 { return p.agcMaxGainDB.Load() }

// paramSnapshot is the plain (non-atomic) copy of the parameter surface
// the audio thread reads once per frame, before any processing stage
// runs. Individual fields may come from different setter calls but each
// field is internally consistent.
type paramSnapshot struct {
	enabled          bool
	bypass           bool
	gateEnabled      bool
	echoCancel       bool
	agcEnabled       bool
	dynamicThreshold bool
	humFilter        bool
	calibrate        bool

	gateThresholdDB float32
	attackMs        float32
	releaseMs       float32
	hangMs          float32
	blendRatio      float32
	eqLowDB         float32
	eqMidDB         float32
	eqHighDB        float32
	agcTargetDB     float32
	agcMaxGainDB    float32
}

// snapshot fills dst from the atomic cells. dst is owned by the audio
// thread and reused every frame; no allocation.
func (p *Params) snapshot(dst *paramSnapshot) {
	dst.enabled = p.enabled.Load()
	dst.bypass = p.bypass.Load()
	dst.gateEnabled = p.gateEnabled.Load()
	dst.echoCancel = p.echoCancel.Load()
	dst.agcEnabled = p.agcEnabled.Load()
	dst.dynamicThreshold = p.dynamicThreshold.Load()
	dst.humFilter = p.humFilter.Load()
	dst.calibrate = p.calibrate.Load()

	dst.gateThresholdDB = p.gateThresholdDB.Load()
	dst.attackMs = p.attackMs.Load()
	dst.releaseMs = p.releaseMs.Load()
	dst.hangMs = p.hangMs.Load()
	dst.blendRatio = p.blendRatio.Load()
	dst.eqLowDB = p.eqLowDB.Load()
	dst.eqMidDB = p.eqMidDB.Load()
	dst.eqHighDB = p.eqHighDB.Load()
	dst.agcTargetDB = p.agcTargetDB.Load()
	dst.agcMaxGainDB = p.agcMaxGainDB.Load()
}

// finishCalibration clears the calibrate flag from the audio thread
// once the measurement window has been published.
func (p *Params) finishCalibration() { p.calibrate.Store(false) }
