package processor

import (
	"math"

	"github.com/linuxmatters/voidmic/internal/dsp"
)

// AGC smoothing and safety constants.
const (
	// agcAttackCoeff/agcReleaseCoeff are the per-frame smoothing
	// factors for gain moves: fast when reducing gain (a loud burst
	// must be caught quickly), slow when recovering.
	agcAttackCoeff  = 0.1
	agcReleaseCoeff = 0.005

	// agcIdleDecay drifts excess gain back toward unity during
	// silence, one small step per frame.
	agcIdleDecay = 0.001

	// agcSilenceRMS suppresses gain updates below this level so the
	// noise floor is never chased.
	agcSilenceRMS = 0.0001

	// agcCeiling is the hard output clamp that prevents clipping.
	agcCeiling = 0.99
)

// autoGainControl normalises loudness across all channels with a single
// linked gain: the level detector takes the per-sample maximum across
// channels, so the stereo image never shifts. Gain moves are smoothed
// frame to frame and clamped to a configured ceiling, and the output is
// hard-limited to ±agcCeiling.
type autoGainControl struct {
	targetLevel float64 // desired RMS, linear
	maxGain     float64 // gain ceiling, linear
	gain        float64 // current smoothed gain
}

func newAutoGainControl(targetDB, maxGainDB float32) *autoGainControl {
	a := &autoGainControl{gain: 1}
	a.configure(targetDB, maxGainDB)
	return a
}

// configure applies the dB-domain parameters. Called once per frame
// from the snapshot; conversion cost is two Pow calls, negligible at
// frame rate.
func (a *autoGainControl) configure(targetDB, maxGainDB float32) {
	a.targetLevel = dsp.DbToLinear(float64(targetDB))
	a.maxGain = dsp.DbToLinear(float64(maxGainDB))
}

// processFrame measures the linked level, advances the smoothed gain
// one step, and applies it to every channel with hard limiting.
func (a *autoGainControl) processFrame(frames [][]float32) {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return
	}

	// Linked detection: RMS of the per-sample maximum across channels.
	frameLen := len(frames[0])
	var sumSq float64
	for k := 0; k < frameLen; k++ {
		var peak float64
		for _, ch := range frames {
			v := math.Abs(float64(ch[k]))
			if v > peak {
				peak = v
			}
		}
		sumSq += peak * peak
	}
	rms := math.Sqrt(sumSq / float64(frameLen))

	if rms > agcSilenceRMS {
		target := a.targetLevel / rms
		if target > a.maxGain {
			target = a.maxGain
		}
		if target < a.gain {
			a.gain += (target - a.gain) * agcAttackCoeff
		} else {
			a.gain += (target - a.gain) * agcReleaseCoeff
		}
	} else if a.gain > 1 {
		a.gain -= agcIdleDecay
	}

	for _, ch := range frames {
		for k, s := range ch {
			v := float64(s) * a.gain
			if v > agcCeiling {
				v = agcCeiling
			} else if v < -agcCeiling {
				v = -agcCeiling
			}
			ch[k] = float32(v)
		}
	}
}

// currentGain reports the smoothed gain for metering.
func (a *autoGainControl) currentGain() float64 { return a.gain }
