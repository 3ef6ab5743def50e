// Package dsp provides small numeric helpers shared by the audio engine:
// decibel/linear conversions, RMS measurement, and a fast log2 approximation
// for level metering where math.Log10 is too expensive per frame.
package dsp

import "math"

// silenceFloorDB is the practical decibel floor returned for zero or
// negative linear amplitudes.
const silenceFloorDB = -120.0

// DbToLinear converts a decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts a linear amplitude to decibels.
// Non-positive input returns the -120 dB silence floor.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return silenceFloorDB
	}
	return 20.0 * math.Log10(linear)
}

// RMS returns the root-mean-square level of a block of samples.
// An empty block measures as silence (0).
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
