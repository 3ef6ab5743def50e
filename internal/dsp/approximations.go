package dsp

import "math"

// log2Of10Div20 converts decibels to the log2 domain: log2(10) / 20.
const log2Of10Div20 = 0.166096404744

// Polynomial coefficients for the FastLog2 mantissa approximation
// (5th-order continuous fit over [0.5, 1.0)).
var log2Poly5 = [5]float64{
	-0.0821343513178931783,
	0.649732456739820052,
	-2.13417801862571777,
	4.08642207062728868,
	-1.51984215742349793,
}

// FastLog2 approximates log2(x) with a polynomial over the mantissa.
// Accuracy is well within what level metering needs, at a fraction of the
// cost of math.Log2. Non-positive input returns -Inf.
func FastLog2(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}

	frac, exp := math.Frexp(x)

	// Horner evaluation of the mantissa polynomial.
	m := log2Poly5[0]*frac + log2Poly5[1]
	m = m*frac + log2Poly5[2]
	m = m*frac + log2Poly5[3]
	m = m*frac + log2Poly5[4]

	// Frexp returns the mantissa in [0.5, 1.0), hence exp-1.
	return float64(exp-1) + m
}

// FastLinearToDb is LinearToDb built on FastLog2, for per-frame metering.
func FastLinearToDb(linear float64) float64 {
	if linear <= 0 {
		return silenceFloorDB
	}
	return FastLog2(linear) / log2Of10Div20
}
