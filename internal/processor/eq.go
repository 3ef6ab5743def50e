package processor

import "math"

// Band centre frequencies and widths for the fixed three-band EQ.
// Low shelf at 200 Hz and high shelf at 4 kHz use the Butterworth Q;
// the 1 kHz peaking band uses unity Q for a broad presence control.
const (
	eqLowShelfHz  = 200.0
	eqPeakHz      = 1000.0
	eqHighShelfHz = 4000.0
	eqShelfQ      = 0.707
	eqPeakQ       = 1.0
)

// Hum notch defaults: fundamental plus three harmonics, narrow Q so the
// notches barely touch voice content.
const (
	humHarmonics = 4
	humNotchQ    = 30.0
)

// eqGainEpsilon is the change in dB below which update is a no-op,
// avoiding needless coefficient recomputation every frame.
const eqGainEpsilon = 0.01

// biquad is a second-order IIR section in direct form 2 transposed.
// Coefficients and state are float64; the audio path stays float32.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
}

// run processes one sample through the section.
func (f *biquad) run(x float32) float32 {
	in := float64(x)
	out := f.b0*in + f.z1
	f.z1 = f.b1*in - f.a1*out + f.z2
	f.z2 = f.b2*in - f.a2*out
	return float32(out)
}

// resetState clears the delay elements without touching coefficients.
func (f *biquad) resetState() {
	f.z1 = 0
	f.z2 = 0
}

// Biquad coefficient design, RBJ audio EQ cookbook forms. All return
// normalised (a0 == 1) coefficients.

func (f *biquad) lowShelf(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	beta := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) + (a-1)*cw + beta
	f.b0 = a * ((a + 1) - (a-1)*cw + beta) / a0
	f.b1 = 2 * a * ((a - 1) - (a+1)*cw) / a0
	f.b2 = a * ((a + 1) - (a-1)*cw - beta) / a0
	f.a1 = -2 * ((a - 1) + (a+1)*cw) / a0
	f.a2 = ((a + 1) + (a-1)*cw - beta) / a0
}

func (f *biquad) highShelf(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	beta := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) - (a-1)*cw + beta
	f.b0 = a * ((a + 1) + (a-1)*cw + beta) / a0
	f.b1 = -2 * a * ((a - 1) + (a+1)*cw) / a0
	f.b2 = a * ((a + 1) + (a-1)*cw - beta) / a0
	f.a1 = 2 * ((a - 1) - (a+1)*cw) / a0
	f.a2 = ((a + 1) - (a-1)*cw - beta) / a0
}

func (f *biquad) peaking(sampleRate, freq, q, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)

	a0 := 1 + alpha/a
	f.b0 = (1 + alpha*a) / a0
	f.b1 = -2 * cw / a0
	f.b2 = (1 - alpha*a) / a0
	f.a1 = f.b1
	f.a2 = (1 - alpha/a) / a0
}

func (f *biquad) notch(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)

	a0 := 1 + alpha
	f.b0 = 1 / a0
	f.b1 = -2 * cw / a0
	f.b2 = 1 / a0
	f.a1 = f.b1
	f.a2 = (1 - alpha) / a0
}

// threeBandEQ is the per-channel fixed filter bank: low shelf, peaking,
// high shelf in series. Band gains are the only runtime-variable part;
// centre frequencies are a construction-time property.
type threeBandEQ struct {
	low, mid, high biquad
	sampleRate     float64

	// Applied gains, for cheap change detection per frame.
	lowDB, midDB, highDB float32
	designed             bool
}

func newThreeBandEQ(sampleRate float64) *threeBandEQ {
	eq := &threeBandEQ{sampleRate: sampleRate}
	eq.updateGains(0, 0, 0)
	return eq
}

// updateGains recomputes coefficients when any band moved by more than
// eqGainEpsilon dB. Filter state is preserved across gain changes so a
// slider drag does not click.
func (eq *threeBandEQ) updateGains(lowDB, midDB, highDB float32) {
	if eq.designed &&
		abs32(lowDB-eq.lowDB) < eqGainEpsilon &&
		abs32(midDB-eq.midDB) < eqGainEpsilon &&
		abs32(highDB-eq.highDB) < eqGainEpsilon {
		return
	}
	eq.designed = true
	eq.lowDB, eq.midDB, eq.highDB = lowDB, midDB, highDB
	eq.low.lowShelf(eq.sampleRate, eqLowShelfHz, eqShelfQ, float64(lowDB))
	eq.mid.peaking(eq.sampleRate, eqPeakHz, eqPeakQ, float64(midDB))
	eq.high.highShelf(eq.sampleRate, eqHighShelfHz, eqShelfQ, float64(highDB))
}

// process filters the frame in place.
func (eq *threeBandEQ) process(frame []float32) {
	for i, s := range frame {
		s = eq.low.run(s)
		s = eq.mid.run(s)
		frame[i] = eq.high.run(s)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// humNotchBank notches the mains fundamental and its first harmonics
// (50/100/150/200 Hz or the 60 Hz series). Fundamental frequency comes
// from locale detection at construction; the bank is either fully in
// the signal path or skipped, there is no per-notch control.
type humNotchBank struct {
	notches [humHarmonics]biquad
}

func newHumNotchBank(sampleRate, fundamental float64) *humNotchBank {
	bank := &humNotchBank{}
	for i := range bank.notches {
		freq := fundamental * float64(i+1)
		// Keep harmonics clear of the Nyquist limit.
		if freq >= sampleRate/2 {
			freq = sampleRate/2 - 1
		}
		bank.notches[i].notch(sampleRate, freq, humNotchQ)
	}
	return bank
}

// process filters the frame in place through all notches in series.
func (b *humNotchBank) process(frame []float32) {
	for i := range b.notches {
		n := &b.notches[i]
		for j, s := range frame {
			frame[j] = n.run(s)
		}
	}
}

// flatten resets all filter state (used when the bank is toggled on
// after a long idle spell).
func (b *humNotchBank) flatten() {
	for i := range b.notches {
		b.notches[i].resetState()
	}
}
