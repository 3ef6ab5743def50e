package processor

import "math"

// SpectrumBins is the fixed number of magnitude bins in a published
// snapshot. The analysis FFT is wider; bins are collapsed by taking the
// per-group maximum, which reads better on a bar display than the mean.
const SpectrumBins = 64

// spectrumInterval publishes a snapshot every Nth frame, bounding the
// analysis cost to a quarter of the frame rate.
const spectrumInterval = 4

// SpectrumSnapshot is a fixed-size magnitude spectrum of the processed
// output, published by value so no mutable state ever crosses the
// thread boundary. Bins run from DC to Nyquist, linearly spaced.
type SpectrumSnapshot struct {
	Bins [SpectrumBins]float32
}

// spectrumAnalyzer computes magnitude spectra over a pre-allocated
// working set: Hann window, bit-reversal table and twiddle factors are
// all built at construction, so the per-cycle cost is the FFT butterfly
// loop and nothing else. Never allocates after construction.
type spectrumAnalyzer struct {
	fftSize int
	window  []float64 // Hann window over the frame length
	revBits []int     // bit-reversal permutation
	cos     []float64 // twiddle factors, one per half-size
	sin     []float64

	re, im   []float64 // in-place FFT working buffers
	snapshot SpectrumSnapshot
}

func newSpectrumAnalyzer(frameLen int) *spectrumAnalyzer {
	fftSize := 1
	for fftSize < frameLen {
		fftSize <<= 1
	}

	a := &spectrumAnalyzer{
		fftSize: fftSize,
		window:  make([]float64, frameLen),
		revBits: make([]int, fftSize),
		cos:     make([]float64, fftSize/2),
		sin:     make([]float64, fftSize/2),
		re:      make([]float64, fftSize),
		im:      make([]float64, fftSize),
	}

	for i := range a.window {
		a.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(frameLen-1)))
	}

	bits := 0
	for 1<<bits < fftSize {
		bits++
	}
	for i := range a.revBits {
		rev := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				rev |= 1 << (bits - 1 - b)
			}
		}
		a.revBits[i] = rev
	}

	for i := range a.cos {
		angle := -2 * math.Pi * float64(i) / float64(fftSize)
		a.cos[i] = math.Cos(angle)
		a.sin[i] = math.Sin(angle)
	}

	return a
}

// analyze windows the mono frame, runs the FFT, and collapses the
// magnitude spectrum into the fixed snapshot. Returns the snapshot by
// value, ready to publish.
func (a *spectrumAnalyzer) analyze(mono []float32) SpectrumSnapshot {
	// Window into the bit-reversed positions, zero-padding the tail.
	for i := range a.re {
		a.re[i] = 0
		a.im[i] = 0
	}
	for i, s := range mono {
		a.re[a.revBits[i]] = float64(s) * a.window[i]
	}

	// Iterative radix-2 butterflies.
	for size := 2; size <= a.fftSize; size <<= 1 {
		half := size / 2
		stride := a.fftSize / size
		for start := 0; start < a.fftSize; start += size {
			for k := 0; k < half; k++ {
				tw := k * stride
				i, j := start+k, start+k+half
				tr := a.cos[tw]*a.re[j] - a.sin[tw]*a.im[j]
				ti := a.cos[tw]*a.im[j] + a.sin[tw]*a.re[j]
				a.re[j] = a.re[i] - tr
				a.im[j] = a.im[i] - ti
				a.re[i] += tr
				a.im[i] += ti
			}
		}
	}

	// Collapse the positive-frequency half into SpectrumBins groups,
	// keeping each group's peak magnitude. Normalised by sqrt(N) to
	// keep levels comparable across frame sizes.
	halfBins := a.fftSize / 2
	group := halfBins / SpectrumBins
	if group < 1 {
		group = 1
	}
	norm := 1 / math.Sqrt(float64(a.fftSize))
	for b := 0; b < SpectrumBins; b++ {
		var peak float64
		for g := 0; g < group; g++ {
			idx := b*group + g
			if idx >= halfBins {
				break
			}
			mag := math.Hypot(a.re[idx], a.im[idx]) * norm
			if mag > peak {
				peak = mag
			}
		}
		a.snapshot.Bins[b] = float32(peak)
	}

	return a.snapshot
}
