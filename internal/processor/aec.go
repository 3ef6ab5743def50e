package processor

// NLMS echo canceller defaults.
const (
	// aecTaps is the adaptive filter length in samples: 256 covers the
	// residual delay and early room response once capture and playback
	// frames arrive aligned, as they do from a shared callback.
	aecTaps = 256

	// aecStep is the NLMS step size mu (0 < mu < 2). Conservative for
	// stability over convergence speed.
	aecStep = 0.5

	// aecRegularizer keeps the normalisation divisor away from zero
	// during silent reference passages.
	aecRegularizer = 1e-6
)

// echoCanceller subtracts a predicted echo of the reference (far-end)
// signal from one channel. It is an NLMS adaptive filter whose state is
// owned exclusively by the audio thread: no locks, no allocation after
// construction.
type echoCanceller struct {
	weights []float64 // adaptive coefficients, newest-sample-first order
	history []float64 // reference delay line, ring of len(weights)
	head    int       // next write position in history
	power   float64   // running energy of the delay line window
}

func newEchoCanceller() *echoCanceller {
	return &echoCanceller{
		weights: make([]float64, aecTaps),
		history: make([]float64, aecTaps),
	}
}

// process cancels echo from mic in-place using ref as the far-end
// signal. Both slices must be the same length; the caller enforces the
// frame contract.
func (e *echoCanceller) process(mic, ref []float32) {
	for i := range mic {
		// Push the newest reference sample into the delay line,
		// keeping the running window energy incremental.
		old := e.history[e.head]
		x := float64(ref[i])
		e.history[e.head] = x
		e.power += x*x - old*old
		e.head = (e.head + 1) % len(e.history)

		// Predicted echo: dot product of weights and the delay line,
		// newest sample first.
		var estimate float64
		idx := e.head
		for t := 0; t < len(e.weights); t++ {
			idx--
			if idx < 0 {
				idx = len(e.history) - 1
			}
			estimate += e.weights[t] * e.history[idx]
		}

		err := float64(mic[i]) - estimate
		mic[i] = float32(err)

		// NLMS update, normalised by window energy.
		scale := aecStep * err / (e.power + aecRegularizer)
		idx = e.head
		for t := 0; t < len(e.weights); t++ {
			idx--
			if idx < 0 {
				idx = len(e.history) - 1
			}
			e.weights[t] += scale * e.history[idx]
		}
	}
}

// reset clears the filter so it re-adapts from scratch, used when echo
// cancellation is toggled on.
func (e *echoCanceller) reset() {
	for i := range e.weights {
		e.weights[i] = 0
	}
	for i := range e.history {
		e.history[i] = 0
	}
	e.head = 0
	e.power = 0
}
