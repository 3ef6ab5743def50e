package processor

import (
	"math"
	"testing"
)

const (
	testSampleRate = 48000
	testFrameLen   = 480 // 10 ms
)

// newTestProcessor builds a processor with quiet defaults for unit
// tests: passthrough denoiser so chain tests are deterministic, gate
// timing collapsed to instant attack.
func newTestProcessor(t *testing.T, channels int, params *Params) *Processor {
	t.Helper()
	p, err := New(Config{
		Channels:    channels,
		FrameLen:    testFrameLen,
		SampleRate:  testSampleRate,
		NewDenoiser: NewPassthroughDenoiser,
	}, params)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

// sineFrame fills a frame with a sine tone at the given frequency and
// linear amplitude. phase carries across calls so consecutive frames
// are continuous.
func sineFrame(frameLen int, freq, amp float64, phase *float64) []float32 {
	frame := make([]float32, frameLen)
	step := 2 * math.Pi * freq / testSampleRate
	ph := *phase
	for i := range frame {
		frame[i] = float32(amp * math.Sin(ph))
		ph += step
	}
	*phase = ph
	return frame
}

// noiseFrame fills a frame with deterministic white noise at the given
// linear amplitude, using the same LCG across calls via state.
func noiseFrame(frameLen int, amp float64, state *uint32) []float32 {
	frame := make([]float32, frameLen)
	for i := range frame {
		*state = *state*1664525 + 1013904223
		frame[i] = float32(amp * ((float64(*state)/float64(0xFFFFFFFF))*2 - 1))
	}
	return frame
}

// silentFrame returns an all-zero frame.
func silentFrame(frameLen int) []float32 {
	return make([]float32, frameLen)
}

// duplicate copies one mono frame across n channels.
func duplicate(frame []float32, n int) [][]float32 {
	out := make([][]float32, n)
	for ch := range out {
		out[ch] = make([]float32, len(frame))
		copy(out[ch], frame)
	}
	return out
}

// emptyFrames allocates n output frames of the given length.
func emptyFrames(n, frameLen int) [][]float32 {
	out := make([][]float32, n)
	for ch := range out {
		out[ch] = make([]float32, frameLen)
	}
	return out
}

// frameRMS computes RMS of a frame in float64 for test assertions.
func frameRMS(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// maxAbsDiff returns the largest absolute per-sample difference between
// two equal-length frames.
func maxAbsDiff(a, b []float32) float64 {
	var max float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		if d > max {
			max = d
		}
	}
	return max
}
