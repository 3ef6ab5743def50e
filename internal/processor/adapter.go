package processor

// sampleRing is a fixed-capacity single-channel ring buffer. All space
// is allocated up front; push and pop move slices, never the ring.
type sampleRing struct {
	buf  []float32
	head int
	size int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{buf: make([]float32, capacity)}
}

func (r *sampleRing) len() int  { return r.size }
func (r *sampleRing) free() int { return len(r.buf) - r.size }

// push copies src into the ring, discarding the oldest samples if the
// ring would overflow. Overrun means the consumer is stalled; keeping
// the newest audio is the least bad option.
func (r *sampleRing) push(src []float32) {
	if len(src) > len(r.buf) {
		src = src[len(src)-len(r.buf):]
	}
	if over := len(src) - r.free(); over > 0 {
		r.drop(over)
	}
	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], src)
	copy(r.buf, src[n:])
	r.size += len(src)
}

// pop copies up to len(dst) samples out and returns the count.
func (r *sampleRing) pop(dst []float32) int {
	n := len(dst)
	if n > r.size {
		n = r.size
	}
	m := copy(dst[:n], r.buf[r.head:])
	copy(dst[m:n], r.buf)
	r.drop(n)
	return n
}

func (r *sampleRing) drop(n int) {
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
}

// FrameAdapter bridges a host that delivers audio in arbitrary buffer
// sizes to the processor's fixed frame length. Input accumulates in
// per-channel rings; whole frames are processed as they complete and
// the results queue for the output side. Like the processor itself it
// is single-threaded: one goroutine both pushes and pops.
type FrameAdapter struct {
	proc *Processor

	in  []*sampleRing
	out []*sampleRing
	ref *sampleRing

	// Frame-sized scratch, reused across process passes.
	frameIn  [][]float32
	frameOut [][]float32
	frameRef []float32
}

// adapterCapacityFrames is the default ring depth. Eight frames (80 ms
// at the usual 10 ms frame) absorbs typical host buffer mismatch.
const adapterCapacityFrames = 8

// NewFrameAdapter wraps p with ring buffering. capacityFrames sets the
// ring depth in frames; values below the default are raised to it.
func NewFrameAdapter(p *Processor, capacityFrames int) *FrameAdapter {
	if capacityFrames < adapterCapacityFrames {
		capacityFrames = adapterCapacityFrames
	}
	capacity := capacityFrames * p.FrameLen()

	a := &FrameAdapter{
		proc:     p,
		in:       make([]*sampleRing, p.Channels()),
		out:      make([]*sampleRing, p.Channels()),
		ref:      newSampleRing(capacity),
		frameIn:  make([][]float32, p.Channels()),
		frameOut: make([][]float32, p.Channels()),
		frameRef: make([]float32, p.FrameLen()),
	}
	for ch := range a.in {
		a.in[ch] = newSampleRing(capacity)
		a.out[ch] = newSampleRing(capacity)
		a.frameIn[ch] = make([]float32, p.FrameLen())
		a.frameOut[ch] = make([]float32, p.FrameLen())
	}
	return a
}

// PushPlanar queues one host buffer of per-channel sample slices. All
// slices must be the same length; channel count must match the
// processor. Completed frames are processed immediately.
func (a *FrameAdapter) PushPlanar(in [][]float32) {
	for ch := range a.in {
		a.in[ch].push(in[ch])
	}
	a.processReady()
}

// PushInterleaved queues one host buffer of interleaved samples,
// de-interleaving through the frame scratch one frame-sized chunk at a
// time.
func (a *FrameAdapter) PushInterleaved(in []float32) {
	channels := len(a.in)
	if channels == 1 {
		a.in[0].push(in)
		a.processReady()
		return
	}

	frames := len(in) / channels
	for start := 0; start < frames; {
		chunk := frames - start
		if chunk > len(a.frameIn[0]) {
			chunk = len(a.frameIn[0])
		}
		for ch := 0; ch < channels; ch++ {
			dst := a.frameIn[ch][:chunk]
			for k := 0; k < chunk; k++ {
				dst[k] = in[(start+k)*channels+ch]
			}
			a.in[ch].push(dst)
		}
		start += chunk
	}
	a.processReady()
}

// PushReference queues speaker-reference samples for echo cancellation.
// The reference ring advances in lockstep with the input; if it runs
// dry the processor simply sees no reference for that frame.
func (a *FrameAdapter) PushReference(ref []float32) {
	a.ref.push(ref)
}

// Pop fills the per-channel dst slices with processed audio and returns
// the number of samples written per channel. Underrun returns a short
// count; the caller zero-fills or stretches as its host requires.
func (a *FrameAdapter) Pop(dst [][]float32) int {
	n := 0
	for ch := range a.out {
		n = a.out[ch].pop(dst[ch])
	}
	return n
}

// PopInterleaved fills dst with interleaved processed audio and returns
// the number of whole multi-channel frames written.
func (a *FrameAdapter) PopInterleaved(dst []float32) int {
	channels := len(a.out)
	frames := len(dst) / channels
	avail := a.Buffered()
	if frames > avail {
		frames = avail
	}

	for start := 0; start < frames; {
		chunk := frames - start
		if chunk > len(a.frameOut[0]) {
			chunk = len(a.frameOut[0])
		}
		for ch := 0; ch < channels; ch++ {
			src := a.frameOut[ch][:chunk]
			a.out[ch].pop(src)
			for k := 0; k < chunk; k++ {
				dst[(start+k)*channels+ch] = src[k]
			}
		}
		start += chunk
	}
	return frames
}

// Buffered reports how many processed samples are waiting per channel.
func (a *FrameAdapter) Buffered() int { return a.out[0].len() }

// Pending reports how many input samples are queued but not yet
// processed, always less than one frame after a push.
func (a *FrameAdapter) Pending() int { return a.in[0].len() }

// processReady runs the processor over every complete frame in the
// input rings, as long as the output side has room.
func (a *FrameAdapter) processReady() {
	frameLen := a.proc.FrameLen()
	for a.in[0].len() >= frameLen && a.out[0].free() >= frameLen {
		for ch := range a.in {
			a.in[ch].pop(a.frameIn[ch])
		}

		ref := a.frameRef
		if a.ref.len() >= frameLen {
			a.ref.pop(ref)
		} else {
			ref = nil
		}

		// The frame contract is satisfied by construction, so the
		// only possible error cannot occur here.
		_ = a.proc.Process(a.frameIn, ref, a.frameOut)

		for ch := range a.out {
			a.out[ch].push(a.frameOut[ch])
		}
	}
}
