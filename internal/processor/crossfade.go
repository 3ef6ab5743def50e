package processor

import "math"

// bypassState tracks where the engine sits between fully processing and
// fully passing audio through.
type bypassState int

const (
	bypassActive bypassState = iota // processing chain in the path
	bypassedOut                     // raw input in the path
	bypassFadingOut                 // ramping processed -> raw
	bypassFadingIn                  // ramping raw -> processed
)

// crossfadeMs is the fixed fade window. 10 ms is short enough to feel
// instant and long enough to avoid a pop.
const crossfadeMs = 10.0

// bypassCrossfader blends processed and raw audio over a short
// equal-power ramp whenever bypass (or enable) toggles, so switching
// modes never produces a discontinuity. Routine gating does not pass
// through here; the gate's own envelope handles those transitions.
type bypassCrossfader struct {
	state bypassState
	pos   int // samples into the current fade
	span  int // fade length in samples
}

func newBypassCrossfader(sampleRate int) *bypassCrossfader {
	span := int(crossfadeMs / 1000 * float64(sampleRate))
	if span < 1 {
		span = 1
	}
	return &bypassCrossfader{span: span}
}

// request moves the state machine toward the wanted mode, starting a
// fade when the current mode differs. Called once per frame before
// apply.
func (c *bypassCrossfader) request(bypass bool) {
	switch c.state {
	case bypassActive:
		if bypass {
			c.state = bypassFadingOut
			c.pos = 0
		}
	case bypassedOut:
		if !bypass {
			c.state = bypassFadingIn
			c.pos = 0
		}
	case bypassFadingOut:
		if !bypass {
			// Direction flip mid-fade: keep the position so the
			// blend continues from where it is.
			c.state = bypassFadingIn
			c.pos = c.span - c.pos
		}
	case bypassFadingIn:
		if bypass {
			c.state = bypassFadingOut
			c.pos = c.span - c.pos
		}
	}
}

// bypassed reports whether the raw path is fully selected, letting the
// processor skip the entire chain.
func (c *bypassCrossfader) bypassed() bool { return c.state == bypassedOut }

// apply blends processed (in the out frames) with the raw input frames
// according to the current fade. No-op while fully active; full copy
// while fully bypassed.
func (c *bypassCrossfader) apply(out, raw [][]float32) {
	switch c.state {
	case bypassActive:
		return

	case bypassedOut:
		for ch := range out {
			copy(out[ch], raw[ch])
		}
		return
	}

	// Mid-fade: equal-power sin/cos ramp across the frame. wet is the
	// processed signal, dry the raw input.
	frameLen := len(out[0])
	fadingOut := c.state == bypassFadingOut
	pos := c.pos
	for k := 0; k < frameLen; k++ {
		t := float64(pos) / float64(c.span)
		if t > 1 {
			t = 1
		}
		var wet, dry float64
		if fadingOut {
			wet = math.Cos(t * math.Pi / 2)
			dry = math.Sin(t * math.Pi / 2)
		} else {
			wet = math.Sin(t * math.Pi / 2)
			dry = math.Cos(t * math.Pi / 2)
		}
		for ch := range out {
			out[ch][k] = float32(float64(out[ch][k])*wet + float64(raw[ch][k])*dry)
		}
		if pos < c.span {
			pos++
		}
	}
	c.pos = pos

	if c.pos >= c.span {
		if fadingOut {
			c.state = bypassedOut
		} else {
			c.state = bypassActive
		}
	}
}
