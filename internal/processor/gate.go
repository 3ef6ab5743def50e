package processor

// GatePhase names the hysteresis state of the noise gate.
type GatePhase int32

// Gate phases, in cycle order. Re-trigger short-circuits Closing back
// to Opening without resetting the envelope.
const (
	GateClosed GatePhase = iota
	GateOpening
	GateOpen
	GateClosing
)

// String returns the phase name for logs and the UI.
func (p GatePhase) String() string {
	switch p {
	case GateClosed:
		return "closed"
	case GateOpening:
		return "opening"
	case GateOpen:
		return "open"
	case GateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// gateStateMachine produces an open/closed decision and a smoothed gain
// envelope from per-frame speech decisions. The envelope moves by at
// most one attack or release step per frame and stays in [0, 1]; the
// only discontinuity-free exception is the processor's bypass
// crossfade, which sits outside the gate.
type gateStateMachine struct {
	phase    GatePhase
	envelope float32

	// Per-frame envelope increments, derived from attack/release times
	// and the frame rate. A zero time yields a full step (instant).
	attackStep  float32
	releaseStep float32

	// Hang keeps the gate from chattering across short pauses: the
	// Closing->Closed transition requires both a finished release ramp
	// and hangFrames elapsed since the last speech frame.
	hangFrames      int
	sinceLastSpeech int

	framesPerSecond float32
}

// newGateStateMachine builds a gate in the Closed phase. framesPerSecond
// is sampleRate / frameLen.
func newGateStateMachine(framesPerSecond float32) *gateStateMachine {
	return &gateStateMachine{
		phase:           GateClosed,
		framesPerSecond: framesPerSecond,
	}
}

// setTiming recomputes the per-frame steps from millisecond settings.
// Called once per frame from the parameter snapshot; cheap enough that
// no change detection is needed.
func (g *gateStateMachine) setTiming(attackMs, releaseMs, hangMs float32) {
	g.attackStep = stepForMs(attackMs, g.framesPerSecond)
	g.releaseStep = stepForMs(releaseMs, g.framesPerSecond)
	g.hangFrames = int(hangMs / 1000 * g.framesPerSecond)
}

// stepForMs converts a ramp duration to a per-frame envelope increment.
func stepForMs(ms, framesPerSecond float32) float32 {
	frames := ms / 1000 * framesPerSecond
	if frames < 1 {
		return 1
	}
	return 1 / frames
}

// advance consumes one frame's speech decision and moves the machine
// exactly one hysteresis step. Returns the updated envelope in [0, 1].
func (g *gateStateMachine) advance(speech bool) float32 {
	if speech {
		g.sinceLastSpeech = 0
	} else {
		g.sinceLastSpeech++
	}

	switch g.phase {
	case GateClosed:
		if speech {
			g.phase = GateOpening
			g.rampUp()
		}

	case GateOpening:
		g.rampUp()
		if g.envelope >= 1 {
			g.phase = GateOpen
		}

	case GateOpen:
		if !speech {
			g.phase = GateClosing
			g.rampDown()
		}

	case GateClosing:
		if speech {
			// Re-trigger: continue the ramp from its current value
			// rather than resetting, avoiding an audible double ramp.
			g.phase = GateOpening
			g.rampUp()
			break
		}
		g.rampDown()
		if g.envelope <= 0 && g.sinceLastSpeech >= g.hangFrames {
			g.phase = GateClosed
		}
	}

	return g.envelope
}

func (g *gateStateMachine) rampUp() {
	g.envelope += g.attackStep
	if g.envelope > 1 {
		g.envelope = 1
	}
}

func (g *gateStateMachine) rampDown() {
	g.envelope -= g.releaseStep
	if g.envelope < 0 {
		g.envelope = 0
	}
}

// gain returns the current envelope without advancing the machine.
func (g *gateStateMachine) gain() float32 { return g.envelope }

// currentPhase returns the phase for publication.
func (g *gateStateMachine) currentPhase() GatePhase { return g.phase }

// reset returns the machine to Closed with a zero envelope.
func (g *gateStateMachine) reset() {
	g.phase = GateClosed
	g.envelope = 0
	g.sinceLastSpeech = 0
}
