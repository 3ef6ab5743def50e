package processor

import "sync/atomic"

// Publish channel capacities. Small on purpose: a consumer that falls
// behind sees fresh data again within a few frames, and the audio
// thread never waits either way.
const (
	gateChannelCap     = 64
	spectrumChannelCap = 8
)

// GateUpdate is the per-frame state record published to consumers:
// gate phase and envelope, the mono level for metering, the current
// noise-floor estimate, and the suggested gate threshold in dBFS on
// the frame a calibration pass finishes (0 otherwise).
type GateUpdate struct {
	Phase      GatePhase
	Envelope   float32
	RMS        float32
	NoiseFloor float32

	// SuggestedThresholdDB carries the calibration result on the one
	// frame the measurement window completes.
	SuggestedThresholdDB float32
	Calibrated           bool
}

// publisher owns the audio-to-control channels. Sends are non-blocking:
// when a channel is full the sample is dropped and a counter bumped.
// Staleness is acceptable; blocking the audio thread is not.
type publisher struct {
	updates chan GateUpdate
	spectra chan SpectrumSnapshot

	droppedUpdates atomic.Uint64
	droppedSpectra atomic.Uint64
}

func newPublisher() *publisher {
	return &publisher{
		updates: make(chan GateUpdate, gateChannelCap),
		spectra: make(chan SpectrumSnapshot, spectrumChannelCap),
	}
}

// sendUpdate publishes a gate record without blocking.
func (p *publisher) sendUpdate(u GateUpdate) {
	select {
	case p.updates <- u:
	default:
		p.droppedUpdates.Add(1)
	}
}

// sendSpectrum publishes a snapshot without blocking.
func (p *publisher) sendSpectrum(s SpectrumSnapshot) {
	select {
	case p.spectra <- s:
	default:
		p.droppedSpectra.Add(1)
	}
}

// Dropped reports how many records were discarded because a consumer
// fell behind. Safe from any goroutine.
func (p *publisher) Dropped() (updates, spectra uint64) {
	return p.droppedUpdates.Load(), p.droppedSpectra.Load()
}
