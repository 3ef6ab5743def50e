package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/linuxmatters/voidmic/internal/dsp"
	"github.com/linuxmatters/voidmic/internal/processor"
)

// sessionOpeningFrames is how many initial updates form the "start of
// session" comparison column.
const sessionOpeningFrames = 500

// SessionStats accumulates per-frame engine state for the end-of-run
// report. It is fed from the consumer side of the publish channels, so
// it sees the same (possibly lossy) stream the UI does.
type SessionStats struct {
	start time.Time

	frames     int
	openFrames int

	openingFloorSum float64
	openingRMSSum   float64
	openingCount    int

	floorSum float64
	rmsSum   float64
	peakRMS  float64

	suggestedDB float32
	calibrated  bool
	spectraSeen int
}

// NewSessionStats starts a session clock.
func NewSessionStats() *SessionStats {
	return &SessionStats{start: time.Now()}
}

// Observe folds one gate update into the session totals.
func (s *SessionStats) Observe(u processor.GateUpdate) {
	s.frames++
	if u.Phase == processor.GateOpen || u.Phase == processor.GateOpening {
		s.openFrames++
	}

	rms := float64(u.RMS)
	floor := float64(u.NoiseFloor)
	if s.openingCount < sessionOpeningFrames {
		s.openingFloorSum += floor
		s.openingRMSSum += rms
		s.openingCount++
	}
	s.floorSum += floor
	s.rmsSum += rms
	if rms > s.peakRMS {
		s.peakRMS = rms
	}

	if u.Calibrated {
		s.calibrated = true
		s.suggestedDB = u.SuggestedThresholdDB
	}
}

// ObserveSpectrum counts spectrum snapshots for the throughput line.
func (s *SessionStats) ObserveSpectrum() {
	s.spectraSeen++
}

// Frames reports how many updates were observed.
func (s *SessionStats) Frames() int { return s.frames }

// Report renders the session summary table plus a throughput footer.
// droppedUpdates and droppedSpectra come from the processor's own
// counters, covering records this collector never saw.
func (s *SessionStats) Report(droppedUpdates, droppedSpectra uint64) string {
	if s.frames == 0 {
		return "no frames processed\n"
	}

	openingDiv := float64(s.openingCount)
	if openingDiv == 0 {
		openingDiv = 1
	}
	total := float64(s.frames)

	table := MetricTable{
		Headers: []string{"Opening", "Session"},
		Rows: []MetricRow{
			{
				Label: "Noise floor",
				Values: []string{
					formatMetric(dsp.LinearToDb(s.openingFloorSum/openingDiv), 1),
					formatMetric(dsp.LinearToDb(s.floorSum/total), 1),
				},
				Unit: "dBFS",
			},
			{
				Label: "Mean level",
				Values: []string{
					formatMetric(dsp.LinearToDb(s.openingRMSSum/openingDiv), 1),
					formatMetric(dsp.LinearToDb(s.rmsSum/total), 1),
				},
				Unit: "dBFS",
			},
			{
				Label:  "Peak level",
				Values: []string{"", formatMetric(dsp.LinearToDb(s.peakRMS), 1)},
				Unit:   "dBFS",
			},
			{
				Label:  "Gate open",
				Values: []string{"", formatMetric(100*float64(s.openFrames)/total, 1)},
				Unit:   "%",
			},
		},
	}

	if s.calibrated {
		table.Rows = append(table.Rows, MetricRow{
			Label:  "Calibrated threshold",
			Values: []string{"", formatMetricSigned(float64(s.suggestedDB), 1)},
			Unit:   "dBFS",
			Note:   "from ambient measurement",
		})
	}

	var sb strings.Builder
	sb.WriteString(table.String())
	fmt.Fprintf(&sb, "\n%d updates, %d spectra in %s; dropped %d/%d\n",
		s.frames, s.spectraSeen, time.Since(s.start).Round(time.Second),
		droppedUpdates, droppedSpectra)
	return sb.String()
}
