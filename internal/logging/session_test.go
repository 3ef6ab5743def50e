package logging

import (
	"strings"
	"testing"

	"github.com/linuxmatters/voidmic/internal/processor"
)

func TestSessionStatsEmpty(t *testing.T) {
	s := NewSessionStats()
	if got := s.Report(0, 0); !strings.Contains(got, "no frames") {
		t.Errorf("empty report = %q, want a no-frames notice", got)
	}
}

func TestSessionStatsGateOpenRatio(t *testing.T) {
	s := NewSessionStats()
	for i := 0; i < 100; i++ {
		phase := processor.GateClosed
		if i < 25 {
			phase = processor.GateOpen
		}
		s.Observe(processor.GateUpdate{Phase: phase, RMS: 0.05, NoiseFloor: 0.01})
	}

	report := s.Report(0, 0)
	if !strings.Contains(report, "25.0") {
		t.Errorf("report missing 25%% gate-open ratio:\n%s", report)
	}
	if s.Frames() != 100 {
		t.Errorf("frames = %d, want 100", s.Frames())
	}
}

func TestSessionStatsCalibrationRow(t *testing.T) {
	s := NewSessionStats()
	s.Observe(processor.GateUpdate{Phase: processor.GateClosed, RMS: 0.01, NoiseFloor: 0.01})

	if got := s.Report(0, 0); strings.Contains(got, "Calibrated threshold") {
		t.Error("calibration row shown without a calibration result")
	}

	s.Observe(processor.GateUpdate{
		Phase:                processor.GateClosed,
		RMS:                  0.01,
		NoiseFloor:           0.01,
		Calibrated:           true,
		SuggestedThresholdDB: -38.5,
	})
	got := s.Report(0, 0)
	if !strings.Contains(got, "Calibrated threshold") {
		t.Errorf("calibration row missing:\n%s", got)
	}
	if !strings.Contains(got, "-38.5") {
		t.Errorf("suggested threshold missing:\n%s", got)
	}
}

func TestSessionStatsDropCounters(t *testing.T) {
	s := NewSessionStats()
	s.Observe(processor.GateUpdate{Phase: processor.GateOpen, RMS: 0.1, NoiseFloor: 0.01})
	s.ObserveSpectrum()

	got := s.Report(7, 3)
	if !strings.Contains(got, "dropped 7/3") {
		t.Errorf("drop counters missing:\n%s", got)
	}
}
