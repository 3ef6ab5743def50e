package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/voidmic/internal/logging"
	"github.com/linuxmatters/voidmic/internal/processor"
)

func newTestModel(t *testing.T) (Model, *processor.Processor) {
	t.Helper()
	p, err := processor.New(processor.Config{
		Channels:   1,
		FrameLen:   480,
		SampleRate: 48000,
	}, nil)
	if err != nil {
		t.Fatalf("processor.New failed: %v", err)
	}
	return NewModel(p, logging.NewSessionStats()), p
}

func TestModelKeyToggles(t *testing.T) {
	m, p := newTestModel(t)

	tests := []struct {
		key  string
		read func() bool
		want bool
	}{
		{"b", p.Params().Bypass, true},
		{"a", p.Params().AGCEnabled, true},
		{"e", p.Params().EchoCancel, true},
		{"h", p.Params().HumFilter, true},
		{"d", p.Params().DynamicThreshold, true},
		{"g", p.Params().GateEnabled, false}, // on by default, toggles off
	}
	for _, tt := range tests {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.key)})
		m = next.(Model)
		if got := tt.read(); got != tt.want {
			t.Errorf("key %q: state = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestModelThresholdKeys(t *testing.T) {
	m, p := newTestModel(t)
	before := p.Params().GateThresholdDB()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if got := p.Params().GateThresholdDB(); got != before+1 {
		t.Errorf("threshold after up = %v, want %v", got, before+1)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if got := p.Params().GateThresholdDB(); got != before {
		t.Errorf("threshold after down = %v, want %v", got, before)
	}
	_ = m
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !next.(Model).Done {
		t.Error("q did not mark the model done")
	}
	if cmd == nil {
		t.Error("q did not return the quit command")
	}
}

func TestModelTickDrainsUpdates(t *testing.T) {
	m, p := newTestModel(t)

	// Run a frame so an update is queued, then tick.
	in := [][]float32{make([]float32, 480)}
	out := [][]float32{make([]float32, 480)}
	if err := p.Process(in, nil, out); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if !m.haveData {
		t.Error("tick did not consume the queued update")
	}
	if cmd == nil {
		t.Error("tick did not reschedule itself")
	}

	view := m.View()
	if !strings.Contains(view, "gate") {
		t.Errorf("view missing gate line:\n%s", view)
	}
}

func TestModelViewBeforeData(t *testing.T) {
	m, _ := newTestModel(t)
	if view := m.View(); !strings.Contains(view, "waiting") {
		t.Errorf("pre-data view missing waiting notice:\n%s", view)
	}
}

func TestModelCalibrationAppliesSuggestion(t *testing.T) {
	m, p := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(Model)
	if !p.Params().Calibrating() {
		t.Fatal("c did not start calibration")
	}

	// Feed three seconds of ambience so the measurement completes,
	// then let the model drain the result.
	in := [][]float32{make([]float32, 480)}
	out := [][]float32{make([]float32, 480)}
	for i := range in[0] {
		in[0][i] = 0.02
	}
	for f := 0; f < 305; f++ {
		if err := p.Process(in, nil, out); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		next, _ = m.Update(tickMsg(time.Now()))
		m = next.(Model)
	}

	if m.calibrating {
		t.Error("model still calibrating after the window completed")
	}
	if got := p.Params().GateThresholdDB(); got == processor.DefaultGateThresholdDB {
		t.Error("suggested threshold was not applied")
	}
}
