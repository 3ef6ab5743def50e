// Package ui provides the Bubbletea terminal interface for live
// monitoring: level meter, gate state, noise floor and spectrum, with
// key bindings driving the parameter surface.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/voidmic/internal/logging"
	"github.com/linuxmatters/voidmic/internal/processor"
)

// refreshInterval is the UI poll rate. Updates arrive at frame rate on
// the channels; 30 Hz rendering is plenty and keeps terminal load low.
const refreshInterval = 33 * time.Millisecond

// thresholdStepDB is the keyboard adjustment step for the gate
// threshold.
const thresholdStepDB = 1.0

// Model is the Bubbletea model for the live monitor.
type Model struct {
	params  *processor.Params
	updates <-chan processor.GateUpdate
	spectra <-chan processor.SpectrumSnapshot
	stats   *logging.SessionStats

	// Latest engine state, refreshed each poll.
	last     processor.GateUpdate
	spectrum processor.SpectrumSnapshot
	haveData bool

	calibrating bool

	Width  int
	Height int
	Done   bool
}

// NewModel wires the monitor to a running processor's publish channels
// and parameter surface. stats may be nil when no session report is
// wanted.
func NewModel(p *processor.Processor, stats *logging.SessionStats) Model {
	return Model{
		params:  p.Params(),
		updates: p.Updates(),
		spectra: p.Spectra(),
		stats:   stats,
	}
}

// tickMsg drives the poll loop.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key bindings and the poll tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		m.drainChannels()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// drainChannels consumes everything queued since the last poll,
// keeping only the newest records for display.
func (m *Model) drainChannels() {
	for {
		select {
		case u := <-m.updates:
			m.last = u
			m.haveData = true
			if u.Calibrated {
				m.calibrating = false
				m.params.SetGateThresholdDB(u.SuggestedThresholdDB)
			}
			if m.stats != nil {
				m.stats.Observe(u)
			}
		case s := <-m.spectra:
			m.spectrum = s
			if m.stats != nil {
				m.stats.ObserveSpectrum()
			}
		default:
			return
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Done = true
		return m, tea.Quit

	case "b":
		m.params.SetBypass(!m.params.Bypass())
	case "g":
		m.params.SetGateEnabled(!m.params.GateEnabled())
	case "a":
		m.params.SetAGCEnabled(!m.params.AGCEnabled())
	case "e":
		m.params.SetEchoCancel(!m.params.EchoCancel())
	case "h":
		m.params.SetHumFilter(!m.params.HumFilter())
	case "d":
		m.params.SetDynamicThreshold(!m.params.DynamicThreshold())
	case "c":
		m.calibrating = true
		m.params.StartCalibration()

	case "up":
		m.params.SetGateThresholdDB(m.params.GateThresholdDB() + thresholdStepDB)
	case "down":
		m.params.SetGateThresholdDB(m.params.GateThresholdDB() - thresholdStepDB)
	}
	return m, nil
}

// View renders the monitor.
func (m Model) View() string {
	return renderMonitor(m)
}
