package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/voidmic/internal/cli"
	"github.com/linuxmatters/voidmic/internal/dsp"
	"github.com/linuxmatters/voidmic/internal/processor"
)

// Meter geometry. The level meter spans -60 dBFS to 0 dBFS.
const (
	meterWidth  = 50
	meterMinDB  = -60.0
	spectrumRow = "▁▂▃▄▅▆▇█"
)

var (
	phaseOpenStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AA00"))
	phaseClosedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#888888"))
	phaseMovingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
	meterFillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AFAF"))
	meterOverStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D70000"))
	thresholdCaret   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("▼")
	calibratingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500")).Blink(true)
	offStateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

// renderMonitor draws the full live view.
func renderMonitor(m Model) string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render("VoidMic 🎙 live monitor"))
	b.WriteString("\n\n")

	if !m.haveData {
		b.WriteString(cli.KeyStyle.Render("waiting for audio..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(renderMeter(m))
	b.WriteString("\n")
	b.WriteString(renderGateLine(m))
	b.WriteString("\n")
	b.WriteString(renderSpectrum(m))
	b.WriteString("\n\n")
	b.WriteString(renderToggles(m))
	b.WriteString("\n")
	b.WriteString(cli.KeyStyle.Render("b bypass · g gate · a agc · e echo · h hum · d dyn-thresh · c calibrate · ↑↓ threshold · q quit"))
	b.WriteString("\n")
	return b.String()
}

// meterPosition maps a dBFS level onto the meter width.
func meterPosition(db float64) int {
	if db < meterMinDB {
		db = meterMinDB
	}
	if db > 0 {
		db = 0
	}
	return int((db - meterMinDB) / -meterMinDB * meterWidth)
}

// renderMeter draws the input level bar with the gate threshold caret
// above it.
func renderMeter(m Model) string {
	levelDB := dsp.LinearToDb(float64(m.last.RMS))
	fill := meterPosition(levelDB)

	caretPos := meterPosition(float64(m.params.GateThresholdDB()))
	caretLine := strings.Repeat(" ", 8+caretPos) + thresholdCaret

	bar := meterFillStyle.Render(strings.Repeat("█", fill)) +
		offStateStyle.Render(strings.Repeat("░", meterWidth-fill))
	if levelDB > -3 {
		bar = meterOverStyle.Render(strings.Repeat("█", fill)) +
			offStateStyle.Render(strings.Repeat("░", meterWidth-fill))
	}

	return fmt.Sprintf("%s\n%s %s %s",
		caretLine,
		cli.KeyStyle.Render("level"),
		bar,
		cli.ValueStyle.Render(fmt.Sprintf("%6.1f dBFS", levelDB)))
}

// renderGateLine shows the gate phase, envelope and noise floor.
func renderGateLine(m Model) string {
	var phase string
	switch m.last.Phase {
	case processor.GateOpen:
		phase = phaseOpenStyle.Render("OPEN   ")
	case processor.GateClosed:
		phase = phaseClosedStyle.Render("CLOSED ")
	case processor.GateOpening:
		phase = phaseMovingStyle.Render("OPENING")
	case processor.GateClosing:
		phase = phaseMovingStyle.Render("CLOSING")
	}

	floorDB := dsp.LinearToDb(float64(m.last.NoiseFloor))
	line := fmt.Sprintf("%s %s  %s %.2f  %s %6.1f dBFS",
		cli.KeyStyle.Render("gate"), phase,
		cli.KeyStyle.Render("envelope"), m.last.Envelope,
		cli.KeyStyle.Render("floor"), floorDB)

	if m.calibrating {
		line += "  " + calibratingStyle.Render("CALIBRATING")
	}
	return line
}

// renderSpectrum draws the 64-bin spectrum as one row of block glyphs.
func renderSpectrum(m Model) string {
	glyphs := []rune(spectrumRow)
	var bar strings.Builder
	for _, v := range m.spectrum.Bins {
		// Perceptual-ish scaling: spectra are peak-normalised
		// magnitudes well below 1, so stretch the low end.
		idx := int(float64(v) * 40 * float64(len(glyphs)))
		if idx >= len(glyphs) {
			idx = len(glyphs) - 1
		}
		if v == 0 {
			bar.WriteRune(' ')
			continue
		}
		bar.WriteRune(glyphs[idx])
	}
	return fmt.Sprintf("%s  %s", cli.KeyStyle.Render("freq"), cli.AccentStyle.Render(bar.String()))
}

// renderToggles shows which chain stages are active.
func renderToggles(m Model) string {
	toggle := func(name string, on bool) string {
		if on {
			return cli.AccentStyle.Render(name)
		}
		return offStateStyle.Render(name)
	}

	return strings.Join([]string{
		toggle("gate", m.params.GateEnabled()),
		toggle("agc", m.params.AGCEnabled()),
		toggle("echo", m.params.EchoCancel()),
		toggle("hum", m.params.HumFilter()),
		toggle("dyn", m.params.DynamicThreshold()),
		toggle("BYPASS", m.params.Bypass()),
	}, "  ")
}
