package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/voidmic/internal/audio"
	"github.com/linuxmatters/voidmic/internal/cli"
	"github.com/linuxmatters/voidmic/internal/config"
	"github.com/linuxmatters/voidmic/internal/logging"
	"github.com/linuxmatters/voidmic/internal/mains"
	"github.com/linuxmatters/voidmic/internal/processor"
	"github.com/linuxmatters/voidmic/internal/ui"
)

var version = "0.1.0"

// versionFlag prints version information and exits before any command
// parsing completes, so it works without a command argument.
type versionFlag bool

func (versionFlag) BeforeApply(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface.
type CLI struct {
	Version versionFlag `short:"v" help:"Show version information"`
	Verbose bool        `help:"Enable debug logging"`
	Preset  string      `short:"p" type:"path" help:"Preset file (defaults to the per-user location)"`

	Process   ProcessCmd   `cmd:"" help:"Process a WAV file through the voice chain"`
	Monitor   MonitorCmd   `cmd:"" help:"Play a WAV file through the chain with the live monitor"`
	Calibrate CalibrateCmd `cmd:"" help:"Measure ambient noise from a WAV file and store the gate threshold"`
}

// appContext carries the pieces every command needs.
type appContext struct {
	log        *logrus.Logger
	preset     config.Preset
	presetPath string
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("voidmic"),
		kong.Description("Real-time voice conditioning: gate, denoise, EQ and AGC"),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	presetPath := cliArgs.Preset
	if presetPath == "" {
		presetPath = config.DefaultPath()
	}
	preset, err := config.Load(presetPath)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	app := &appContext{
		log:        logging.New(os.Stderr, cliArgs.Verbose),
		preset:     preset,
		presetPath: presetPath,
	}

	if err := ctx.Run(app); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// newEngine builds a processor matched to a WAV file: 10 ms frames at
// the file's rate, hum notch seeded from the local mains grid.
func newEngine(app *appContext, r *audio.Reader) (*processor.Processor, error) {
	params := processor.NewParams()
	app.preset.Apply(params)

	frameLen := r.SampleRate() / 100
	p, err := processor.New(processor.Config{
		Channels:         r.Channels(),
		FrameLen:         frameLen,
		SampleRate:       r.SampleRate(),
		HumFundamentalHz: mains.Fundamental(),
	}, params)
	if err != nil {
		return nil, err
	}

	app.log.WithFields(logrus.Fields{
		"rate":     r.SampleRate(),
		"channels": r.Channels(),
		"frame":    frameLen,
		"mains":    mains.Frequency(),
	}).Debug("engine configured")
	return p, nil
}

// ProcessCmd runs the chain over a file as fast as it will go.
type ProcessCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Input WAV file"`
	Output string `short:"o" type:"path" help:"Output WAV file (default input-processed.wav)"`
}

// Run implements the process command.
func (c *ProcessCmd) Run(app *appContext) error {
	r, err := audio.Open(c.Input)
	if err != nil {
		return err
	}
	defer r.Close()

	outPath := c.Output
	if outPath == "" {
		outPath = deriveOutputPath(c.Input)
	}
	w, err := audio.Create(outPath, r.SampleRate(), r.Channels())
	if err != nil {
		return err
	}

	p, err := newEngine(app, r)
	if err != nil {
		w.Close()
		return err
	}

	stats := logging.NewSessionStats()
	adapter := processor.NewFrameAdapter(p, 0)
	start := time.Now()

	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		// Drain state updates so the stats see the whole session.
		for {
			select {
			case u := <-p.Updates():
				stats.Observe(u)
			case <-p.Spectra():
				stats.ObserveSpectrum()
			case <-done:
				return nil
			}
		}
	})

	frameLen := p.FrameLen()
	in := make([][]float32, r.Channels())
	out := make([][]float32, r.Channels())
	for ch := range in {
		in[ch] = make([]float32, frameLen)
		out[ch] = make([]float32, frameLen)
	}

	var writeErr error
	for {
		n, err := r.ReadFrame(in)
		if err == io.EOF {
			break
		}
		if err != nil {
			writeErr = err
			break
		}
		for ch := range in {
			in[ch] = in[ch][:n]
		}
		adapter.PushPlanar(in)
		for ch := range in {
			in[ch] = in[ch][:frameLen]
		}

		for adapter.Buffered() > 0 {
			m := adapter.Pop(out)
			trimmed := make([][]float32, len(out))
			for ch := range out {
				trimmed[ch] = out[ch][:m]
			}
			if err := w.WriteFrame(trimmed); err != nil {
				writeErr = err
				break
			}
		}
		if writeErr != nil {
			break
		}
	}

	// Flush the tail: pad the final partial frame with silence, then
	// keep only the samples that came from the file.
	if tail := adapter.Pending(); writeErr == nil && tail > 0 {
		pad := make([][]float32, r.Channels())
		for ch := range pad {
			pad[ch] = make([]float32, frameLen-tail)
		}
		adapter.PushPlanar(pad)
		adapter.Pop(out)
		trimmed := make([][]float32, len(out))
		for ch := range out {
			trimmed[ch] = out[ch][:tail]
		}
		writeErr = w.WriteFrame(trimmed)
	}

	close(done)
	if err := g.Wait(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := w.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return writeErr
	}

	app.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).
		Info("processing complete")

	du, ds := p.Dropped()
	fmt.Println()
	fmt.Print(stats.Report(du, ds))
	fmt.Printf("\n%s %s\n", cli.KeyStyle.Render("Output:"), cli.ValueStyle.Render(outPath))
	return nil
}

// MonitorCmd plays a file through the chain at real-time pace with the
// interactive monitor attached.
type MonitorCmd struct {
	Input string `arg:"" type:"existingfile" help:"Input WAV file"`
	Save  bool   `help:"Save the adjusted parameters to the preset on exit"`
}

// Run implements the monitor command.
func (c *MonitorCmd) Run(app *appContext) error {
	r, err := audio.Open(c.Input)
	if err != nil {
		return err
	}
	defer r.Close()

	p, err := newEngine(app, r)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; debug logging moves to a file.
	if logFile, err := os.Create("voidmic-debug.log"); err == nil {
		app.log.SetOutput(logFile)
		defer logFile.Close()
	}

	stats := logging.NewSessionStats()
	program := tea.NewProgram(ui.NewModel(p, stats), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer program.Quit()
		return pumpFile(ctx, r, p)
	})
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})

	runErr := g.Wait()

	du, ds := p.Dropped()
	fmt.Println()
	fmt.Print(stats.Report(du, ds))

	if c.Save {
		if err := config.Save(app.presetPath, config.Snapshot(p.Params())); err != nil {
			return err
		}
		app.log.WithField("path", app.presetPath).Info("preset saved")
	}
	return runErr
}

// pumpFile feeds the processor one frame every frame interval,
// simulating a live capture stream.
func pumpFile(ctx context.Context, r *audio.Reader, p *processor.Processor) error {
	frameLen := p.FrameLen()
	interval := time.Second * time.Duration(frameLen) / time.Duration(p.SampleRate())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	in := make([][]float32, p.Channels())
	out := make([][]float32, p.Channels())
	for ch := range in {
		in[ch] = make([]float32, frameLen)
		out[ch] = make([]float32, frameLen)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := r.ReadFrame(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n < frameLen {
			for ch := range in {
				for i := n; i < frameLen; i++ {
					in[ch][i] = 0
				}
			}
		}
		if err := p.Process(in, nil, out); err != nil {
			return err
		}
	}
}

// CalibrateCmd measures ambient noise from a file and stores the
// suggested gate threshold in the preset.
type CalibrateCmd struct {
	Input string `arg:"" type:"existingfile" help:"WAV file of room tone (3+ seconds)"`
}

// Run implements the calibrate command.
func (c *CalibrateCmd) Run(app *appContext) error {
	r, err := audio.Open(c.Input)
	if err != nil {
		return err
	}
	defer r.Close()

	p, err := newEngine(app, r)
	if err != nil {
		return err
	}
	p.Params().StartCalibration()

	in := make([][]float32, r.Channels())
	out := make([][]float32, r.Channels())
	for ch := range in {
		in[ch] = make([]float32, p.FrameLen())
		out[ch] = make([]float32, p.FrameLen())
	}

	var suggested float32
	found := false
	for !found {
		n, err := r.ReadFrame(in)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if n < p.FrameLen() {
			break
		}
		if err := p.Process(in, nil, out); err != nil {
			return err
		}

	drain:
		for {
			select {
			case u := <-p.Updates():
				if u.Calibrated {
					suggested = u.SuggestedThresholdDB
					found = true
				}
			default:
				break drain
			}
		}
	}

	if !found {
		return fmt.Errorf("calibration needs at least 3 seconds of audio, %s is too short", c.Input)
	}

	app.preset.Gate.ThresholdDB = suggested
	if err := config.Save(app.presetPath, app.preset); err != nil {
		return err
	}

	fmt.Printf("%s %s\n",
		cli.KeyStyle.Render("Suggested gate threshold:"),
		cli.AccentStyle.Render(fmt.Sprintf("%.1f dBFS", suggested)))
	fmt.Printf("%s %s\n", cli.KeyStyle.Render("Preset updated:"), cli.ValueStyle.Render(app.presetPath))
	return nil
}

// deriveOutputPath turns input.wav into input-processed.wav.
func deriveOutputPath(input string) string {
	return strings.TrimSuffix(input, ".wav") + "-processed.wav"
}
