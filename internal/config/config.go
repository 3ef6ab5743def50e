// Package config loads and saves processing presets. A preset is a
// YAML file holding the full parameter surface; applying one is a
// sequence of atomic setter calls, safe while audio is running.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/voidmic/internal/processor"
)

// Preset is the serialised form of the parameter surface. Zero values
// are meaningful (0 dB EQ, bypass off), so Load starts from Default and
// lets the file override.
type Preset struct {
	Enabled    bool `yaml:"enabled"`
	Bypass     bool `yaml:"bypass"`
	EchoCancel bool `yaml:"echo_cancel"`
	HumFilter  bool `yaml:"hum_filter"`

	Gate struct {
		Enabled          bool    `yaml:"enabled"`
		ThresholdDB      float32 `yaml:"threshold_db"`
		DynamicThreshold bool    `yaml:"dynamic_threshold"`
		AttackMs         float32 `yaml:"attack_ms"`
		ReleaseMs        float32 `yaml:"release_ms"`
		HangMs           float32 `yaml:"hang_ms"`
	} `yaml:"gate"`

	Denoise struct {
		BlendRatio float32 `yaml:"blend_ratio"`
	} `yaml:"denoise"`

	EQ struct {
		LowDB  float32 `yaml:"low_db"`
		MidDB  float32 `yaml:"mid_db"`
		HighDB float32 `yaml:"high_db"`
	} `yaml:"eq"`

	AGC struct {
		Enabled   bool    `yaml:"enabled"`
		TargetDB  float32 `yaml:"target_db"`
		MaxGainDB float32 `yaml:"max_gain_db"`
	} `yaml:"agc"`
}

// Default returns a preset mirroring the engine defaults.
func Default() Preset {
	var p Preset
	p.Enabled = true
	p.Gate.Enabled = true
	p.Gate.ThresholdDB = processor.DefaultGateThresholdDB
	p.Gate.AttackMs = processor.DefaultAttackMs
	p.Gate.ReleaseMs = processor.DefaultReleaseMs
	p.Gate.HangMs = processor.DefaultHangMs
	p.Denoise.BlendRatio = processor.DefaultBlendRatio
	p.AGC.TargetDB = processor.DefaultAGCTargetDB
	p.AGC.MaxGainDB = processor.DefaultAGCMaxGainDB
	return p
}

// Load reads a preset file. A missing file returns the defaults with
// no error, so first runs work without any setup.
func Load(path string) (Preset, error) {
	preset := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return preset, nil
	}
	if err != nil {
		return preset, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return preset, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return preset, nil
}

// Save writes the preset, creating parent directories as needed.
func Save(path string, preset Preset) error {
	data, err := yaml.Marshal(preset)
	if err != nil {
		return fmt.Errorf("config: encode preset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create preset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the per-user preset location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "voidmic.yaml"
	}
	return filepath.Join(dir, "voidmic", "preset.yaml")
}

// Apply pushes every preset value into the parameter surface. Values
// out of range are clamped by the setters.
func (p Preset) Apply(params *processor.Params) {
	params.SetEnabled(p.Enabled)
	params.SetBypass(p.Bypass)
	params.SetEchoCancel(p.EchoCancel)
	params.SetHumFilter(p.HumFilter)

	params.SetGateEnabled(p.Gate.Enabled)
	params.SetGateThresholdDB(p.Gate.ThresholdDB)
	params.SetDynamicThreshold(p.Gate.DynamicThreshold)
	params.SetAttackMs(p.Gate.AttackMs)
	params.SetReleaseMs(p.Gate.ReleaseMs)
	params.SetHangMs(p.Gate.HangMs)

	params.SetBlendRatio(p.Denoise.BlendRatio)
	params.SetEQGainsDB(p.EQ.LowDB, p.EQ.MidDB, p.EQ.HighDB)

	params.SetAGCEnabled(p.AGC.Enabled)
	params.SetAGCTargetDB(p.AGC.TargetDB)
	params.SetAGCMaxGainDB(p.AGC.MaxGainDB)
}

// Snapshot captures the current parameter surface as a preset, the
// inverse of Apply.
func Snapshot(params *processor.Params) Preset {
	var p Preset
	p.Enabled = params.Enabled()
	p.Bypass = params.Bypass()
	p.EchoCancel = params.EchoCancel()
	p.HumFilter = params.HumFilter()

	p.Gate.Enabled = params.GateEnabled()
	p.Gate.ThresholdDB = params.GateThresholdDB()
	p.Gate.DynamicThreshold = params.DynamicThreshold()
	p.Gate.AttackMs = params.AttackMs()
	p.Gate.ReleaseMs = params.ReleaseMs()
	p.Gate.HangMs = params.HangMs()

	p.Denoise.BlendRatio = params.BlendRatio()
	p.EQ.LowDB, p.EQ.MidDB, p.EQ.HighDB = params.EQGainsDB()

	p.AGC.Enabled = params.AGCEnabled()
	p.AGC.TargetDB = params.AGCTargetDB()
	p.AGC.MaxGainDB = params.AGCMaxGainDB()
	return p
}
