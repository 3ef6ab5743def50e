package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/voidmic/internal/processor"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	preset, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file errored: %v", err)
	}
	if preset != Default() {
		t.Error("missing file did not yield defaults")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gate: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	preset := Default()
	preset.EchoCancel = true
	preset.Gate.ThresholdDB = -55
	preset.Gate.DynamicThreshold = true
	preset.Denoise.BlendRatio = 0.6
	preset.EQ.LowDB = 3
	preset.EQ.HighDB = -2
	preset.AGC.Enabled = true
	preset.AGC.TargetDB = -16

	path := filepath.Join(t.TempDir(), "sub", "preset.yaml")
	if err := Save(path, preset); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != preset {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, preset)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	// A file setting only one value must leave the rest at defaults.
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("gate:\n  threshold_db: -60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Gate.ThresholdDB != -60 {
		t.Errorf("threshold = %v, want -60", got.Gate.ThresholdDB)
	}
	if got.Gate.ReleaseMs != processor.DefaultReleaseMs {
		t.Errorf("release = %v, want default %v", got.Gate.ReleaseMs, processor.DefaultReleaseMs)
	}
	if !got.Enabled {
		t.Error("enabled default lost")
	}
}

func TestApplySnapshotRoundTrip(t *testing.T) {
	preset := Default()
	preset.HumFilter = true
	preset.Gate.ThresholdDB = -45
	preset.Gate.AttackMs = 25
	preset.EQ.MidDB = -4
	preset.AGC.Enabled = true

	params := processor.NewParams()
	preset.Apply(params)

	if got := Snapshot(params); got != preset {
		t.Errorf("snapshot mismatch:\n got %+v\nwant %+v", got, preset)
	}
}

func TestApplyClampsOutOfRange(t *testing.T) {
	preset := Default()
	preset.Gate.ThresholdDB = -200

	params := processor.NewParams()
	preset.Apply(params)

	if got := params.GateThresholdDB(); got != processor.GateThresholdMinDB {
		t.Errorf("threshold = %v, want clamped to %v", got, processor.GateThresholdMinDB)
	}
}
