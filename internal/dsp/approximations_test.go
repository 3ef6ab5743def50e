package dsp

import (
	"math"
	"testing"
)

func TestFastLog2Accuracy(t *testing.T) {
	// The quintic fit is biased slightly high near the bottom of the
	// mantissa range; 0.07 bounds the worst case across all octaves.
	worst := 0.0
	for x := 0.001; x < 100; x *= 1.013 {
		err := math.Abs(FastLog2(x) - math.Log2(x))
		if err > worst {
			worst = err
		}
	}
	if worst > 0.07 {
		t.Errorf("worst FastLog2 error = %v, want <= 0.07", worst)
	}
}

func TestFastLog2NonPositive(t *testing.T) {
	for _, x := range []float64{0, -1, -1e-9} {
		if got := FastLog2(x); !math.IsInf(got, -1) {
			t.Errorf("FastLog2(%v) = %v, want -Inf", x, got)
		}
	}
}

func TestFastLinearToDb(t *testing.T) {
	// Metering only needs half-dB agreement with the exact conversion.
	worst := 0.0
	for linear := 1e-5; linear <= 2.0; linear *= 1.07 {
		err := math.Abs(FastLinearToDb(linear) - LinearToDb(linear))
		if err > worst {
			worst = err
		}
	}
	if worst > 0.5 {
		t.Errorf("worst FastLinearToDb error = %v dB, want <= 0.5", worst)
	}
}

func TestFastLinearToDbSilenceFloor(t *testing.T) {
	if got := FastLinearToDb(0); got != -120 {
		t.Errorf("FastLinearToDb(0) = %v, want -120", got)
	}
	if got := FastLinearToDb(-0.5); got != -120 {
		t.Errorf("FastLinearToDb(-0.5) = %v, want -120", got)
	}
}
