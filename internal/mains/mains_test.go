package mains

import "testing"

func TestFrequencyForTimezone(t *testing.T) {
	tests := []struct {
		zone string
		want int
	}{
		// 50 Hz grids
		{"Europe/London", 50},
		{"Europe/Paris", 50},
		{"Europe/Berlin", 50},
		{"Australia/Sydney", 50},
		{"Asia/Shanghai", 50},
		{"Asia/Tokyo", 50}, // mixed-grid country, 50 Hz side assumed

		// 60 Hz grids
		{"America/New_York", 60},
		{"America/Los_Angeles", 60},
		{"America/Toronto", 60},
		{"America/Mexico_City", 60},
		{"America/Bogota", 60},
		{"America/Sao_Paulo", 60},
		{"Asia/Seoul", 60},
		{"Asia/Taipei", 60},
		{"Asia/Manila", 60},

		// No country association
		{"UTC", 50},
		{"GMT", 50},
		{"Etc/UTC", 50},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			if got := FrequencyForTimezone(tt.zone); got != tt.want {
				t.Errorf("FrequencyForTimezone(%q) = %d, want %d", tt.zone, got, tt.want)
			}
		})
	}
}

func TestFrequency(t *testing.T) {
	if got := Frequency(); got != 50 && got != 60 {
		t.Errorf("Frequency() = %d, want 50 or 60", got)
	}
}

func TestFundamentalMatchesFrequency(t *testing.T) {
	if got := Fundamental(); got != float64(Frequency()) {
		t.Errorf("Fundamental() = %v, Frequency() = %d", got, Frequency())
	}
}
