package site

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestBuiltinLookup(t *testing.T) {
	c := Builtin()

	t.Run("case insensitive", func(t *testing.T) {
		s, err := c.Lookup("mwa_128")
		if err != nil {
			t.Fatalf("Lookup(mwa_128) error = %v", err)
		}
		if s.Name != "MWA_128" {
			t.Errorf("Name = %q, want %q", s.Name, "MWA_128")
		}
		if s.Latitude != -26.7033 || s.Longitude != 116.671 {
			t.Errorf("location = (%v, %v), want (-26.7033, 116.671)", s.Latitude, s.Longitude)
		}
		if s.ArrayConfig != "mwa_128_crossdipole_gp_20110225.txt" {
			t.Errorf("ArrayConfig = %q", s.ArrayConfig)
		}
	})

	t.Run("vla d", func(t *testing.T) {
		s, err := c.Lookup("VLA_D")
		if err != nil {
			t.Fatalf("Lookup(VLA_D) error = %v", err)
		}
		if s.GHA != 16.821401853333334 {
			t.Errorf("GHA = %v, want 16.821401853333334", s.GHA)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		_, err := c.Lookup("ALMA")
		if !errors.Is(err, ErrUnknown) {
			t.Errorf("Lookup(ALMA) error = %v, want ErrUnknown", err)
		}
	})

	t.Run("names sorted", func(t *testing.T) {
		want := []string{"MWA_128", "VLA_D"}
		if got := c.Names(); !slices.Equal(got, want) {
			t.Errorf("Names() = %v, want %v", got, want)
		}
	})
}

func TestLocationArgs(t *testing.T) {
	tests := []struct {
		name string
		site Site
		want []string
	}{
		{
			name: "mwa 128",
			site: MWA128(),
			want: []string{"-26.7033", "116.671", "377.83"},
		},
		{
			name: "vla d",
			site: VLAD(),
			want: []string{"34.025778", "252.3210278", "2125.3704"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.site.LocationArgs(); !slices.Equal(got, tt.want) {
				t.Errorf("LocationArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	got := MWA128().ConfigPath(filepath.Join("/sim", "array"))
	want := filepath.Join("/sim", "array", "mwa_128_crossdipole_gp_20110225.txt")
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestMergeFile(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		c := Builtin()
		if err := c.MergeFile(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
			t.Fatalf("MergeFile() error = %v", err)
		}
	})

	t.Run("adds and overrides sites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sites.yaml")
		data := `sites:
  MWA_32:
    latitude: -26.7033
    longitude: 116.671
    height: 377.83
    gha: -7.778066666666667
    array_config: mwa_32.txt
  MWA_128:
    latitude: -26.7033
    longitude: 116.671
    height: 377.83
    gha: -7.778066666666667
    array_config: mwa_128_phase2.txt
`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		c := Builtin()
		if err := c.MergeFile(path); err != nil {
			t.Fatalf("MergeFile() error = %v", err)
		}

		added, err := c.Lookup("mwa_32")
		if err != nil {
			t.Fatalf("Lookup(mwa_32) error = %v", err)
		}
		if added.ArrayConfig != "mwa_32.txt" {
			t.Errorf("ArrayConfig = %q, want %q", added.ArrayConfig, "mwa_32.txt")
		}

		overridden, err := c.Lookup("MWA_128")
		if err != nil {
			t.Fatalf("Lookup(MWA_128) error = %v", err)
		}
		if overridden.ArrayConfig != "mwa_128_phase2.txt" {
			t.Errorf("ArrayConfig = %q, want %q", overridden.ArrayConfig, "mwa_128_phase2.txt")
		}
	})

	t.Run("site without array config rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sites.yaml")
		if err := os.WriteFile(path, []byte("sites:\n  BAD:\n    latitude: 1.0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := Builtin().MergeFile(path); err == nil {
			t.Fatal("MergeFile() expected error for missing array_config")
		}
	})
}

func TestFrequencyPlans(t *testing.T) {
	tests := []struct {
		name      string
		freqs     []float64
		wantLen   int
		wantFirst float64
		wantLast  float64
		step      float64
	}{
		{name: "low 40kHz", freqs: FreqEoRLow40kHz(), wantLen: 704, wantFirst: 138.895, wantLast: 167.015, step: 0.04},
		{name: "hi 40kHz", freqs: FreqEoRHi40kHz(), wantLen: 705, wantFirst: 167.055, wantLast: 195.215, step: 0.04},
		{name: "all 40kHz", freqs: FreqEoRAll40kHz(), wantLen: 1409, wantFirst: 138.895, wantLast: 195.215, step: 0.04},
		{name: "low 80kHz", freqs: FreqEoRLow80kHz(), wantLen: 352, wantFirst: 138.915, wantLast: 166.995, step: 0.08},
		{name: "hi 80kHz", freqs: FreqEoRHi80kHz(), wantLen: 353, wantFirst: 167.075, wantLast: 195.235, step: 0.08},
		{name: "all 80kHz", freqs: FreqEoRAll80kHz(), wantLen: 705, wantFirst: 138.915, wantLast: 195.235, step: 0.08},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.freqs) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(tt.freqs), tt.wantLen)
			}
			if tt.freqs[0] != tt.wantFirst {
				t.Errorf("first = %v, want %v", tt.freqs[0], tt.wantFirst)
			}
			last := tt.freqs[len(tt.freqs)-1]
			if math.Abs(last-tt.wantLast) > 1e-9 {
				t.Errorf("last = %v, want %v", last, tt.wantLast)
			}
			gap := tt.freqs[1] - tt.freqs[0]
			if math.Abs(gap-tt.step) > 1e-9 {
				t.Errorf("step = %v, want %v", gap, tt.step)
			}
		})
	}
}

func TestFieldCenters(t *testing.T) {
	if EoR1.RA != 60 {
		t.Errorf("EoR1.RA = %v, want 60", EoR1.RA)
	}
	if math.Abs(EoR2.RA-154.95) > 1e-9 {
		t.Errorf("EoR2.RA = %v, want 154.95", EoR2.RA)
	}
	if ZenithDec != MWA128().Latitude {
		t.Errorf("ZenithDec = %v, want the MWA latitude %v", ZenithDec, MWA128().Latitude)
	}
}
