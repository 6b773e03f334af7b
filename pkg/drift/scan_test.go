package drift

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/piyanatk/mapsim/pkg/mapsrun"
	"github.com/piyanatk/mapsim/pkg/site"
)

type fakeRunner struct {
	mu          sync.Mutex
	invocations []mapsrun.Invocation
	onRun       func(mapsrun.Invocation) (mapsrun.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, inv mapsrun.Invocation) (mapsrun.Result, error) {
	f.mu.Lock()
	f.invocations = append(f.invocations, inv)
	f.mu.Unlock()
	if f.onRun != nil {
		return f.onRun(inv)
	}
	return mapsrun.Result{}, nil
}

func (f *fakeRunner) recorded() []mapsrun.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mapsrun.Invocation(nil), f.invocations...)
}

// fixedNow pins spec and log timestamps for golden comparisons.
func fixedNow() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 891234000, time.UTC)
}

func TestNew(t *testing.T) {
	tools := mapsrun.New(&fakeRunner{}, "arrays", "")

	t.Run("defaults", func(t *testing.T) {
		s, err := New(Config{TargetRA: 0.0, TargetHA: -1.0, OOBs: "oobs.txt", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.Name(), "visgen_0.00h_-1.00ha_140.000MHz_0.040kHz_2.00sec"; got != want {
			t.Errorf("name = %q, want %q", got, want)
		}
		if got, want := s.frequency, "139.98"; got != want {
			t.Errorf("frequency = %q, want %q", got, want)
		}
		if got, want := s.channel, "139.98:0.04"; got != want {
			t.Errorf("channel = %q, want %q", got, want)
		}
		if got, want := s.scanStart, "GHA -7.778067"; got != want {
			t.Errorf("scan start = %q, want %q", got, want)
		}
		if got, want := s.fovCenterRA, "23:00:00.000"; got != want {
			t.Errorf("fov center ra = %q, want %q", got, want)
		}
		if got, want := s.fovCenterDec, "-26:42:11.880000"; got != want {
			t.Errorf("fov center dec = %q, want %q", got, want)
		}
	})

	t.Run("name from sky image", func(t *testing.T) {
		s, err := New(Config{SkyImage: "maps/eor0_field.fits", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.Name(), "eor0_field"; got != want {
			t.Errorf("name = %q, want %q", got, want)
		}
	})

	t.Run("explicit name wins", func(t *testing.T) {
		s, err := New(Config{SkyImage: "eor0.fits", Name: "night1", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.Name(), "night1"; got != want {
			t.Errorf("name = %q, want %q", got, want)
		}
	})

	t.Run("explicit pointing", func(t *testing.T) {
		s, err := New(Config{
			Pointing: &Pointing{RA: "00:30:00", Dec: "-26:42:00"},
			OOBs:     "oobs.txt",
			Site:     site.MWA128(),
		}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.fovCenterRA, "00:30:00"; got != want {
			t.Errorf("fov center ra = %q, want %q", got, want)
		}
		if got, want := s.fovCenterDec, "-26:42:00"; got != want {
			t.Errorf("fov center dec = %q, want %q", got, want)
		}
	})

	t.Run("absolute scan start", func(t *testing.T) {
		s, err := New(Config{OOBs: "o", ScanStart: "2026:63:05:06:07", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.scanStart, "2026:63:05:06:07"; got != want {
			t.Errorf("scan start = %q, want %q", got, want)
		}
	})

	t.Run("channel overrides", func(t *testing.T) {
		s, err := New(Config{OOBs: "o", Frequency: 150.0, CorrChanBW: 0.08, Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got, want := s.channel, "149.96:0.08"; got != want {
			t.Errorf("channel = %q, want %q", got, want)
		}
	})

	t.Run("site required", func(t *testing.T) {
		if _, err := New(Config{OOBs: "o"}, tools); err == nil {
			t.Fatal("New accepted a config without a site")
		}
	})
}

func TestSpecText(t *testing.T) {
	tools := mapsrun.New(&fakeRunner{}, "arrays", "")
	s, err := New(Config{TargetHA: -1.0, OOBs: "oobs.txt", Site: site.MWA128()}, tools)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Now = fixedNow

	want := "# 2026-03-04 05:06:07.891234\n" +
		"# MAPS drift scan simulation\n" +
		"# name: visgen_0.00h_-1.00ha_140.000MHz_0.040kHz_2.00sec\n" +
		"# sky image: none\n" +
		"# OOB sources: oobs.txt\n" +
		"# sky uvgrid: none\n" +
		"# visibility: none\n" +
		"# uvfits: none\n" +
		"# visgen log: none\n" +
		"# visgen specification file: none\n" +
		"FOV_center_RA = 23:00:00.000\n" +
		"FOV_center_Dec = -26:42:11.880000\n" +
		"FOV_size_RA = 412530.0\n" +
		"FOV_size_Dec = 412530.0\n" +
		"Corr_int_time = 1.0\n" +
		"Corr_chan_bw = 0.04\n" +
		"Scan_start = GHA -7.778067\n" +
		"Scan_duration = 2.0\n" +
		"Channel = 139.98:0.04\n" +
		"Endscan\n\n"
	if got := s.SpecText(); got != want {
		t.Errorf("spec text = %q, want %q", got, want)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{412530.0, "412530.0"},
		{2.0, "2.0"},
		{0.04, "0.04"},
		{139.98, "139.98"},
		{-1.5, "-1.5"},
	}
	for _, c := range cases {
		if got := formatFloat(c.in); got != c.want {
			t.Errorf("formatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAppendLog(t *testing.T) {
	tools := mapsrun.New(&fakeRunner{}, "arrays", "")
	s, err := New(Config{OOBs: "o", Site: site.MWA128()}, tools)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Now = fixedNow

	s.appendLog("# remove sky.dat")
	if got, want := s.LogText(), "# 2026-03-04 05:06:07.891234\n# remove sky.dat\n"; got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestStagePreconditions(t *testing.T) {
	runner := &fakeRunner{}
	tools := mapsrun.New(runner, "arrays", t.TempDir())

	t.Run("grid without image", func(t *testing.T) {
		s, err := New(Config{OOBs: "o", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.GridImage(context.Background()); !errors.Is(err, ErrNoSkyImage) {
			t.Errorf("GridImage error = %v, want ErrNoSkyImage", err)
		}
	})

	t.Run("visgen without spec", func(t *testing.T) {
		s, err := New(Config{OOBs: "o", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.GenVisibility(context.Background()); !errors.Is(err, ErrNoSpecFile) {
			t.Errorf("GenVisibility error = %v, want ErrNoSpecFile", err)
		}
	})

	t.Run("uvfits without visibility", func(t *testing.T) {
		s, err := New(Config{OOBs: "o", Site: site.MWA128()}, tools)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := s.ToUVFITS(context.Background()); !errors.Is(err, ErrNoVisibility) {
			t.Errorf("ToUVFITS error = %v, want ErrNoVisibility", err)
		}
	})

	if got := runner.recorded(); len(got) != 0 {
		t.Errorf("runner saw %d invocations, want 0", len(got))
	}
}
