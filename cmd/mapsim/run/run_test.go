package runcmd

import "testing"

func TestRunCmdShape(t *testing.T) {
	dataDir := ""
	cmd := Cmd(&dataDir)
	if cmd.Use != "run" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Fatal("expected args validation error for positional args")
	}
}

func TestRunCmdBindsObservationFlags(t *testing.T) {
	dataDir := ""
	cmd := Cmd(&dataDir)
	flags := []string{
		"image",
		"oob",
		"ra",
		"ha",
		"site",
		"freq",
		"bw",
		"duration",
		"int-time",
		"start",
		"fov-ra",
		"fov-dec",
		"pointing-ra",
		"pointing-dec",
		"name",
		"k2jysr",
		"mpi",
		"keep-uvgrid",
		"container",
		"container-image",
		"verbose",
	}

	for _, name := range flags {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag %q", name)
		}
	}
}

func TestRunCmdRequiresInput(t *testing.T) {
	dataDir := t.TempDir()
	cmd := Cmd(&dataDir)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without --image or --oob")
	}
}
