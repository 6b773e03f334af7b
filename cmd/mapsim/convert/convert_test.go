package convertcmd

import (
	"strings"
	"testing"
)

func TestConvertCmdSubcommands(t *testing.T) {
	dataDir := ""
	cmd := Cmd(&dataDir)
	if cmd.Use != "convert" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}

	subs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	for _, want := range []string{"jysr2k", "k2jysr", "jybeam2k", "k2jybeam", "beam-area", "hms", "dms", "gha"} {
		if !subs[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestConversionArgCounts(t *testing.T) {
	cases := []struct {
		cmdName string
		args    []string
	}{
		{"jysr2k", nil},
		{"k2jysr", []string{"1", "2"}},
		{"beam-area", []string{"0.5"}},
		{"hms", nil},
		{"dms", []string{"1", "2"}},
		{"gha", nil},
	}

	dataDir := ""
	parent := Cmd(&dataDir)
	for _, tc := range cases {
		sub, _, err := parent.Find([]string{tc.cmdName})
		if err != nil {
			t.Fatalf("find %s: %v", tc.cmdName, err)
		}
		if err := sub.Args(sub, tc.args); err == nil {
			t.Errorf("%s accepted %d args", tc.cmdName, len(tc.args))
		}
	}
}

func TestParseFloatRejectsText(t *testing.T) {
	if _, err := parseFloat("hours", "noon"); err == nil || !strings.Contains(err.Error(), "noon") {
		t.Errorf("parseFloat error = %v, want it to quote the input", err)
	}
	v, err := parseFloat("hours", "5.25")
	if err != nil || v != 5.25 {
		t.Errorf("parseFloat(5.25) = %v, %v", v, err)
	}
}
