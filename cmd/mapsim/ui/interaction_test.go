package ui

import (
	"strings"
	"testing"
)

func TestEnvTruthy(t *testing.T) {
	for value, want := range map[string]bool{
		"1":     true,
		"true":  true,
		"YES":   true,
		" on ":  true,
		"0":     false,
		"false": false,
		"":      false,
		"maybe": false,
	} {
		t.Setenv("MAPSIM_TEST_TRUTHY", value)
		if got := envTruthy("MAPSIM_TEST_TRUTHY"); got != want {
			t.Errorf("envTruthy(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestNoInteractionErrorHint(t *testing.T) {
	err := &NoInteractionError{Hint: "use --yes to skip"}
	if !strings.Contains(err.Error(), "use --yes to skip") {
		t.Fatalf("error %q does not carry the bypass hint", err)
	}
	if msg := (&NoInteractionError{}).Error(); strings.Contains(msg, ";") {
		t.Fatalf("hintless error %q has a dangling hint separator", msg)
	}
}

func TestDecideInteractive(t *testing.T) {
	// Not a TTY under go test, so only the forced-off paths are
	// observable; they must win regardless of stderr.
	t.Setenv("NO_INTERACTION", "")
	t.Setenv("CI", "")
	t.Setenv("TERM", "xterm-256color")

	if decideInteractive(true) {
		t.Error("decideInteractive(true) = true, want false")
	}

	t.Setenv("NO_INTERACTION", "1")
	if decideInteractive(false) {
		t.Error("NO_INTERACTION=1 did not force non-interactive")
	}
	t.Setenv("NO_INTERACTION", "")

	t.Setenv("CI", "true")
	if decideInteractive(false) {
		t.Error("CI=true did not force non-interactive")
	}
	t.Setenv("CI", "")

	t.Setenv("TERM", "dumb")
	if decideInteractive(false) {
		t.Error("TERM=dumb did not force non-interactive")
	}
}
