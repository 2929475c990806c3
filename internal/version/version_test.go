package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withBuild(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = origV, origC, origD })
}

func TestString(t *testing.T) {
	tests := []struct {
		name, version, commit, date string
		want                        string
	}{
		{"bare", "1.2.3", "", "", "hydra 1.2.3"},
		{"commit", "1.2.3", "abc123def4567890", "", "hydra 1.2.3 (abc123def456)"},
		{"full", "0.1.0-dev", "abc", "2026-01-15", "hydra 0.1.0-dev (abc) built 2026-01-15"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withBuild(t, tc.version, tc.commit, tc.date)
			if got := String(false); got != tc.want {
				t.Fatalf("String = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestColoredKeepsDigits(t *testing.T) {
	withBuild(t, "2.10.7-rc1", "", "")
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	if got := Colored(); got != "2.10.7-rc1" {
		t.Fatalf("Colored = %q", got)
	}
	Version = "nightly"
	if got := Colored(); !strings.HasPrefix(got, "nightly") {
		t.Fatalf("Colored = %q", got)
	}
}
