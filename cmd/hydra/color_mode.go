package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"hydra/internal/diag"
)

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on":
		return colorOn, nil
	case "off":
		return colorOff, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func applyColorMode(value string) error {
	mode, err := readColorMode(value)
	if err != nil {
		return err
	}
	switch mode {
	case colorOn:
		color.NoColor = false
	case colorOff:
		color.NoColor = true
	default:
		color.NoColor = os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
	}
	return nil
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
)

// paintSeverity colours the leading severity word of a FormatShort line.
func paintSeverity(line string) string {
	word, rest, ok := strings.Cut(line, " ")
	if !ok {
		return line
	}
	if word == "note" {
		return noteColor.Sprint(word) + " " + rest
	}
	sev, ok := diag.ParseSeverity(word)
	if !ok {
		return line
	}
	switch sev {
	case diag.SevError:
		word = errorColor.Sprint(word)
	case diag.SevWarning:
		word = warningColor.Sprint(word)
	default:
		word = noteColor.Sprint(word)
	}
	return word + " " + rest
}
