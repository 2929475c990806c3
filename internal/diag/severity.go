package diag

import "strings"

// Severity defines the importance of a diagnostic. Only SevError fails a
// unit; warnings are dropped by the reporter when the config disables them.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity reads the word String produces, in any case. It is how the
// CLI recognises the leading word of a FormatShort line.
func ParseSeverity(word string) (Severity, bool) {
	switch strings.ToUpper(word) {
	case "INFO":
		return SevInfo, true
	case "WARNING", "WARN":
		return SevWarning, true
	case "ERROR":
		return SevError, true
	}
	return 0, false
}
