package diag

import (
	"fmt"
	"sort"
	"strings"
)

// FormatShort renders diagnostics one per line in a stable order:
//
//	ERROR SEM3230 <path>:<start>-<end> message
//
// names maps file ids to display paths; unknown files print their numeric id.
func FormatShort(diags []Diagnostic, names func(Diagnostic) string, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	type line struct {
		sev   string
		code  string
		path  string
		start uint32
		end   uint32
		msg   string
	}
	rendered := make([]line, 0, len(diags))
	for _, d := range diags {
		path := fmt.Sprintf("#%d", d.Primary.File)
		if names != nil {
			if n := names(d); n != "" {
				path = n
			}
		}
		rendered = append(rendered, line{
			sev:   d.Severity.String(),
			code:  d.Code.ID(),
			path:  path,
			start: d.Primary.Start,
			end:   d.Primary.End,
			msg:   sanitizeMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			rendered = append(rendered, line{
				sev:   "note",
				code:  d.Code.ID(),
				path:  path,
				start: n.Span.Start,
				end:   n.Span.End,
				msg:   sanitizeMessage(n.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.path != dj.path {
			return di.path < dj.path
		}
		if di.start != dj.start {
			return di.start < dj.start
		}
		return di.end < dj.end
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d-%d %s", d.sev, d.code, d.path, d.start, d.end, d.msg)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r", " ")
	return strings.ReplaceAll(msg, "\n", " ")
}
