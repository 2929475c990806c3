package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"hydra/internal/driver"
)

const maxCellWidth = 48

// printSpecializations writes one row per specialization:
//
//	id  signature          parent      sites
func printSpecializations(out io.Writer, res *driver.UnitResult) {
	doc := res.Document()
	if len(doc.Specializations) == 0 {
		return
	}
	rows := [][]string{{"id", "signature", "parent", "sites"}}
	for _, s := range doc.Specializations {
		parent := s.Parent
		if parent == "" {
			parent = "-"
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Signature,
			parent,
			strconv.Itoa(s.Sites),
		})
	}
	fmt.Fprintln(out, headerColor.Sprintf("specializations of %s:", res.Unit))
	writeTable(out, rows)
}

func writeTable(out io.Writer, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(truncate(cell, maxCellWidth)))
		}
	}
	for r, row := range rows {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range row {
			cell = truncate(cell, maxCellWidth)
			if i < len(row)-1 {
				cell = runewidth.FillRight(cell, widths[i]+2)
			}
			b.WriteString(cell)
		}
		line := strings.TrimRight(b.String(), " ")
		if r == 0 {
			line = headerColor.Sprint(line)
		}
		fmt.Fprintln(out, line)
	}
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "...")
}

func printTimings(out io.Writer, res *driver.UnitResult) {
	fmt.Fprintf(out, "timings %s: total %.2f ms\n", res.Unit, res.Timing.TotalMS)
	for _, p := range res.Timing.Phases {
		fmt.Fprintf(out, "  %-10s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(out, "  // %s", p.Note)
		}
		fmt.Fprintln(out)
	}
}

func printSummary(out io.Writer, units, failed int) {
	if failed == 0 {
		fmt.Fprintf(out, "checked %d unit(s): ok\n", units)
		return
	}
	fmt.Fprintf(out, "checked %d unit(s): %s\n", units, errorColor.Sprintf("%d with errors", failed))
}
