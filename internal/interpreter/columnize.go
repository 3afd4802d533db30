// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnize lays names out column-major in as few rows as fit within width
// display cells, columns separated by two spaces. Each row ends in a
// newline.
func columnize(names []string, width int) string {
	if len(names) == 0 {
		return ""
	}

	var b strings.Builder
	for rows := 1; rows < len(names); rows++ {
		widths, ok := columnWidths(names, rows, width)
		if ok {
			writeColumns(&b, names, rows, widths)
			return b.String()
		}
	}
	writeColumns(&b, names, len(names), []int{0})
	return b.String()
}

func columnWidths(names []string, rows, width int) ([]int, bool) {
	cols := (len(names) + rows - 1) / rows
	widths := make([]int, cols)
	total := -2
	for c := range cols {
		for r := range rows {
			if n := c*rows + r; n < len(names) {
				widths[c] = max(widths[c], runewidth.StringWidth(names[n]))
			}
		}
		total += widths[c] + 2
		if total > width {
			return nil, false
		}
	}
	return widths, true
}

func writeColumns(b *strings.Builder, names []string, rows int, widths []int) {
	for r := range rows {
		var cells []string
		for c := range widths {
			if n := c*rows + r; n < len(names) {
				cells = append(cells, runewidth.FillRight(names[n], widths[c]))
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteByte('\n')
	}
}

func sortedUnique(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
