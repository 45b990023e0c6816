package ingest

import (
	"fmt"
	"strings"
)

// normalizeHeader makes column names usable as keys: blank names become
// "Unnamed: <i>" and repeats get a ".<n>" suffix, first repeat ".1".
func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	taken := make(map[string]bool, len(cells))
	next := make(map[string]int, len(cells))

	for i, name := range cells {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if taken[name] {
			base := name
			n := next[base]
			if n == 0 {
				n = 1
			}
			for {
				name = fmt.Sprintf("%s.%d", base, n)
				n++
				if !taken[name] {
					break
				}
			}
			next[base] = n
		}

		taken[name] = true
		out[i] = name
	}
	return out
}

// padRow extends row with empty cells up to width. Rows are never
// truncated.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
