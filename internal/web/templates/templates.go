// Package templates renders the HTML pages of the web UI as templ
// components. The *_templ.go files are generated from the .templ sources
// with `templ generate`.
package templates

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/table"
)

// PageData is everything the main page shows.
type PageData struct {
	Files    []*core.FileView
	Notices  []string
	Error    *core.UserMessage
	MaxFiles int
}

var exportFormats = []table.Format{table.FormatCSV, table.FormatXLSX}

// selected reports whether col is part of the projection. A nil selection
// means every column.
func selected(opts core.Options, col string) bool {
	return opts.Columns == nil || slices.Contains(opts.Columns, col)
}

// columnOrder lists the selected columns in their chosen order, followed
// by the unselected ones in table order.
func columnOrder(f core.FileInfo) []string {
	if f.Options.Columns == nil {
		return f.Columns
	}
	out := make([]string, 0, len(f.Columns))
	for _, c := range f.Options.Columns {
		if slices.Contains(f.Columns, c) {
			out = append(out, c)
		}
	}
	for _, c := range f.Columns {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func fileMeta(f core.FileInfo) string {
	return fmt.Sprintf("%s · %d rows · %d columns", humanSize(f.Size), f.Rows, len(f.Columns))
}

func uploadLabel(maxFiles int) string {
	if maxFiles > 0 {
		return "Upload CSV or Excel files (up to " + strconv.Itoa(maxFiles) + " at once)"
	}
	return "Upload CSV or Excel files"
}

func downloadURL(v *core.FileView) string {
	return "/files/" + v.File.ID + "/download?format=" + string(v.File.Options.Format)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
