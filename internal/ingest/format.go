package ingest

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// Extension returns the text after the final "." in name, or the whole
// name when it contains no dot.
func Extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DetectFormat picks the parser for name by its extension alone, ignoring
// case. The extension is returned even when unsupported so callers can
// report it.
func DetectFormat(name string) (table.Format, string, error) {
	ext := Extension(name)
	switch strings.ToLower(ext) {
	case "csv":
		return table.FormatCSV, ext, nil
	case "xlsx":
		return table.FormatXLSX, ext, nil
	default:
		return "", ext, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// UnsupportedMessage is the notice shown for a skipped file.
func UnsupportedMessage(ext string) string {
	return "Unsupported file format: " + ext
}
