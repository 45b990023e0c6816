package table

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a tabular container format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Media types sent with downloads.
const (
	MediaTypeCSV  = "text/csv"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrInvalidFormat is returned by ParseFormat for names it does not know.
var ErrInvalidFormat = errors.New("invalid export format")

// ParseFormat accepts the format names offered in the UI ("csv", "Excel")
// as well as the bare extension ("xlsx"). Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return string(f)
}

// MediaType returns the Content-Type used when serving the format.
func (f Format) MediaType() string {
	if f == FormatXLSX {
		return MediaTypeXLSX
	}
	return MediaTypeCSV
}

// Label is the human-facing name shown next to the format selector.
func (f Format) Label() string {
	if f == FormatXLSX {
		return "Excel"
	}
	return "csv"
}
