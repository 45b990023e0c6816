// Package ingest turns uploaded byte streams into tables.
//
// The parser is chosen by file extension only; content is never sniffed.
// Comma-separated text and Office Open XML workbooks are supported.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/tabclean/internal/table"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmptyFile          = errors.New("file is empty")
	ErrInvalidCSV         = errors.New("invalid csv")
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
	ErrFileTooLarge       = errors.New("file too large")
)

// checkEvery is how many rows are read between context checks.
const checkEvery = 1024

// Parser reads uploads into tables. The zero value has no size limit.
type Parser struct {
	// MaxBytes caps the raw size of a single file. Zero disables the cap.
	MaxBytes int64
}

// Parse reads r as the format implied by name using a zero Parser.
func Parse(ctx context.Context, name string, r io.Reader) (*table.Table, error) {
	return Parser{}.Parse(ctx, name, r)
}

// Parse reads r as the format implied by name.
func (p Parser) Parse(ctx context.Context, name string, r io.Reader) (*table.Table, error) {
	format, _, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var t *table.Table
	switch format {
	case table.FormatCSV:
		t, err = p.parseCSV(ctx, r)
	case table.FormatXLSX:
		t, err = p.parseXLSX(ctx, r)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// File is one upload in a batch.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Parsed is a successfully read file.
type Parsed struct {
	Name   string
	Format table.Format
	Size   int64
	Table  *table.Table
}

// Skipped is a file left out of a batch because of its extension.
type Skipped struct {
	Name      string
	Extension string
}

// Message is the notice shown to the user for the skipped file.
func (s Skipped) Message() string {
	return UnsupportedMessage(s.Extension)
}

// BatchResult is the outcome of ParseBatch.
type BatchResult struct {
	Parsed  []Parsed
	Skipped []Skipped
}

// ParseBatch parses every file independently, in order. Files with an
// unsupported extension are skipped and reported; any other failure stops
// the batch and is returned.
func (p Parser) ParseBatch(ctx context.Context, files []File) (*BatchResult, error) {
	res := &BatchResult{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		format, ext, err := DetectFormat(f.Name)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Name: f.Name, Extension: ext})
			continue
		}

		t, err := p.Parse(ctx, f.Name, f.Reader)
		if err != nil {
			return nil, err
		}
		res.Parsed = append(res.Parsed, Parsed{Name: f.Name, Format: format, Size: f.Size, Table: t})
	}
	return res, nil
}

// build turns raw rows into a table: the first row is the header, every
// other row is padded to the header width.
func build(header []string, rows [][]string) (*table.Table, error) {
	header = normalizeHeader(header)
	for i, row := range rows {
		rows[i] = padRow(row, len(header))
	}
	return table.FromRecords(header, rows)
}
