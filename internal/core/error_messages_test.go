package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/tabclean/internal/chart"
	"github.com/JonMunkholm/tabclean/internal/ingest"
	"github.com/JonMunkholm/tabclean/internal/table"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"wrapped invalid csv", fmt.Errorf("parse data.csv: %w", ingest.ErrInvalidCSV), "FILE002"},
		{"invalid spreadsheet", fmt.Errorf("parse a.xlsx: %w", ingest.ErrInvalidSpreadsheet), "FILE003"},
		{"file too large", ingest.ErrFileTooLarge, "FILE001"},
		{"empty file", ingest.ErrEmptyFile, "FILE005"},
		{"unsupported", fmt.Errorf("%w: txt", ingest.ErrUnsupportedFormat), "FILE006"},
		{"no files", ErrNoFiles, "FILE004"},
		{"too many files", ErrTooManyFiles, "FILE007"},
		{"column not found", fmt.Errorf("%w: price", table.ErrColumnNotFound), "VAL005"},
		{"invalid format", table.ErrInvalidFormat, "VAL006"},
		{"duplicate column", table.ErrDuplicateColumn, "VAL007"},
		{"session", ErrSessionNotFound, "SES001"},
		{"file", ErrFileNotFound, "SES002"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"canceled", fmt.Errorf("upload: %w", context.Canceled), "UPL004"},
		{"deadline", context.DeadlineExceeded, "UPL005"},
		{"no numeric", chart.ErrNoNumericColumns, "CHT001"},
		{"pattern only", errors.New("http: request body too large"), "FILE001"},
		{"pattern is case-insensitive", errors.New("Rate Limit exceeded"), "RATE001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyUploads)
	want := "System is busy processing other uploads (Code: UPL002). Please wait a moment and try again"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ingest.ErrEmptyFile, true},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
