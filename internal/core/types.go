package core

import (
	"io"
	"time"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// Options are the per-file choices made in the UI.
type Options struct {
	RemoveDuplicates bool         `json:"remove_duplicates"`
	FillMissing      bool         `json:"fill_missing"`
	Columns          []string     `json:"columns"` // nil selects every column
	ShowChart        bool         `json:"show_chart"`
	Format           table.Format `json:"format"`
}

// DefaultOptions is what a freshly uploaded file starts with.
func DefaultOptions() Options {
	return Options{Format: table.FormatCSV}
}

// Stage is one step of the pipeline as shown to the user.
type Stage struct {
	Name    string        `json:"name"`
	Message string        `json:"message,omitempty"`
	Preview table.Preview `json:"preview"`
}

// Stage names, in pipeline order.
const (
	StagePreview    = "Preview"
	StageDuplicates = "Duplicates Removed"
	StageFilled     = "Missing Values filled with mean"
	StageSelected   = "Selected Columns"
)

// UploadedFile is one file of an upload request.
type UploadedFile struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// FileInfo describes a file held by a session.
type FileInfo struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Format     table.Format `json:"format"`
	Size       int64        `json:"size"`
	Rows       int          `json:"rows"`
	Columns    []string     `json:"columns"`
	UploadedAt time.Time    `json:"uploaded_at"`
	Options    Options      `json:"options"`
}

// UploadReport is the outcome of an upload request.
type UploadReport struct {
	Files   []FileInfo `json:"files"`
	Notices []string   `json:"notices,omitempty"`
}

// FileView is everything needed to render one file's panel.
type FileView struct {
	File         FileInfo `json:"file"`
	Stages       []Stage  `json:"stages"`
	ChartColumns []string `json:"chart_columns,omitempty"`
	DownloadName string   `json:"download_name"`
}
