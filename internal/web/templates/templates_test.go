package templates

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabclean/internal/core"
	"github.com/JonMunkholm/tabclean/internal/table"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func sampleView() *core.FileView {
	return &core.FileView{
		File: core.FileInfo{
			ID:      "f1",
			Name:    "sales<1>.csv",
			Size:    2048,
			Rows:    2,
			Columns: []string{"region", "amount"},
			Options: core.Options{
				Columns:   []string{"amount"},
				ShowChart: true,
				Format:    table.FormatXLSX,
			},
		},
		Stages: []core.Stage{{
			Name:    core.StagePreview,
			Message: "2 rows, 2 columns",
			Preview: table.Preview{
				Columns:   []string{"region", "amount"},
				Types:     []string{"string", "int"},
				Rows:      [][]string{{"north", "10"}},
				TotalRows: 2,
			},
		}},
		ChartColumns: []string{"amount"},
		DownloadName: "sales<1>.xlsx",
	}
}

func TestPage(t *testing.T) {
	html := renderString(t, Page(PageData{
		Files:   []*core.FileView{sampleView()},
		Notices: []string{"Unsupported file format: txt"},
	}))

	for _, want := range []string{
		"Unsupported file format: txt",
		"sales&lt;1&gt;.csv",
		`value="amount" checked`,
		"/files/f1/chart.png",
		"/files/f1/download?format=xlsx",
		"Showing 1 of 2 rows.",
		"2.0 KB",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, `value="region" checked`) {
		t.Error("unselected column rendered as checked")
	}
	if strings.Contains(html, "sales<1>") {
		t.Error("file name not escaped")
	}
}

func TestPage_Empty(t *testing.T) {
	html := renderString(t, Page(PageData{}))
	if !strings.Contains(html, "No files uploaded yet.") {
		t.Error("empty page missing placeholder")
	}
}

func TestFilePanel_NoNumericColumns(t *testing.T) {
	v := sampleView()
	v.ChartColumns = nil
	html := renderString(t, FilePanel(v))
	if !strings.Contains(html, "No numeric columns to chart.") {
		t.Error("missing no-chart message")
	}
	if strings.Contains(html, "chart.png") {
		t.Error("chart image rendered without numeric columns")
	}
}

func TestErrorAlert(t *testing.T) {
	html := renderString(t, ErrorAlert("Upload failed", "Try again", "FILE002"))
	for _, want := range []string{"Upload failed", "Try again", "FILE002"} {
		if !strings.Contains(html, want) {
			t.Errorf("alert missing %q", want)
		}
	}
}

func TestColumnOrder(t *testing.T) {
	tests := []struct {
		name string
		sel  []string
		want []string
	}{
		{"all columns", nil, []string{"a", "b", "c"}},
		{"chosen first", []string{"c", "a"}, []string{"c", "a", "b"}},
		{"none chosen", []string{}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := core.FileInfo{Columns: []string{"a", "b", "c"}, Options: core.Options{Columns: tt.sel}}
			if got := columnOrder(f); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("columnOrder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilePanel_PositionInputs(t *testing.T) {
	v := sampleView()
	html := renderString(t, FilePanel(v))
	amount := strings.Index(html, `name="column_name" value="amount"`)
	region := strings.Index(html, `name="column_name" value="region"`)
	if amount < 0 || region < 0 || amount > region {
		t.Errorf("column rows out of order: amount at %d, region at %d", amount, region)
	}
	if !strings.Contains(html, `name="column_position" min="1" value="1" aria-label="Position of amount"`) {
		t.Error("missing position input for amount")
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.in); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
