package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabclean/internal/table"
)

func mustTable(t *testing.T, header []string, rows [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords(header, rows)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return tbl
}

func stageNames(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

func TestRunPipeline_Stages(t *testing.T) {
	tbl := mustTable(t, []string{"name", "qty"}, [][]string{{"a", "1"}, {"b", "2"}})

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"no options", DefaultOptions(), []string{StagePreview, StageSelected}},
		{"dedupe", Options{RemoveDuplicates: true}, []string{StagePreview, StageDuplicates, StageSelected}},
		{"fill", Options{FillMissing: true}, []string{StagePreview, StageFilled, StageSelected}},
		{"select", Options{Columns: []string{"qty"}}, []string{StagePreview, StageSelected}},
		{
			"all steps in order",
			Options{RemoveDuplicates: true, FillMissing: true, Columns: []string{"name"}},
			[]string{StagePreview, StageDuplicates, StageFilled, StageSelected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RunPipeline(tbl, tt.opts, 5)
			if err != nil {
				t.Fatalf("RunPipeline: %v", err)
			}
			if got := stageNames(res.Stages); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("stages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunPipeline_RemovesDuplicates(t *testing.T) {
	tbl := mustTable(t, []string{"k", "v"}, [][]string{{"a", "1"}, {"a", "1"}, {"b", "2"}})

	res, err := RunPipeline(tbl, Options{RemoveDuplicates: true}, 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}

	if res.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Removed)
	}
	want := [][]string{{"a", "1"}, {"b", "2"}}
	if got := res.Stages[1].Preview.Rows; !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if msg := res.Stages[1].Message; msg != "1 duplicate row removed" {
		t.Errorf("message = %q, want %q", msg, "1 duplicate row removed")
	}
	if tbl.NumRows() != 3 {
		t.Errorf("original modified: %d rows, want 3", tbl.NumRows())
	}
}

func TestRunPipeline_FillsMissingWithMean(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]string{{"1"}, {""}, {"3"}})

	res, err := RunPipeline(tbl, Options{FillMissing: true}, 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}

	got, err := res.Final.Float("x")
	if err != nil {
		t.Fatalf("Float: %v", err)
	}
	want := []float64{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("x = %v, want %v", got, want)
	}
	if res.Fill == nil || res.Fill.CellsFilled() != 1 {
		t.Errorf("Fill = %+v, want one cell filled", res.Fill)
	}
	if msg := res.Stages[1].Message; !strings.HasPrefix(msg, "1 missing cell filled") {
		t.Errorf("message = %q", msg)
	}
}

func TestRunPipeline_FillReportsEmptyColumns(t *testing.T) {
	tbl := mustTable(t, []string{"x", "y"}, [][]string{{"1", ""}, {"", ""}})

	res, err := RunPipeline(tbl, Options{FillMissing: true}, 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if !strings.Contains(res.Stages[1].Message, "no values to average in y") {
		t.Errorf("message = %q, want mention of y", res.Stages[1].Message)
	}
}

func TestRunPipeline_SelectsColumns(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b", "c"}, [][]string{{"1", "2", "3"}})

	res, err := RunPipeline(tbl, Options{Columns: []string{"c", "a"}}, 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if got := res.Final.Columns(); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Errorf("columns = %v, want [c a]", got)
	}
	if msg := res.Stages[1].Message; msg != "2 of 3 columns" {
		t.Errorf("message = %q, want %q", msg, "2 of 3 columns")
	}
}

func TestRunPipeline_EmptySelectionKeepsRows(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, [][]string{{"1"}, {"2"}})

	res, err := RunPipeline(tbl, Options{Columns: []string{}}, 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if res.Final.NumCols() != 0 || res.Final.NumRows() != 2 {
		t.Errorf("shape = %dx%d, want 2x0", res.Final.NumRows(), res.Final.NumCols())
	}
	if len(res.ChartColumns) != 0 {
		t.Errorf("ChartColumns = %v, want none", res.ChartColumns)
	}
}

func TestRunPipeline_UnknownColumn(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, [][]string{{"1"}})

	_, err := RunPipeline(tbl, Options{Columns: []string{"zzz"}}, 5)
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Errorf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestRunPipeline_ChartColumns(t *testing.T) {
	tbl := mustTable(t,
		[]string{"label", "a", "b", "c"},
		[][]string{{"x", "1", "2.5", "3"}},
	)

	res, err := RunPipeline(tbl, DefaultOptions(), 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(res.ChartColumns, want) {
		t.Errorf("ChartColumns = %v, want %v", res.ChartColumns, want)
	}
}

func TestRunPipeline_PreviewRowLimit(t *testing.T) {
	rows := make([][]string, 8)
	for i := range rows {
		rows[i] = []string{"v"}
	}
	tbl := mustTable(t, []string{"a"}, rows)

	res, err := RunPipeline(tbl, DefaultOptions(), 5)
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	p := res.Stages[0].Preview
	if len(p.Rows) != 5 || p.TotalRows != 8 || !p.Truncated() {
		t.Errorf("preview = %d of %d rows, want 5 of 8 truncated", len(p.Rows), p.TotalRows)
	}
}
