package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabclean/internal/table"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    table.Format
		wantExt string
		wantErr bool
	}{
		{"data.csv", table.FormatCSV, "csv", false},
		{"DATA.CSV", table.FormatCSV, "CSV", false},
		{"sales.2024.xlsx", table.FormatXLSX, "xlsx", false},
		{"notes.txt", "", "txt", true},
		{"legacy.xls", "", "xls", true},
		{"README", "", "README", true},
		{"trailing.", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ext, err := DetectFormat(tt.name)
			assert.Equal(t, tt.wantExt, ext)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"blank", []string{"a", "", " "}, []string{"a", "Unnamed: 1", "Unnamed: 2"}},
		{"repeats", []string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{"repeat collides with existing", []string{"a", "a.1", "a"}, []string{"a", "a.1", "a.2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeHeader(tt.in))
		})
	}
}

func TestParseCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("basic", func(t *testing.T) {
		tbl, err := Parse(ctx, "data.csv", strings.NewReader("name,value\na,1\na,1\nb,2\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "value"}, tbl.Columns())
		assert.Equal(t, 3, tbl.NumRows())
		assert.Equal(t, []string{"value"}, tbl.NumericColumns())
	})

	t.Run("short rows padded, blank lines skipped", func(t *testing.T) {
		tbl, err := Parse(ctx, "data.csv", strings.NewReader("a,b,c\n1,2\n\n4,5,6\n"))
		require.NoError(t, err)
		_, rows := tbl.Records()
		assert.Equal(t, [][]string{{"1", "2", ""}, {"4", "5", "6"}}, rows)
	})

	t.Run("BOM and quoted fields", func(t *testing.T) {
		in := "\xEF\xBB\xBFcity,note\n\"Paris\",\"has, comma\"\n"
		tbl, err := Parse(ctx, "data.csv", strings.NewReader(in))
		require.NoError(t, err)
		header, rows := tbl.Records()
		assert.Equal(t, []string{"city", "note"}, header)
		assert.Equal(t, [][]string{{"Paris", "has, comma"}}, rows)
	})

	t.Run("header only", func(t *testing.T) {
		tbl, err := Parse(ctx, "data.csv", strings.NewReader("a,b\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, tbl.NumRows())
		assert.Equal(t, 2, tbl.NumCols())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse(ctx, "data.csv", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("row wider than header", func(t *testing.T) {
		_, err := Parse(ctx, "data.csv", strings.NewReader("a,b\n1,2,3\n"))
		assert.ErrorIs(t, err, ErrInvalidCSV)
	})

	t.Run("too large", func(t *testing.T) {
		p := Parser{MaxBytes: 8}
		_, err := p.Parse(ctx, "data.csv", strings.NewReader("a,b\n1,2\n3,4\n5,6\n"))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	ctx := context.Background()

	t.Run("basic", func(t *testing.T) {
		data := workbook(t, [][]any{
			{"name", "value"},
			{"a", 1.5},
			{"b", nil},
			{"c", 3},
		})

		tbl, err := Parse(ctx, "sales.xlsx", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "value"}, tbl.Columns())
		assert.Equal(t, 3, tbl.NumRows())
		assert.True(t, tbl.IsNumeric("value"))

		v, err := tbl.Cell(1, "value")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("cells beyond header", func(t *testing.T) {
		data := workbook(t, [][]any{
			{"a"},
			{1, 2},
		})

		tbl, err := Parse(ctx, "wide.xlsx", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "Unnamed: 1"}, tbl.Columns())
	})

	t.Run("dates and booleans are not numeric", func(t *testing.T) {
		data := workbook(t, [][]any{
			{"when", "flag", "n"},
			{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true, 1},
			{time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), false, 2},
		})

		tbl, err := Parse(ctx, "typed.xlsx", bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"n"}, tbl.NumericColumns())

		typ, err := tbl.ColumnType("flag")
		require.NoError(t, err)
		assert.Equal(t, table.TypeBool, typ)

		_, rows := tbl.Records()
		assert.Equal(t, [][]string{
			{"2024-01-02", "true", "1"},
			{"2024-03-04 09:30:00", "false", "2"},
		}, rows)
	})

	t.Run("empty workbook", func(t *testing.T) {
		data := workbook(t, nil)
		_, err := Parse(ctx, "empty.xlsx", bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := Parse(ctx, "fake.xlsx", strings.NewReader("a,b\n1,2\n"))
		assert.ErrorIs(t, err, ErrInvalidSpreadsheet)
	})
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"h:mm AM/PM", true},
		{"0.00", false},
		{"#,##0", false},
		{`0.0 "days"`, false},
		{"[Red]0.00", false},
		{`0\d`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDateFormatCode(tt.code), tt.code)
	}
}

func TestParseBatch(t *testing.T) {
	data := workbook(t, [][]any{{"region", "total"}, {"north", 10}})

	res, err := Parser{}.ParseBatch(context.Background(), []File{
		{Name: "sales.xlsx", Reader: bytes.NewReader(data)},
		{Name: "notes.txt", Reader: strings.NewReader("hello")},
	})
	require.NoError(t, err)

	require.Len(t, res.Parsed, 1)
	assert.Equal(t, "sales.xlsx", res.Parsed[0].Name)
	assert.Equal(t, table.FormatXLSX, res.Parsed[0].Format)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "Unsupported file format: txt", res.Skipped[0].Message())
}

func TestParseBatch_ParseFailureAborts(t *testing.T) {
	_, err := Parser{}.ParseBatch(context.Background(), []File{
		{Name: "ok.csv", Reader: strings.NewReader("a\n1\n")},
		{Name: "bad.csv", Reader: strings.NewReader("a\n1,2\n")},
	})
	assert.ErrorIs(t, err, ErrInvalidCSV)
}
