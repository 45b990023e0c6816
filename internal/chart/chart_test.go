package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabclean/internal/table"
)

func mustTable(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords(header, rows)
	require.NoError(t, err)
	return tbl
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		row    []string
		want   []string
	}{
		{"none", []string{"a", "b"}, []string{"x", "y"}, nil},
		{"one", []string{"a", "b"}, []string{"x", "1"}, []string{"b"}},
		{"first two", []string{"a", "b", "c", "d"}, []string{"1", "x", "2.5", "3"}, []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Columns(mustTable(t, tt.header, tt.row)))
		})
	}
}

func TestRenderBar(t *testing.T) {
	tbl := mustTable(t, []string{"name", "qty", "price"},
		[]string{"a", "1", "2.5"},
		[]string{"b", "", "-1"},
		[]string{"c", "3", "4"},
	)

	data, err := RenderBar(tbl, Options{Height: 300})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRenderBar_SingleColumnFlat(t *testing.T) {
	tbl := mustTable(t, []string{"v"}, []string{"0"}, []string{"0"})

	data, err := RenderBar(tbl, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderBar_MaxBars(t *testing.T) {
	rows := make([][]string, 50)
	for i := range rows {
		rows[i] = []string{"1"}
	}
	tbl, err := table.FromRecords([]string{"v"}, rows)
	require.NoError(t, err)

	small, err := RenderBar(tbl, Options{MaxBars: 40})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 40*(barWidth+barSpacing)+padding, img.Bounds().Dx())
}

func TestRenderBar_NoNumeric(t *testing.T) {
	tbl := mustTable(t, []string{"a"}, []string{"x"})

	_, err := RenderBar(tbl, Options{})
	assert.ErrorIs(t, err, ErrNoNumericColumns)
}
