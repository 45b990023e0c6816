package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/JonMunkholm/tabclean/internal/ingest"
	"github.com/JonMunkholm/tabclean/internal/table"
)

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// benchCSV builds a CSV with an id, a label and two numeric columns. Every
// tenth row repeats the previous one and every seventh has a missing amount.
func benchCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "label", "amount", "qty"})

	prev := []string{"0", "item-0", "0.5", "1"}
	for i := 1; i <= rows; i++ {
		if i%10 == 0 {
			_ = w.Write(prev)
			continue
		}
		row := []string{
			strconv.Itoa(i),
			"item-" + strconv.Itoa(i%50),
			strconv.FormatFloat(float64(i)*1.25, 'f', 2, 64),
			strconv.Itoa(i % 13),
		}
		if i%7 == 0 {
			row[2] = ""
		}
		_ = w.Write(row)
		prev = row
	}
	w.Flush()
	return buf.Bytes()
}

func benchTable(b *testing.B, rows int) *table.Table {
	b.Helper()
	tbl, err := ingest.Parse(context.Background(), "bench.csv", bytes.NewReader(benchCSV(rows)))
	if err != nil {
		b.Fatalf("parse: %v", err)
	}
	return tbl
}

// BenchmarkParseCSV measures ingest of a 10k row upload.
func BenchmarkParseCSV(b *testing.B) {
	data := benchCSV(10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ingest.Parse(context.Background(), "bench.csv", bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRunPipeline_AllSteps runs every step, as on each page render with
// all options enabled.
func BenchmarkRunPipeline_AllSteps(b *testing.B) {
	tbl := benchTable(b, 10000)
	opts := Options{
		RemoveDuplicates: true,
		FillMissing:      true,
		Columns:          []string{"label", "amount"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RunPipeline(tbl, opts, 5); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRunPipeline_PreviewOnly is the cost of rendering an untouched file.
func BenchmarkRunPipeline_PreviewOnly(b *testing.B) {
	tbl := benchTable(b, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RunPipeline(tbl, DefaultOptions(), 5); err != nil {
			b.Fatal(err)
		}
	}
}
