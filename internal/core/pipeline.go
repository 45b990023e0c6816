package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabclean/internal/chart"
	"github.com/JonMunkholm/tabclean/internal/table"
)

// PipelineResult is the outcome of RunPipeline.
type PipelineResult struct {
	Stages []Stage

	// Final is the table after every enabled step; exports and charts use it.
	Final *table.Table

	Removed int
	Fill    *table.FillReport

	// ChartColumns are the columns a chart of Final would plot.
	ChartColumns []string
}

// RunPipeline applies opts to original and records a preview of previewRows
// rows after each step. original is not modified.
func RunPipeline(original *table.Table, opts Options, previewRows int) (*PipelineResult, error) {
	res := &PipelineResult{}
	current := original

	res.Stages = append(res.Stages, Stage{
		Name:    StagePreview,
		Message: fmt.Sprintf("%d rows, %d columns", current.NumRows(), current.NumCols()),
		Preview: current.Head(previewRows),
	})

	if opts.RemoveDuplicates {
		current, res.Removed = current.DropDuplicates()
		res.Stages = append(res.Stages, Stage{
			Name:    StageDuplicates,
			Message: fmt.Sprintf("%d duplicate %s removed", res.Removed, plural(res.Removed, "row", "rows")),
			Preview: current.Head(previewRows),
		})
	}

	if opts.FillMissing {
		var report table.FillReport
		current, report = current.FillMissingMean()
		res.Fill = &report
		res.Stages = append(res.Stages, Stage{
			Name:    StageFilled,
			Message: fillMessage(report),
			Preview: current.Head(previewRows),
		})
	}

	// The projection stage is always shown; a nil selection keeps every
	// column.
	if opts.Columns != nil {
		projected, err := current.Select(opts.Columns)
		if err != nil {
			return nil, err
		}
		current = projected
	}
	res.Stages = append(res.Stages, Stage{
		Name:    StageSelected,
		Message: fmt.Sprintf("%d of %d columns", current.NumCols(), original.NumCols()),
		Preview: current.Head(previewRows),
	})

	res.Final = current
	res.ChartColumns = chart.Columns(current)
	return res, nil
}

func fillMessage(r table.FillReport) string {
	var b strings.Builder
	n := r.CellsFilled()
	fmt.Fprintf(&b, "%d missing %s filled", n, plural(n, "cell", "cells"))
	if len(r.Filled) > 0 {
		parts := make([]string, len(r.Filled))
		for i, f := range r.Filled {
			parts[i] = fmt.Sprintf("%s = %s", f.Column, table.FormatValue(f.Mean))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if len(r.Unfilled) > 0 {
		fmt.Fprintf(&b, "; no values to average in %s", strings.Join(r.Unfilled, ", "))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
