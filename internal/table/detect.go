package table

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
)

// naToken is the cell value gota reads as missing for every series type.
const naToken = "NaN"

var missingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MissingTokens))
	for _, tok := range MissingTokens {
		m[tok] = struct{}{}
	}
	return m
}()

// IsMissingToken reports whether a raw cell value reads as missing.
func IsMissingToken(s string) bool {
	_, ok := missingSet[s]
	return ok
}

func normalizeMissing(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if IsMissingToken(v) {
			out[i] = naToken
			continue
		}
		out[i] = v
	}
	return out
}

// detectTypes picks the narrowest type that parses every non-missing cell
// of each column: int, then float, then bool, falling back to string.
// Columns with no values at all are typed as strings; Table.IsNumeric
// treats them as numeric.
func detectTypes(header []string, rows [][]string) map[string]series.Type {
	types := make(map[string]series.Type, len(header))
	for j, name := range header {
		types[name] = detectColumn(rows, j)
	}
	return types
}

func detectColumn(rows [][]string, j int) series.Type {
	isInt, isFloat, isBool := true, true, true
	seen := false

	for _, row := range rows {
		v := row[j]
		if v == naToken {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.Atoi(v); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return series.String
		}
	}

	switch {
	case !seen:
		return series.String
	case isInt:
		return series.Int
	case isFloat:
		return series.Float
	case isBool:
		return series.Bool
	default:
		return series.String
	}
}

// canonicalizeBools lower-cases the cells of bool columns in place so
// "TRUE" and "True" load the same as "true".
func canonicalizeBools(header []string, rows [][]string, types map[string]series.Type) {
	for j, name := range header {
		if types[name] != series.Bool {
			continue
		}
		for _, row := range rows {
			if row[j] != naToken {
				row[j] = strings.ToLower(row[j])
			}
		}
	}
}
