package dataprep

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DropMissing removes rows where any of cols is missing.
func DropMissing(df dataframe.DataFrame, cols ...string) (dataframe.DataFrame, error) {
	if err := requireColumns(df, cols...); err != nil {
		return df, err
	}
	check := make([]series.Series, len(cols))
	for i, c := range cols {
		check[i] = df.Col(c)
	}
	keep := make([]int, 0, df.Nrow())
rows:
	for i := 0; i < df.Nrow(); i++ {
		for _, s := range check {
			if s.Elem(i).IsNA() {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	if len(keep) == df.Nrow() {
		return df, nil
	}
	return takeRows(df, keep)
}

// FilterYears keeps rows with min <= col <= max. A zero bound is open.
// Rows with a missing year are dropped.
func FilterYears(df dataframe.DataFrame, col string, min, max int) (dataframe.DataFrame, error) {
	years, err := Floats(df, col)
	if err != nil {
		return df, err
	}
	keep := make([]int, 0, len(years))
	for i, y := range years {
		if math.IsNaN(y) {
			continue
		}
		if min != 0 && y < float64(min) {
			continue
		}
		if max != 0 && y > float64(max) {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == df.Nrow() {
		return df, nil
	}
	return takeRows(df, keep)
}

// LeakMarkers are substrings of column names derived from, or measured
// together with, the emissions target.
var LeakMarkers = []string{
	"co2", "ghg", "greenhouse_gas", "change",
	"nitrous_oxide", "methane", "ch4", "n2o",
}

// IsLeak reports whether name contains a leak marker.
func IsLeak(name string) bool {
	for _, m := range LeakMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// DropLeakColumns drops every leak column except target.
func DropLeakColumns(df dataframe.DataFrame, target string) (dataframe.DataFrame, error) {
	var drop []string
	for _, name := range df.Names() {
		if name != target && IsLeak(name) {
			drop = append(drop, name)
		}
	}
	return dropColumns(df, drop)
}

// NormalizeColumnName lower-cases name, spells out "%" and collapses every
// run of other punctuation or whitespace into a single underscore. Hyphens
// between digits ("0-4") and "+" ("65+") are kept so age buckets stay legible.
func NormalizeColumnName(name string) string {
	src := []rune(strings.ToLower(strings.ReplaceAll(name, "%", " percent ")))
	var sb strings.Builder
	pendingSep := false
	for i, r := range src {
		keep := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+'
		if r == '-' && i > 0 && i+1 < len(src) && unicode.IsDigit(src[i-1]) && unicode.IsDigit(src[i+1]) {
			keep = true
		}
		if !keep {
			pendingSep = true
			continue
		}
		if pendingSep && sb.Len() > 0 {
			sb.WriteByte('_')
		}
		pendingSep = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// NormalizeColumnNames applies NormalizeColumnName to every column. Names that
// collide after normalization get a numeric suffix in column order.
func NormalizeColumnNames(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := df.Names()
	seen := make(map[string]bool, len(names))
	suffix := make(map[string]int)
	cols := make([]series.Series, len(names))
	for i, name := range names {
		base := NormalizeColumnName(name)
		if base == "" {
			base = "column"
		}
		norm := base
		for seen[norm] {
			suffix[base]++
			norm = base + "_" + strconv.Itoa(suffix[base])
		}
		seen[norm] = true
		s := df.Col(name)
		s.Name = norm
		cols[i] = s
	}
	out := dataframe.New(cols...)
	return out, out.Err
}

// Placeholders are non-numeric cell values published in place of a number.
var Placeholders = map[string]bool{
	"": true, "..": true, "...": true, "-": true, "--": true, "—": true,
	"n/a": true, "na": true, "nan": true, "null": true, "none": true,
	"x": true, "?": true,
}

// ParseNumber parses a published number, tolerating thousands separators,
// surrounding whitespace and a trailing percent sign. Placeholders and
// anything unparsable or non-finite ("inf", "-Infinity") return NaN.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if Placeholders[strings.ToLower(s)] {
		return math.NaN()
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// CoerceNumeric converts every column not listed in keep to Float. Int, Bool
// and Float columns convert directly; String columns go through ParseNumber.
// Infinite values become missing either way.
func CoerceNumeric(df dataframe.DataFrame, keep ...string) (dataframe.DataFrame, error) {
	skip := toSet(keep)
	names := df.Names()
	cols := make([]series.Series, len(names))
	for i, name := range names {
		s := df.Col(name)
		if skip[name] {
			cols[i] = s
			continue
		}
		vals := make([]float64, s.Len())
		for r := range vals {
			e := s.Elem(r)
			switch {
			case e.IsNA():
				vals[r] = math.NaN()
			case s.Type() == series.String:
				vals[r] = ParseNumber(e.String())
			default:
				vals[r] = e.Float()
			}
			if math.IsInf(vals[r], 0) {
				vals[r] = math.NaN()
			}
		}
		cols[i] = floatSeries(vals, name)
	}
	out := dataframe.New(cols...)
	return out, out.Err
}

// MissingRatio returns the share of missing cells in a column.
func MissingRatio(s series.Series) float64 {
	if s.Len() == 0 {
		return 0
	}
	missing := 0
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			missing++
		}
	}
	return float64(missing) / float64(s.Len())
}

// DropSparseColumns drops columns whose missing ratio exceeds maxMissing,
// except those listed in keep. A maxMissing of 1 or more keeps everything.
func DropSparseColumns(df dataframe.DataFrame, maxMissing float64, keep ...string) (dataframe.DataFrame, []string, error) {
	if maxMissing >= 1 {
		return df, nil, nil
	}
	protected := toSet(keep)
	var drop []string
	for _, name := range df.Names() {
		if protected[name] {
			continue
		}
		if MissingRatio(df.Col(name)) > maxMissing {
			drop = append(drop, name)
		}
	}
	out, err := dropColumns(df, drop)
	return out, drop, err
}
