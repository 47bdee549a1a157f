package dataprep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	ErrUnknownColumn = errors.New("dataprep: unknown column")
	ErrNoKeys        = errors.New("dataprep: no join keys given")
	ErrNotNumeric    = errors.New("dataprep: column is not numeric")
)

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	for _, name := range names {
		if !hasColumn(df, name) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
	}
	return nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func elemValue(e series.Element) interface{} {
	if e.IsNA() {
		return nil
	}
	return e.Val()
}

// gather builds a series whose i-th element is s[idx[i]], or missing when
// idx[i] is negative.
func gather(s series.Series, idx []int, name string) series.Series {
	vals := make([]interface{}, len(idx))
	for i, j := range idx {
		if j >= 0 {
			vals[i] = elemValue(s.Elem(j))
		}
	}
	return series.New(vals, s.Type(), name)
}

// takeRows returns the rows of df selected by idx, in idx order.
func takeRows(df dataframe.DataFrame, idx []int) (dataframe.DataFrame, error) {
	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		cols = append(cols, gather(df.Col(name), idx, name))
	}
	out := dataframe.New(cols...)
	return out, out.Err
}

// dropColumns removes the named columns, ignoring names that are not present.
func dropColumns(df dataframe.DataFrame, names []string) (dataframe.DataFrame, error) {
	if len(names) == 0 {
		return df, nil
	}
	drop := toSet(names)
	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		if !drop[name] {
			cols = append(cols, df.Col(name))
		}
	}
	out := dataframe.New(cols...)
	return out, out.Err
}

// floatSeries builds a Float series where NaN entries are stored as missing.
func floatSeries(vals []float64, name string) series.Series {
	boxed := make([]interface{}, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			boxed[i] = v
		}
	}
	return series.New(boxed, series.Float, name)
}

// IsNumeric reports whether a column holds Float or Int values.
func IsNumeric(s series.Series) bool {
	return s.Type() == series.Float || s.Type() == series.Int
}

// Floats returns a numeric column as float64 with missing values as NaN.
func Floats(df dataframe.DataFrame, name string) ([]float64, error) {
	if err := requireColumns(df, name); err != nil {
		return nil, err
	}
	s := df.Col(name)
	if !IsNumeric(s) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	out := make([]float64, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
		} else {
			out[i] = e.Float()
		}
	}
	return out, nil
}

// Matrix extracts the named numeric columns as a row-major matrix.
func Matrix(df dataframe.DataFrame, names []string) ([][]float64, error) {
	X := make([][]float64, df.Nrow())
	for i := range X {
		X[i] = make([]float64, len(names))
	}
	for j, name := range names {
		col, err := Floats(df, name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			X[i][j] = v
		}
	}
	return X, nil
}

// WriteCSV writes df with a header row. Floats keep full precision and missing
// cells are written empty.
func WriteCSV(w io.Writer, df dataframe.DataFrame) error {
	cw := csv.NewWriter(w)
	names := df.Names()
	if err := cw.Write(names); err != nil {
		return err
	}
	cols := make([]series.Series, len(names))
	for j, name := range names {
		cols[j] = df.Col(name)
	}
	record := make([]string, len(names))
	for i := 0; i < df.Nrow(); i++ {
		for j, s := range cols {
			e := s.Elem(i)
			switch {
			case e.IsNA():
				record[j] = ""
			case s.Type() == series.Float:
				record[j] = strconv.FormatFloat(e.Float(), 'g', -1, 64)
			default:
				record[j] = e.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
