package dataprep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// JoinKind selects which unmatched rows a join keeps.
type JoinKind int

const (
	// JoinInner keeps only rows whose keys appear on both sides.
	JoinInner JoinKind = iota
	// JoinLeft keeps every left row; right columns are missing when unmatched.
	JoinLeft
	// JoinOuter additionally appends unmatched right rows.
	JoinOuter
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "left"
	case JoinOuter:
		return "outer"
	default:
		return "inner"
	}
}

// ParseJoinKind accepts "inner", "left" or "outer".
func ParseJoinKind(s string) (JoinKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inner":
		return JoinInner, nil
	case "left":
		return JoinLeft, nil
	case "outer":
		return JoinOuter, nil
	}
	return JoinInner, fmt.Errorf("dataprep: unknown join kind %q", s)
}

// Join matches rows of left and right on equal keys using a hash index of the
// right frame. Left row order is preserved and a left row matching several
// right rows is repeated once per match. Rows with a missing key never match.
// Right-hand columns whose name already exists on the left are not copied.
func Join(left, right dataframe.DataFrame, how JoinKind, keys ...string) (dataframe.DataFrame, error) {
	if len(keys) == 0 {
		return dataframe.DataFrame{}, ErrNoKeys
	}
	if err := requireColumns(left, keys...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("left: %w", err)
	}
	if err := requireColumns(right, keys...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("right: %w", err)
	}

	leftKeys := keyStrings(left, keys)
	rightKeys := keyStrings(right, keys)

	index := make(map[string][]int, len(rightKeys))
	for j, k := range rightKeys {
		if k != "" {
			index[k] = append(index[k], j)
		}
	}

	var lIdx, rIdx []int
	matched := make([]bool, len(rightKeys))
	for i, k := range leftKeys {
		if rows, ok := index[k]; ok && k != "" {
			for _, j := range rows {
				lIdx = append(lIdx, i)
				rIdx = append(rIdx, j)
				matched[j] = true
			}
			continue
		}
		if how != JoinInner {
			lIdx = append(lIdx, i)
			rIdx = append(rIdx, -1)
		}
	}
	if how == JoinOuter {
		for j, ok := range matched {
			if !ok {
				lIdx = append(lIdx, -1)
				rIdx = append(rIdx, j)
			}
		}
	}

	isKey := toSet(keys)
	leftNames := left.Names()
	onLeft := toSet(leftNames)

	cols := make([]series.Series, 0, left.Ncol()+right.Ncol())
	for _, name := range leftNames {
		col := gather(left.Col(name), lIdx, name)
		if isKey[name] && how == JoinOuter {
			col = coalesce(col, gather(right.Col(name), rIdx, name))
		}
		cols = append(cols, col)
	}
	for _, name := range right.Names() {
		if onLeft[name] {
			continue
		}
		cols = append(cols, gather(right.Col(name), rIdx, name))
	}

	out := dataframe.New(cols...)
	return out, out.Err
}

// coalesce fills missing elements of a from b.
func coalesce(a, b series.Series) series.Series {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		if e := a.Elem(i); !e.IsNA() {
			vals[i] = e.Val()
		} else {
			vals[i] = elemValue(b.Elem(i))
		}
	}
	return series.New(vals, a.Type(), a.Name)
}

// keyStrings renders the composite key of every row. Rows with any missing
// key component get the empty string. Numeric keys are formatted the same way
// whether the column was read as Int or Float.
func keyStrings(df dataframe.DataFrame, keys []string) []string {
	cols := make([]series.Series, len(keys))
	for i, k := range keys {
		cols[i] = df.Col(k)
	}
	out := make([]string, df.Nrow())
	var sb strings.Builder
	for i := range out {
		sb.Reset()
		valid := true
		for c, s := range cols {
			e := s.Elem(i)
			if e.IsNA() {
				valid = false
				break
			}
			if c > 0 {
				sb.WriteByte(0x1f)
			}
			if IsNumeric(s) {
				sb.WriteString(strconv.FormatFloat(e.Float(), 'g', -1, 64))
			} else {
				sb.WriteString(e.String())
			}
		}
		if valid {
			out[i] = sb.String()
		}
	}
	return out
}
