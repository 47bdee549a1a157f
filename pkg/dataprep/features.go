package dataprep

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/torontodeveloper/co2-emission-ML/pkg/stats"
)

// Age buckets are matched inside the column name where they are not part of
// a longer number, so "40-44" is not read as "0-4".
var (
	childBuckets   = []string{"0-4", "5-9", "10-14"}
	retiredBuckets = []string{"65"}
)

// Band is one of the aggregate population bands.
type Band string

const (
	Children   Band = "children"
	WorkingAge Band = "working_age"
	Retired    Band = "retired"
)

func ageBand(name string) Band {
	for _, b := range childBuckets {
		if containsBucket(name, b) {
			return Children
		}
	}
	for _, b := range retiredBuckets {
		if containsBucket(name, b) {
			return Retired
		}
	}
	return WorkingAge
}

func containsBucket(name, bucket string) bool {
	isDigit := func(i int) bool { return i >= 0 && i < len(name) && name[i] >= '0' && name[i] <= '9' }
	for from := 0; from < len(name); {
		i := strings.Index(name[from:], bucket)
		if i < 0 {
			return false
		}
		i += from
		if !isDigit(i-1) && !isDigit(i+len(bucket)) {
			return true
		}
		from = i + 1
	}
	return false
}

// BandColumn names the derived column for a sex and band, for example
// "female_children_by_percent".
func BandColumn(sex string, band Band) string {
	return sex + "_" + string(band) + "_by_percent"
}

// CombineGenderedPopulation collapses gendered age-bucket columns into six
// band totals: {female,male} x {children,working_age,retired}. A column whose
// name contains "female" counts as female, otherwise "male" counts as male.
// Each band is the row sum of its source columns with missing cells skipped.
// Source columns are dropped. A frame without gendered columns is returned
// unchanged.
func CombineGenderedPopulation(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	groups := map[string]map[Band][]string{
		"female": {},
		"male":   {},
	}
	var sources []string
	for _, name := range df.Names() {
		if !strings.Contains(name, "male") || !IsNumeric(df.Col(name)) {
			continue
		}
		sex := "male"
		if strings.Contains(name, "female") {
			sex = "female"
		}
		band := ageBand(name)
		groups[sex][band] = append(groups[sex][band], name)
		sources = append(sources, name)
	}
	if len(sources) == 0 {
		return df, nil
	}

	out, err := dropColumns(df, sources)
	if err != nil {
		return df, err
	}
	for _, sex := range []string{"female", "male"} {
		for _, band := range []Band{Children, WorkingAge, Retired} {
			total, err := rowSums(df, groups[sex][band])
			if err != nil {
				return df, err
			}
			out = out.Mutate(series.New(total, series.Float, BandColumn(sex, band)))
			if out.Err != nil {
				return df, out.Err
			}
		}
	}
	return out, nil
}

func rowSums(df dataframe.DataFrame, names []string) ([]float64, error) {
	total := make([]float64, df.Nrow())
	row := make([]float64, len(names))
	cols := make([][]float64, len(names))
	for j, name := range names {
		col, err := Floats(df, name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	for i := range total {
		for j := range cols {
			row[j] = cols[j][i]
		}
		total[i] = stats.NaNSum(row)
	}
	return total, nil
}

// RepeatFuelMarkers identify fuel-mix columns that restate another column per
// capita, as electricity, or as a share.
var RepeatFuelMarkers = []string{"_per_", "electricity", "_share_"}

// DropRepeatFuelData drops columns whose name contains a RepeatFuelMarker.
func DropRepeatFuelData(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	var drop []string
	for _, name := range df.Names() {
		for _, m := range RepeatFuelMarkers {
			if strings.Contains(name, m) {
				drop = append(drop, name)
				break
			}
		}
	}
	return dropColumns(df, drop)
}

// FeaturesWithoutLeaks lists the numeric columns usable as predictors: leak
// columns and the names in exclude are left out. Column order is preserved.
func FeaturesWithoutLeaks(df dataframe.DataFrame, exclude ...string) []string {
	skip := toSet(exclude)
	var features []string
	for _, name := range df.Names() {
		if skip[name] || IsLeak(name) || !IsNumeric(df.Col(name)) {
			continue
		}
		features = append(features, name)
	}
	return features
}
