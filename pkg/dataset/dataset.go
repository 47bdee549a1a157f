package dataset

import (
	"github.com/go-gota/gota/dataframe"

	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
)

// Target is the column every feature is ranked against: annual production
// based CO2 emissions in million tonnes.
const Target = "co2"

// Dataset is the cleaned, joined country-year table.
type Dataset struct {
	Frame  dataframe.DataFrame
	Target string
}

// Features lists the candidate predictors: numeric, not leaking the target
// and, unless includeYear is set, without the year key.
func (d *Dataset) Features(includeYear bool) []string {
	exclude := []string{d.Target}
	if !includeYear {
		exclude = append(exclude, data.KeyYear)
	}
	return dataprep.FeaturesWithoutLeaks(d.Frame, exclude...)
}

func (d *Dataset) Matrix(features []string) ([][]float64, error) {
	return dataprep.Matrix(d.Frame, features)
}

func (d *Dataset) TargetValues() ([]float64, error) {
	return dataprep.Floats(d.Frame, d.Target)
}
