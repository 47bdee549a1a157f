package dataprep

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFrame(t *testing.T, csv string) dataframe.DataFrame {
	t.Helper()
	df := dataframe.ReadCSV(strings.NewReader(csv),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	require.NoError(t, df.Err)
	return df
}

func TestJoin(t *testing.T) {
	co2 := readFrame(t, "country,year,iso_code,co2,population\n"+
		"France,2000,FRA,400,60\n"+
		"France,2001,FRA,410,61\n"+
		"World,2000,,25000,6000\n"+
		"Chad,2000,TCD,0.2,8\n")
	energy := readFrame(t, "country,year,iso_code,population,primary_energy_consumption\n"+
		"France,2000,FRA,99,2900\n"+
		"France,2001,FRA,99,2950\n"+
		"World,2000,,6000,110000\n"+
		"Peru,2000,PER,26,150\n")
	keys := []string{"year", "country", "iso_code"}

	t.Run("inner", func(t *testing.T) {
		out, err := Join(co2, energy, JoinInner, keys...)
		require.NoError(t, err)
		assert.Equal(t, []string{"country", "year", "iso_code", "co2", "population", "primary_energy_consumption"}, out.Names())
		assert.Equal(t, 2, out.Nrow(), "rows with a missing key never match")
		assert.Equal(t, []string{"France", "France"}, out.Col("country").Records())
		assert.Equal(t, []float64{2900, 2950}, out.Col("primary_energy_consumption").Float())
		assert.Equal(t, []float64{60, 61}, out.Col("population").Float(), "left columns win")
	})

	t.Run("left", func(t *testing.T) {
		out, err := Join(co2, energy, JoinLeft, keys...)
		require.NoError(t, err)
		assert.Equal(t, 4, out.Nrow())
		assert.Equal(t, []string{"France", "France", "World", "Chad"}, out.Col("country").Records())
		pec := out.Col("primary_energy_consumption")
		assert.True(t, pec.Elem(2).IsNA())
		assert.True(t, pec.Elem(3).IsNA())
	})

	t.Run("outer", func(t *testing.T) {
		out, err := Join(co2, energy, JoinOuter, keys...)
		require.NoError(t, err)
		assert.Equal(t, 6, out.Nrow())
		last := out.Nrow() - 1
		assert.Equal(t, "Peru", out.Col("country").Elem(last).String())
		assert.Equal(t, "PER", out.Col("iso_code").Elem(last).String())
		assert.True(t, out.Col("co2").Elem(last).IsNA())
	})

	t.Run("duplicate right keys repeat left rows", func(t *testing.T) {
		dup := readFrame(t, "country,year,iso_code,x\nChad,2000,TCD,1\nChad,2000,TCD,2\n")
		out, err := Join(co2, dup, JoinInner, keys...)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, out.Col("x").Float())
	})

	t.Run("int and float keys match", func(t *testing.T) {
		floatYears := readFrame(t, "country,year,iso_code,x\nChad,2000.0,TCD,1\n")
		require.Equal(t, series.Float, floatYears.Col("year").Type())
		out, err := Join(co2, floatYears, JoinInner, keys...)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Nrow())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Join(co2, energy, JoinInner)
		assert.ErrorIs(t, err, ErrNoKeys)
		_, err = Join(co2, energy, JoinInner, "region")
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})
}

func TestParseJoinKind(t *testing.T) {
	for in, want := range map[string]JoinKind{"": JoinInner, "Inner": JoinInner, "left": JoinLeft, "OUTER": JoinOuter} {
		got, err := ParseJoinKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseJoinKind("cross")
	assert.Error(t, err)
	assert.Equal(t, "left", JoinLeft.String())
}

func TestDropMissingAndFilterYears(t *testing.T) {
	df := readFrame(t, "country,year,iso_code,co2\n"+
		"France,1985,FRA,380\n"+
		"France,1995,FRA,\n"+
		"World,2000,,25000\n"+
		"Chad,2005,TCD,0.2\n"+
		"Chad,2015,TCD,0.4\n")

	out, err := DropMissing(df, "iso_code", "co2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1985, 2005, 2015}, out.Col("year").Float())

	out, err = FilterYears(out, "year", 1990, 2010)
	require.NoError(t, err)
	assert.Equal(t, []float64{2005}, out.Col("year").Float())

	open, err := FilterYears(df, "year", 0, 1995)
	require.NoError(t, err)
	assert.Equal(t, 2, open.Nrow())

	_, err = DropMissing(df, "gdp")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = FilterYears(df, "country", 1990, 2000)
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestDropLeakColumns(t *testing.T) {
	df := readFrame(t, "country,co2,co2_per_capita,methane,total_ghg,energy_cons_change_pct,gdp\nA,1,2,3,4,5,6\n")
	out, err := DropLeakColumns(df, "co2")
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "co2", "gdp"}, out.Names())
}

func TestNormalizeColumnNames(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Population ages 0-4, female (% of female population)", "population_ages_0-4_female_percent_of_female_population"},
		{"Population ages 65 and above, male (% of male population)", "population_ages_65_and_above_male_percent_of_male_population"},
		{"Median age - Sex: all", "median_age_sex_all"},
		{"ages 65+", "ages_65+"},
		{"co2_per_capita", "co2_per_capita"},
		{"  Military expenditure (% of GDP)  ", "military_expenditure_percent_of_gdp"},
		{"Low-carbon energy", "low_carbon_energy"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeColumnName(c.in), c.in)
	}

	df := readFrame(t, "Land Use,land_use,LAND-USE\n1,2,3\n")
	out, err := NormalizeColumnNames(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"land_use", "land_use_1", "land_use_2"}, out.Names())
}

func TestCoerceNumeric(t *testing.T) {
	df := readFrame(t, "country,year,spend,share,flag\n"+
		"France,2000,\"1,234.5\",12%,true\n"+
		"Chad,2000,..,x,false\n"+
		"Peru,2000,7,n/a,true\n")
	require.Equal(t, series.String, df.Col("spend").Type())

	out, err := CoerceNumeric(df, "country", "year")
	require.NoError(t, err)
	assert.Equal(t, series.String, out.Col("country").Type())
	assert.Equal(t, series.Int, out.Col("year").Type())

	spend, err := Floats(out, "spend")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, spend[0])
	assert.True(t, math.IsNaN(spend[1]))
	assert.Equal(t, 7.0, spend[2])

	share, err := Floats(out, "share")
	require.NoError(t, err)
	assert.Equal(t, 12.0, share[0])
	assert.True(t, math.IsNaN(share[1]))
	assert.True(t, math.IsNaN(share[2]))
	assert.True(t, out.Col("share").Elem(1).IsNA())

	flag, err := Floats(out, "flag")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, flag)
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]float64{
		"12": 12, " 1,234.5 ": 1234.5, "7.5%": 7.5, "-3": -3, "1e3": 1000,
	} {
		assert.Equal(t, want, ParseNumber(raw), raw)
	}
	for _, raw := range []string{"", "..", "n/a", "abc", "inf", "-Inf", "Infinity", "+infinity", "NaN"} {
		assert.True(t, math.IsNaN(ParseNumber(raw)), raw)
	}
}

func TestCoerceNumericInfinite(t *testing.T) {
	df := readFrame(t, "country,x,y\nA,inf,a\nB,1,-Infinity\nC,-inf,2\n")

	out, err := CoerceNumeric(df, "country")
	require.NoError(t, err)

	x, err := Floats(out, "x")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(x[0]))
	assert.Equal(t, 1.0, x[1])
	assert.True(t, math.IsNaN(x[2]))
	assert.True(t, out.Col("x").Elem(0).IsNA())

	y, err := Floats(out, "y")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(y[0]))
	assert.True(t, math.IsNaN(y[1]))
	assert.Equal(t, 2.0, y[2])
}

func TestDropSparseColumns(t *testing.T) {
	df := readFrame(t, "country,a,b\nX,1,\nY,2,\nZ,,3\n")
	out, dropped, err := DropSparseColumns(df, 0.5, "country")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dropped)
	assert.Equal(t, []string{"country", "a"}, out.Names())

	same, dropped, err := DropSparseColumns(df, 1, "country")
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Equal(t, df.Names(), same.Names())
}

func TestCombineGenderedPopulation(t *testing.T) {
	df := readFrame(t, "country,"+
		"pop_0-4_female,pop_5-9_female,pop_25-29_female,pop_65+_female,"+
		"pop_0-4_male,pop_30-34_male,pop_65+_male,gdp\n"+
		"France,2,3,40,20,2.5,41,18,100\n"+
		"Chad,,,50,,8,,,5\n")

	out, err := CombineGenderedPopulation(df)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"country", "gdp",
		"female_children_by_percent", "female_working_age_by_percent", "female_retired_by_percent",
		"male_children_by_percent", "male_working_age_by_percent", "male_retired_by_percent",
	}, out.Names())

	assert.Equal(t, []float64{5, 0}, out.Col(BandColumn("female", Children)).Float())
	assert.Equal(t, []float64{40, 50}, out.Col(BandColumn("female", WorkingAge)).Float())
	assert.Equal(t, []float64{20, 0}, out.Col(BandColumn("female", Retired)).Float())
	assert.Equal(t, []float64{2.5, 8}, out.Col(BandColumn("male", Children)).Float())
	assert.Equal(t, []float64{41, 0}, out.Col(BandColumn("male", WorkingAge)).Float())
	assert.Equal(t, []float64{18, 0}, out.Col(BandColumn("male", Retired)).Float())

	plain := readFrame(t, "country,gdp\nA,1\n")
	same, err := CombineGenderedPopulation(plain)
	require.NoError(t, err)
	assert.Equal(t, plain.Names(), same.Names())
}

func TestAgeBand(t *testing.T) {
	cases := map[string]Band{
		"population_ages_0-4_female":          Children,
		"population_ages_10-14_male":          Children,
		"population_ages_40-44_female":        WorkingAge,
		"population_ages_15-19_male":          WorkingAge,
		"population_ages_65_and_above_female": Retired,
		"ages_65+_male":                       Retired,
		"population_ages_165_male":            WorkingAge,
	}
	for name, want := range cases {
		assert.Equal(t, want, ageBand(name), name)
	}
}

func TestDropRepeatFuelDataAndFeatures(t *testing.T) {
	df := readFrame(t, "country,year,co2,coal_consumption,coal_cons_per_capita,"+
		"per_capita_electricity,oil_share_elec,renewables_share,gdp,methane\n"+
		"A,2000,1,2,3,4,5,6,7,8\n")

	out, err := DropRepeatFuelData(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "year", "co2", "coal_consumption", "renewables_share", "gdp", "methane"}, out.Names(),
		"a trailing _share is not a repeat")

	assert.Equal(t, []string{"coal_consumption", "renewables_share", "gdp"}, FeaturesWithoutLeaks(out, "year"))
	assert.Equal(t, []string{"year", "coal_consumption", "renewables_share", "gdp"}, FeaturesWithoutLeaks(out))
}

func TestSimpleImputer(t *testing.T) {
	nan := math.NaN()
	train := [][]float64{{1, nan, nan}, {2, 10, nan}, {9, 20, nan}}

	_, err := NewSimpleImputer("mode")
	assert.Error(t, err)

	median, err := NewSimpleImputer(StrategyMedian)
	require.NoError(t, err)
	_, err = median.Transform(train)
	assert.Error(t, err)
	require.NoError(t, median.Fit(train))
	assert.Equal(t, []float64{2, 15, 0}, median.Statistics)

	mean, err := NewSimpleImputer(StrategyMean)
	require.NoError(t, err)
	require.NoError(t, mean.Fit(train))
	assert.Equal(t, []float64{4, 15, 0}, mean.Statistics)

	out, err := mean.Transform([][]float64{{nan, 1, nan}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, 1, 0}}, out)
	assert.True(t, math.IsNaN(train[0][1]), "input is not modified")
}

func TestMatrixAndWriteCSV(t *testing.T) {
	df := readFrame(t, "country,a,b\nX,1.5,\nY,0.000001234,3\n")

	X, err := Matrix(df, []string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, X, 2)
	assert.True(t, math.IsNaN(X[0][0]))
	assert.Equal(t, []float64{3, 0.000001234}, X[1])

	_, err = Matrix(df, []string{"country"})
	assert.ErrorIs(t, err, ErrNotNumeric)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, df))
	assert.Equal(t, "country,a,b\nX,1.5,\nY,1.234e-06,3\n", buf.String())
}
