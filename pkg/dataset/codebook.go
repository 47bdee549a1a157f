package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
)

// Entry describes one column of the published tables.
type Entry struct {
	Column      string
	Description string
	Unit        string
	Source      string
}

// Codebook maps column names to their descriptions.
type Codebook struct {
	entries []Entry
	index   map[string]int
}

// derived describes columns this module creates itself.
var derived = map[string]string{
	"children":    "Share of the population aged 0-14",
	"working_age": "Share of the population aged 15-64",
	"retired":     "Share of the population aged 65 and over",
}

func newCodebook() *Codebook {
	c := &Codebook{index: map[string]int{}}
	for _, sex := range []string{"female", "male"} {
		for _, band := range []dataprep.Band{dataprep.Children, dataprep.WorkingAge, dataprep.Retired} {
			c.add(Entry{
				Column:      dataprep.BandColumn(sex, band),
				Description: fmt.Sprintf("%s, %s (sum of age-bucket shares)", derived[string(band)], sex),
				Unit:        "%",
			})
		}
	}
	return c
}

// add keeps the first entry seen for a column.
func (c *Codebook) add(e Entry) bool {
	if _, ok := c.index[e.Column]; ok || e.Column == "" {
		return false
	}
	c.index[e.Column] = len(c.entries)
	c.entries = append(c.entries, e)
	return true
}

// Describe returns the entry for column.
func (c *Codebook) Describe(column string) (Entry, bool) {
	i, ok := c.index[column]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns every entry sorted by column name.
func (c *Codebook) Entries() []Entry {
	out := append([]Entry(nil), c.entries...)
	sort.Slice(out, func(a, b int) bool { return out[a].Column < out[b].Column })
	return out
}

func (c *Codebook) Len() int { return len(c.entries) }

// MergedCodebooks loads the CO2 codebook and adds the energy codebook rows
// describing columns the CO2 codebook does not cover.
func (b *Builder) MergedCodebooks(ctx context.Context) (*Codebook, error) {
	c := newCodebook()
	for _, src := range []struct {
		name string
		load func() (dataframe.DataFrame, error)
	}{
		{"co2", func() (dataframe.DataFrame, error) { return b.fetcher.Fetch(ctx, b.sources.CO2Codebook) }},
		{"energy", func() (dataframe.DataFrame, error) { return b.fetcher.Fetch(ctx, b.sources.EnergyCodebook) }},
	} {
		df, err := src.load()
		if err != nil {
			return nil, err
		}
		added, err := c.merge(df)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s codebook: %w", src.name, err)
		}
		b.logger.Debug("codebook merged", "codebook", src.name, "added", added)
	}
	return c, nil
}

func (c *Codebook) merge(df dataframe.DataFrame) (int, error) {
	cols, err := stringColumns(df, "column", "description", "unit", "source")
	if err != nil {
		return 0, err
	}
	added := 0
	for i := 0; i < df.Nrow(); i++ {
		if c.add(Entry{
			Column:      cols[0][i],
			Description: cols[1][i],
			Unit:        cols[2][i],
			Source:      cols[3][i],
		}) {
			added++
		}
	}
	return added, nil
}

// stringColumns reads the named columns as text. "column" must exist; the
// others read as empty when absent. Missing cells are empty.
func stringColumns(df dataframe.DataFrame, names ...string) ([][]string, error) {
	present := map[string]bool{}
	for _, n := range df.Names() {
		present[n] = true
	}
	if !present[names[0]] {
		return nil, fmt.Errorf("%w: %q", dataprep.ErrUnknownColumn, names[0])
	}
	out := make([][]string, len(names))
	for j, name := range names {
		vals := make([]string, df.Nrow())
		if present[name] {
			s := df.Col(name)
			for i := range vals {
				vals[i] = text(s.Elem(i))
			}
		}
		out[j] = vals
	}
	return out, nil
}

func text(e series.Element) string {
	if e.IsNA() {
		return ""
	}
	return e.String()
}
