package data

// Canonical join keys shared by every table after renaming.
const (
	KeyYear    = "year"
	KeyCountry = "country"
	KeyISOCode = "iso_code"
)

// Keys lists the join keys in the order tables are matched on.
func Keys() []string { return []string{KeyYear, KeyCountry, KeyISOCode} }

// Source is a remote (or local) delimited table.
type Source struct {
	Name string
	URL  string
	// Rename maps header names in the raw file onto canonical names.
	Rename map[string]string
}

// grapherKeys maps the Entity/Code/Year header of Our World in Data grapher
// exports onto the canonical keys.
func grapherKeys() map[string]string {
	return map[string]string{
		"Entity": KeyCountry,
		"Code":   KeyISOCode,
		"Year":   KeyYear,
	}
}

// Sources is the full set of tables the dataset is assembled from.
type Sources struct {
	CO2    Source
	Energy Source
	// Auxiliary tables are left-joined onto the merged CO2/energy frame in order.
	Auxiliary []Source

	CO2Codebook    Source
	EnergyCodebook Source
}

const (
	CO2URL                 = "https://nyc3.digitaloceanspaces.com/owid-public/data/co2/owid-co2-data.csv"
	EnergyURL              = "https://nyc3.digitaloceanspaces.com/owid-public/data/energy/owid-energy-data.csv"
	LandUseURL             = "https://ourworldindata.org/grapher/land-use-over-the-long-term.csv"
	MedianAgeURL           = "https://ourworldindata.org/grapher/median-age.csv"
	PopulationURL          = "https://ourworldindata.org/grapher/population.csv"
	MilitaryExpenditureURL = "https://ourworldindata.org/grapher/military-expenditure-share-gdp.csv"
	DemographicsURL        = "https://ourworldindata.org/grapher/population-by-age-group-and-sex.csv"
	CO2CodebookURL         = "https://github.com/owid/co2-data/raw/master/owid-co2-codebook.csv"
	EnergyCodebookURL      = "https://github.com/owid/energy-data/raw/master/owid-energy-codebook.csv"
)

// Auxiliary source names, also used as configuration keys.
const (
	LandUse             = "land_use"
	MedianAge           = "median_age"
	Population          = "population"
	MilitaryExpenditure = "military_expenditure"
	Demographics        = "demographics"
)

// DefaultSources returns the hardcoded public endpoints.
func DefaultSources() Sources {
	return Sources{
		CO2:    Source{Name: "co2", URL: CO2URL},
		Energy: Source{Name: "energy", URL: EnergyURL},
		Auxiliary: []Source{
			{Name: LandUse, URL: LandUseURL, Rename: grapherKeys()},
			{Name: MedianAge, URL: MedianAgeURL, Rename: grapherKeys()},
			{Name: Population, URL: PopulationURL, Rename: grapherKeys()},
			{Name: MilitaryExpenditure, URL: MilitaryExpenditureURL, Rename: grapherKeys()},
			{Name: Demographics, URL: DemographicsURL, Rename: grapherKeys()},
		},
		CO2Codebook:    Source{Name: "co2_codebook", URL: CO2CodebookURL},
		EnergyCodebook: Source{Name: "energy_codebook", URL: EnergyCodebookURL},
	}
}

// WithURLs returns a copy of s with source URLs replaced by the non-empty
// entries of urls, keyed by source name.
func (s Sources) WithURLs(urls map[string]string) Sources {
	pick := func(src Source) Source {
		if u, ok := urls[src.Name]; ok && u != "" {
			src.URL = u
		}
		return src
	}
	out := Sources{
		CO2:            pick(s.CO2),
		Energy:         pick(s.Energy),
		CO2Codebook:    pick(s.CO2Codebook),
		EnergyCodebook: pick(s.EnergyCodebook),
		Auxiliary:      make([]Source, len(s.Auxiliary)),
	}
	for i, src := range s.Auxiliary {
		out.Auxiliary[i] = pick(src)
	}
	return out
}
