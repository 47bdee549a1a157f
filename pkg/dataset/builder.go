package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
	"github.com/torontodeveloper/co2-emission-ML/pkg/logging"
)

// TableFetcher loads one source as a frame. *data.Fetcher implements it.
type TableFetcher interface {
	Fetch(ctx context.Context, src data.Source) (dataframe.DataFrame, error)
}

// Options controls dataset assembly.
type Options struct {
	// Join is used for the CO2/energy merge. Auxiliary tables are always
	// left-joined.
	Join    dataprep.JoinKind
	MinYear int
	MaxYear int
	// MaxMissing drops columns with a larger share of missing cells.
	// 1 keeps every column.
	MaxMissing float64
	// OptionalAuxiliary logs and skips auxiliary tables that fail to load
	// instead of failing the build.
	OptionalAuxiliary bool
	// SkipAuxiliary names auxiliary sources that are not fetched at all.
	SkipAuxiliary []string
}

func DefaultOptions() Options {
	return Options{
		Join:       dataprep.JoinInner,
		MinYear:    1990,
		MaxYear:    2020,
		MaxMissing: 1,
	}
}

// Builder assembles a Dataset from its sources.
type Builder struct {
	fetcher TableFetcher
	sources data.Sources
	opts    Options
	logger  *slog.Logger
}

func NewBuilder(fetcher TableFetcher, sources data.Sources, opts Options, logger *slog.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		sources: sources,
		opts:    opts,
		logger:  logging.OrNop(logger),
	}
}

// MergedDatasets fetches the CO2 and energy tables and joins them on year,
// country and iso_code. Energy only contributes columns the CO2 table lacks.
func (b *Builder) MergedDatasets(ctx context.Context) (dataframe.DataFrame, error) {
	co2, err := b.fetcher.Fetch(ctx, b.sources.CO2)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	energy, err := b.fetcher.Fetch(ctx, b.sources.Energy)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	merged, err := dataprep.Join(co2, energy, b.opts.Join, data.Keys()...)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("dataset: merge co2 and energy: %w", err)
	}
	return merged, nil
}

// Stages returns the build steps after the CO2/energy merge, in order.
func (b *Builder) Stages() []Stage {
	keys := data.Keys()
	stages := []Stage{
		frameStage("drop_missing_keys", func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			return dataprep.DropMissing(df, append(keys, Target)...)
		}),
		frameStage("drop_leaks", func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			return dataprep.DropLeakColumns(df, Target)
		}),
		frameStage("filter_years", func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			return dataprep.FilterYears(df, data.KeyYear, b.opts.MinYear, b.opts.MaxYear)
		}),
	}

	skip := make(map[string]bool, len(b.opts.SkipAuxiliary))
	for _, name := range b.opts.SkipAuxiliary {
		skip[name] = true
	}
	for _, src := range b.sources.Auxiliary {
		if skip[src.Name] {
			continue
		}
		src := src
		stages = append(stages, NewStage("join_"+src.Name, !b.opts.OptionalAuxiliary,
			func(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
				aux, err := b.fetcher.Fetch(ctx, src)
				if err != nil {
					return df, err
				}
				return dataprep.Join(df, aux, dataprep.JoinLeft, keys...)
			}))
	}

	stages = append(stages,
		frameStage("normalize_names", dataprep.NormalizeColumnNames),
		frameStage("coerce_numeric", func(df dataframe.DataFrame) (dataframe.DataFrame, error) {
			return dataprep.CoerceNumeric(df, data.KeyCountry, data.KeyISOCode)
		}),
		frameStage("combine_gendered_population", dataprep.CombineGenderedPopulation),
		frameStage("drop_repeat_fuel", dataprep.DropRepeatFuelData),
		NewStage("drop_sparse", true, func(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
			out, dropped, err := dataprep.DropSparseColumns(df, b.opts.MaxMissing, append(keys, Target)...)
			if len(dropped) > 0 {
				b.logger.Debug("dropped sparse columns", "columns", dropped)
			}
			return out, err
		}),
	)
	return stages
}

// Build runs the full assembly: merge, clean, join auxiliary tables,
// normalize and derive features.
func (b *Builder) Build(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	df, err := b.MergedDatasets(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("merged co2 and energy", "join", b.opts.Join.String(), "rows", df.Nrow(), "cols", df.Ncol())

	for _, st := range b.Stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := st.Run(ctx, df)
		if err != nil {
			if st.Required {
				return nil, fmt.Errorf("dataset: stage %s: %w", st.Name, err)
			}
			b.logger.Warn("skipping optional stage", "stage", st.Name, "error", err)
			continue
		}
		df = out
		b.logger.Info("stage done", "stage", st.Name, "rows", df.Nrow(), "cols", df.Ncol())
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("dataset: no rows left for years %d-%d", b.opts.MinYear, b.opts.MaxYear)
	}

	b.logger.Info("dataset built", "rows", df.Nrow(), "cols", df.Ncol(), "duration", time.Since(start))
	return &Dataset{Frame: df, Target: Target}, nil
}
