package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/torontodeveloper/co2-emission-ML/pkg/config"
	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataset"
	"github.com/torontodeveloper/co2-emission-ML/pkg/logging"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-dev":       "log.dev",
	"log-level":     "log.level",
	"min-year":      "min_year",
	"max-year":      "max_year",
	"join":          "join",
	"max-missing":   "max_missing",
	"model":         "model",
	"top":           "top",
	"imputer":       "imputer",
	"n-estimators":  "n_estimators",
	"max-depth":     "max_depth",
	"clip":          "clip",
	"include-year":  "include_year",
	"solver":        "solver",
	"loss":          "loss",
	"learning-rate": "learning_rate",
	"epochs":        "epochs",
}

// app is the state shared by subcommands once configuration is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	syncLog    func() error
	runID      string
}

func (a *app) builder() (*dataset.Builder, error) {
	opts, err := a.cfg.DatasetOptions()
	if err != nil {
		return nil, err
	}
	fetcher := data.NewFetcher(&http.Client{Timeout: a.cfg.HTTPTimeout}, a.logger)
	return dataset.NewBuilder(fetcher, a.cfg.DataSources(), opts, a.logger), nil
}

func (a *app) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}
	cfg, err := config.Load(v, a.configPath)
	if err != nil {
		return err
	}
	logger, sync, err := logging.New(cfg.Log.Dev, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = logger.With("run_id", a.runID, "command", cmd.Name())
	a.syncLog = sync
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "co2features",
		Short:         "Build the CO2 country-year dataset and rank emission features",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				fail(cmd.ErrOrStderr(), err)
				return err
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.syncLog != nil {
				_ = a.syncLog()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./config.yaml when present)")
	pf.Bool("log-dev", false, "human-readable colored logs")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.Int("min-year", 1990, "first year kept (0 = no lower bound)")
	pf.Int("max-year", 2020, "last year kept (0 = no upper bound)")
	pf.String("join", "inner", "co2/energy join: inner, left or outer")
	pf.Float64("max-missing", 1, "drop columns with a larger share of missing cells")

	root.AddCommand(newBuildCmd(a), newRankCmd(a), newCodebookCmd(a))
	return root
}

// runE wraps a subcommand body so failures are logged and printed once.
func runE(a *app, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			a.logger.Error("command failed", "error", err)
			fail(cmd.ErrOrStderr(), err)
			return err
		}
		return nil
	}
}

func fail(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "error: %v\n", err)
}

func status(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✔ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

func heading(w io.Writer, format string, args ...any) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, fmt.Sprintf(format, args...))
}

// writeFile creates path, runs write on it and reports the close error, which
// is where a failed flush to disk surfaces.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
