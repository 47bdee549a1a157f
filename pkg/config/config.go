package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataset"
	"github.com/torontodeveloper/co2-emission-ML/pkg/importance"
	"github.com/torontodeveloper/co2-emission-ML/pkg/loss"
	"github.com/torontodeveloper/co2-emission-ML/pkg/model"
	"github.com/torontodeveloper/co2-emission-ML/pkg/pipeline"
)

// EnvPrefix prefixes every environment override, e.g. CO2_MIN_YEAR or
// CO2_SOURCES_ENERGY.
const EnvPrefix = "CO2"

type Config struct {
	MinYear     int     `mapstructure:"min_year"`
	MaxYear     int     `mapstructure:"max_year"`
	Join        string  `mapstructure:"join"`
	MaxMissing  float64 `mapstructure:"max_missing"`
	TestSize    float64 `mapstructure:"test_size"`
	RandomState int64   `mapstructure:"random_state"`
	Imputer     string  `mapstructure:"imputer"`
	Clip        float64 `mapstructure:"clip"`
	IncludeYear bool    `mapstructure:"include_year"`

	Model          string `mapstructure:"model"`
	NEstimators    int    `mapstructure:"n_estimators"`
	MaxDepth       int    `mapstructure:"max_depth"`
	MinSamplesLeaf int    `mapstructure:"min_samples_leaf"`
	MaxFeatures    int    `mapstructure:"max_features"`
	Top            int    `mapstructure:"top"`

	// linear model solver; the SGD keys only matter when solver is "sgd"
	Solver       string  `mapstructure:"solver"`
	Loss         string  `mapstructure:"loss"`
	HuberDelta   float64 `mapstructure:"huber_delta"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Epochs       int     `mapstructure:"epochs"`
	BatchSize    int     `mapstructure:"batch_size"`
	Momentum     float64 `mapstructure:"momentum"`
	Decay        float64 `mapstructure:"decay"`

	HTTPTimeout       time.Duration     `mapstructure:"http_timeout"`
	OptionalAuxiliary bool              `mapstructure:"optional_auxiliary"`
	SkipAuxiliary     []string          `mapstructure:"skip_auxiliary"`
	Sources           map[string]string `mapstructure:"sources"`

	Log LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Dev   bool   `mapstructure:"dev"`
	Level string `mapstructure:"level"`
}

// SetDefaults registers every key so environment variables can override
// keys that appear in no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("min_year", 1990)
	v.SetDefault("max_year", 2020)
	v.SetDefault("join", "inner")
	v.SetDefault("max_missing", 1.0)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("random_state", 42)
	v.SetDefault("imputer", dataprep.StrategyMedian)
	v.SetDefault("clip", 0.0)
	v.SetDefault("include_year", false)

	v.SetDefault("model", string(importance.Linear))
	v.SetDefault("n_estimators", 100)
	v.SetDefault("max_depth", 0)
	v.SetDefault("min_samples_leaf", 1)
	v.SetDefault("max_features", 0)
	v.SetDefault("top", 20)

	v.SetDefault("solver", "svd")
	v.SetDefault("loss", "mse")
	v.SetDefault("huber_delta", 1.0)
	v.SetDefault("learning_rate", 0.01)
	v.SetDefault("epochs", 100)
	v.SetDefault("batch_size", 32)
	v.SetDefault("momentum", 0.0)
	v.SetDefault("decay", 0.0)

	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("optional_auxiliary", false)
	v.SetDefault("skip_auxiliary", []string{})
	src := data.DefaultSources()
	for _, s := range append([]data.Source{src.CO2, src.Energy, src.CO2Codebook, src.EnergyCodebook}, src.Auxiliary...) {
		v.SetDefault("sources."+s.Name, s.URL)
	}

	v.SetDefault("log.dev", false)
	v.SetDefault("log.level", "info")
}

// Load reads defaults, then the config file, then CO2_* environment
// variables. An empty path looks for an optional config.yaml in the working
// directory; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MinYear != 0 && c.MaxYear != 0 && c.MinYear > c.MaxYear {
		errs = append(errs, fmt.Errorf("min_year %d is after max_year %d", c.MinYear, c.MaxYear))
	}
	if _, err := dataprep.ParseJoinKind(c.Join); err != nil {
		errs = append(errs, err)
	}
	if c.MaxMissing <= 0 || c.MaxMissing > 1 {
		errs = append(errs, fmt.Errorf("max_missing must be in (0, 1], got %v", c.MaxMissing))
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("test_size must be in (0, 1), got %v", c.TestSize))
	}
	if _, err := dataprep.NewSimpleImputer(c.Imputer); err != nil {
		errs = append(errs, err)
	}
	if c.Clip < 0 || c.Clip >= 50 {
		errs = append(errs, fmt.Errorf("clip must be in [0, 50), got %v", c.Clip))
	}
	if _, err := importance.ParseKind(c.Model); err != nil {
		errs = append(errs, err)
	}
	if c.NEstimators < 1 {
		errs = append(errs, fmt.Errorf("n_estimators must be positive, got %d", c.NEstimators))
	}
	if c.MaxDepth < 0 || c.MaxFeatures < 0 || c.MinSamplesLeaf < 1 || c.Top < 0 {
		errs = append(errs, errors.New("max_depth, max_features and top must not be negative and min_samples_leaf must be positive"))
	}
	if _, err := model.ParseSolver(c.Solver); err != nil {
		errs = append(errs, err)
	}
	if _, err := loss.Parse(c.Loss, c.HuberDelta); err != nil {
		errs = append(errs, err)
	}
	if c.LearningRate <= 0 || c.Epochs < 1 || c.BatchSize < 1 {
		errs = append(errs, errors.New("learning_rate, epochs and batch_size must be positive"))
	}
	if c.Momentum < 0 || c.Momentum >= 1 || c.Decay < 0 {
		errs = append(errs, fmt.Errorf("momentum must be in [0, 1) and decay not negative, got %v and %v", c.Momentum, c.Decay))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("http_timeout must not be negative, got %v", c.HTTPTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DataSources returns the default sources with configured URL overrides.
func (c *Config) DataSources() data.Sources {
	return data.DefaultSources().WithURLs(c.Sources)
}

func (c *Config) DatasetOptions() (dataset.Options, error) {
	join, err := dataprep.ParseJoinKind(c.Join)
	if err != nil {
		return dataset.Options{}, err
	}
	return dataset.Options{
		Join:              join,
		MinYear:           c.MinYear,
		MaxYear:           c.MaxYear,
		MaxMissing:        c.MaxMissing,
		OptionalAuxiliary: c.OptionalAuxiliary,
		SkipAuxiliary:     c.SkipAuxiliary,
	}, nil
}

func (c *Config) PrepareOptions() pipeline.Options {
	return pipeline.Options{
		TestSize:    c.TestSize,
		RandomState: c.RandomState,
		Imputer:     c.Imputer,
		Clip:        c.Clip,
		IncludeYear: c.IncludeYear,
	}
}

func (c *Config) ImportanceOptions() (importance.Options, error) {
	solver, err := model.ParseSolver(c.Solver)
	if err != nil {
		return importance.Options{}, err
	}
	lossFn, err := loss.Parse(c.Loss, c.HuberDelta)
	if err != nil {
		return importance.Options{}, err
	}
	return importance.Options{
		RandomState:    c.RandomState,
		NEstimators:    c.NEstimators,
		MaxDepth:       c.MaxDepth,
		MinSamplesLeaf: c.MinSamplesLeaf,
		MaxFeatures:    c.MaxFeatures,
		Solver:         solver,
		Loss:           lossFn,
		LearningRate:   c.LearningRate,
		Epochs:         c.Epochs,
		BatchSize:      c.BatchSize,
		Momentum:       c.Momentum,
		Decay:          c.Decay,
	}, nil
}

func (c *Config) Kind() (importance.Kind, error) {
	return importance.ParseKind(c.Model)
}
