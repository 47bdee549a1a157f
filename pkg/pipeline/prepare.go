package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/torontodeveloper/co2-emission-ML/pkg/data"
	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
	"github.com/torontodeveloper/co2-emission-ML/pkg/loader"
	"github.com/torontodeveloper/co2-emission-ML/pkg/stats"
)

var ErrNoFeatures = errors.New("pipeline: no usable feature columns")

// Options controls how a frame becomes train and test matrices.
type Options struct {
	TestSize    float64
	RandomState int64
	Imputer     string  // dataprep.StrategyMedian or dataprep.StrategyMean
	Clip        float64 // percent winsorized from each tail; 0 disables clipping
	IncludeYear bool
	Exclude     []string
	// Features overrides automatic feature selection when set.
	Features []string
}

func DefaultOptions() Options {
	return Options{
		TestSize:    0.2,
		RandomState: 42,
		Imputer:     dataprep.StrategyMedian,
	}
}

// Prepared holds scaled matrices ready for a regressor.
type Prepared struct {
	XTrain, XTest [][]float64
	YTrain, YTest []float64
	Schema        Schema
	Pipeline      *Pipeline
}

// Prepare selects the non-leak numeric features of df, drops rows without a
// target, splits train/test and fits clip -> impute -> standardize on the
// training rows only.
func Prepare(df dataframe.DataFrame, target string, opts Options) (*Prepared, error) {
	features := opts.Features
	if features == nil {
		exclude := append([]string{target}, opts.Exclude...)
		if !opts.IncludeYear {
			exclude = append(exclude, data.KeyYear)
		}
		features = dataprep.FeaturesWithoutLeaks(df, exclude...)
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	df, err := dataprep.DropMissing(df, target)
	if err != nil {
		return nil, fmt.Errorf("pipeline: target: %w", err)
	}
	y, err := dataprep.Floats(df, target)
	if err != nil {
		return nil, fmt.Errorf("pipeline: target: %w", err)
	}
	X, err := dataprep.Matrix(df, features)
	if err != nil {
		return nil, fmt.Errorf("pipeline: features: %w", err)
	}

	XTrain, XTest, YTrain, YTest, err := loader.TrainTestSplit(X, y, opts.TestSize, opts.RandomState)
	if err != nil {
		return nil, fmt.Errorf("pipeline: split: %w", err)
	}

	var steps []Transformer
	if opts.Clip > 0 {
		steps = append(steps, stats.NewClipper(opts.Clip, 100-opts.Clip))
	}
	imputer, err := dataprep.NewSimpleImputer(opts.Imputer)
	if err != nil {
		return nil, err
	}
	steps = append(steps, imputer, stats.NewStandardScaler())
	p := NewPipeline(steps...)

	if XTrain, err = p.FitTransform(XTrain); err != nil {
		return nil, err
	}
	if XTest, err = p.Transform(XTest); err != nil {
		return nil, err
	}
	return &Prepared{
		XTrain:   XTrain,
		XTest:    XTest,
		YTrain:   YTrain,
		YTest:    YTest,
		Schema:   Schema{FeatureNames: features, Target: target},
		Pipeline: p,
	}, nil
}
