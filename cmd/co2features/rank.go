package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/torontodeveloper/co2-emission-ML/pkg/importance"
	"github.com/torontodeveloper/co2-emission-ML/pkg/pipeline"
	"github.com/torontodeveloper/co2-emission-ML/pkg/stats"
)

func newRankCmd(a *app) *cobra.Command {
	var (
		plotPath string
		predPath string
		csvPath  string
		folds    int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank features by importance for predicting annual CO2 emissions",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.String("model", "linear", "linear, tree or forest")
	f.Int("top", 20, "number of features to show (0 = all)")
	f.String("imputer", "median", "missing value strategy: median or mean")
	f.Int("n-estimators", 100, "trees in the forest")
	f.Int("max-depth", 0, "maximum tree depth (0 = unlimited)")
	f.Float64("clip", 0, "percent winsorized from each tail before imputing")
	f.Bool("include-year", false, "keep year as a feature")
	f.String("solver", "svd", "linear solver: svd or sgd")
	f.String("loss", "mse", "sgd loss: mse or huber")
	f.Float64("learning-rate", 0.01, "sgd learning rate")
	f.Int("epochs", 100, "sgd passes over the training rows")
	f.StringVar(&plotPath, "plot", "", "save an importance bar chart (png, svg, pdf)")
	f.StringVar(&predPath, "plot-predictions", "", "save a predicted vs actual chart for the test set")
	f.StringVar(&csvPath, "csv", "", "write the full importance table as CSV")
	f.IntVar(&folds, "cv", 0, "also report k-fold cross-validated R2 on the training rows")

	cmd.RunE = runE(a, func(cmd *cobra.Command, _ []string) error {
		kind, err := a.cfg.Kind()
		if err != nil {
			return err
		}
		modelOpts, err := a.cfg.ImportanceOptions()
		if err != nil {
			return err
		}
		b, err := a.builder()
		if err != nil {
			return err
		}
		ds, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}

		prepared, err := pipeline.Prepare(ds.Frame, ds.Target, a.cfg.PrepareOptions())
		if err != nil {
			return err
		}
		a.logger.Info("prepared matrices",
			"features", prepared.Schema.Len(),
			"train_rows", len(prepared.XTrain),
			"test_rows", len(prepared.XTest),
		)

		res, err := importance.Rank(prepared.XTrain, prepared.YTrain, prepared.Schema.FeatureNames, kind, modelOpts)
		if err != nil {
			return err
		}
		score, err := importance.Evaluate(res.Model, prepared.XTest, prepared.YTest)
		if err != nil {
			return err
		}
		a.logger.Info("model scored", "model", string(kind), "solver", modelOpts.Solver.String(), "r2", score.R2, "adjusted_r2", score.AdjustedR2, "rmse", score.RMSE)

		out := cmd.OutOrStdout()
		heading(out, "Feature importance (%s, %d features, %d train rows)", kind, prepared.Schema.Len(), len(prepared.XTrain))
		res.Table.Head(a.cfg.Top).Render(out)
		fmt.Fprintf(out, "test R2 %.4f  adjusted R2 %.4f  RMSE %.4g  MAE %.4g\n", score.R2, score.AdjustedR2, score.RMSE, score.MAE)

		if folds > 0 {
			scores, err := importance.CrossValidate(prepared.XTrain, prepared.YTrain, kind, modelOpts, folds)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d-fold CV R2 %.4f ± %.4f\n", folds, stats.Mean(scores), stats.Std(scores))
		}

		errw := cmd.ErrOrStderr()
		if csvPath != "" {
			if err := writeFile(csvPath, res.Table.WriteCSV); err != nil {
				return fmt.Errorf("write importance table: %w", err)
			}
			status(errw, "wrote %s", csvPath)
		}
		if plotPath != "" {
			title := fmt.Sprintf("Top features for CO2 (%s)", kind)
			if err := res.Table.Head(a.cfg.Top).Plot(plotPath, title); err != nil {
				return err
			}
			status(errw, "wrote %s", plotPath)
		}
		if predPath != "" {
			pred, err := res.Model.Predict(prepared.XTest)
			if err != nil {
				return err
			}
			if err := importance.PlotPredictions(predPath, fmt.Sprintf("Test set predictions (%s)", kind), prepared.YTest, pred); err != nil {
				return err
			}
			status(errw, "wrote %s", predPath)
		}
		if score.R2 < 0 {
			warn(errw, "model does worse than predicting the mean on the test set")
		}
		return nil
	})
	return cmd
}
