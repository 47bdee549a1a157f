package importance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/torontodeveloper/co2-emission-ML/pkg/loader"
	"github.com/torontodeveloper/co2-emission-ML/pkg/model"
)

// Entry is one feature and its score.
type Entry struct {
	Feature    string
	Importance float64
}

// Table is sorted by Importance, highest first.
type Table []Entry

// Head returns the first n entries, or all of them when n <= 0 or n exceeds
// the table.
func (t Table) Head(n int) Table {
	if n <= 0 || n >= len(t) {
		return t
	}
	return t[:n]
}

func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, e := range t {
		names[i] = e.Feature
	}
	return names
}

// NewTable pairs features with scores and sorts descending. Equal scores are
// ordered by feature name.
func NewTable(features []string, scores []float64) (Table, error) {
	if len(features) != len(scores) {
		return nil, fmt.Errorf("importance: %d features but %d scores", len(features), len(scores))
	}
	t := make(Table, len(features))
	for i, f := range features {
		t[i] = Entry{Feature: f, Importance: scores[i]}
	}
	sort.SliceStable(t, func(a, b int) bool {
		if t[a].Importance != t[b].Importance {
			return t[a].Importance > t[b].Importance
		}
		return t[a].Feature < t[b].Feature
	})
	return t, nil
}

// Result is a fitted model and the importance table it produced.
type Result struct {
	Kind  Kind
	Model model.Model
	Table Table
}

// Rank fits a model of the given kind on the training matrix and ranks its
// columns, named by features.
func Rank(X [][]float64, y []float64, features []string, kind Kind, opts Options) (*Result, error) {
	if len(X) > 0 && len(X[0]) != len(features) {
		return nil, fmt.Errorf("importance: X has %d columns but %d feature names", len(X[0]), len(features))
	}
	m, err := NewModel(kind, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(X, y); err != nil {
		return nil, fmt.Errorf("importance: fit %s: %w", kind, err)
	}
	t, err := NewTable(features, m.FeatureImportances())
	if err != nil {
		return nil, err
	}
	return &Result{Kind: kind, Model: m, Table: t}, nil
}

// Score summarizes predictions on held-out rows.
type Score struct {
	R2         float64
	AdjustedR2 float64
	RMSE       float64
	MAE        float64
}

func Evaluate(m model.Regressor, X [][]float64, y []float64) (Score, error) {
	if len(X) == 0 {
		return Score{}, errors.New("importance: no rows to evaluate")
	}
	pred, err := m.Predict(X)
	if err != nil {
		return Score{}, err
	}
	if len(pred) != len(y) {
		return Score{}, model.ErrLengthMismatch
	}
	r2 := model.R2(y, pred)
	return Score{
		R2:         r2,
		AdjustedR2: model.AdjustedR2(r2, len(y), len(X[0])),
		RMSE:       model.RMSE(y, pred),
		MAE:        model.MAE(y, pred),
	}, nil
}

// CrossValidate returns the held-out R2 of k models, each trained on the
// other k-1 folds.
func CrossValidate(X [][]float64, y []float64, kind Kind, opts Options, k int) ([]float64, error) {
	if len(X) != len(y) {
		return nil, model.ErrLengthMismatch
	}
	folds, err := loader.KFoldSplit(len(X), k, opts.RandomState)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, 0, k)
	for f, test := range folds {
		held := make(map[int]bool, len(test))
		for _, i := range test {
			held[i] = true
		}
		var XTrain, XTest [][]float64
		var yTrain, yTest []float64
		for i := range X {
			if held[i] {
				XTest = append(XTest, X[i])
				yTest = append(yTest, y[i])
			} else {
				XTrain = append(XTrain, X[i])
				yTrain = append(yTrain, y[i])
			}
		}
		m, err := NewModel(kind, opts)
		if err != nil {
			return nil, err
		}
		if err := m.Fit(XTrain, yTrain); err != nil {
			return nil, fmt.Errorf("importance: fold %d: %w", f, err)
		}
		s, err := Evaluate(m, XTest, yTest)
		if err != nil {
			return nil, fmt.Errorf("importance: fold %d: %w", f, err)
		}
		scores = append(scores, s.R2)
	}
	return scores, nil
}
