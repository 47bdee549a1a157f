package dataset

import (
	"context"

	"github.com/go-gota/gota/dataframe"
)

// StageFunc transforms the frame built so far.
type StageFunc func(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error)

// Stage is one named step of a build. When a stage that is not required
// fails, the build logs the error and continues with the frame unchanged.
type Stage struct {
	Name     string
	Required bool
	Run      StageFunc
}

func NewStage(name string, required bool, fn StageFunc) Stage {
	return Stage{Name: name, Required: required, Run: fn}
}

// frameStage adapts a context-free frame transform.
func frameStage(name string, fn func(dataframe.DataFrame) (dataframe.DataFrame, error)) Stage {
	return NewStage(name, true, func(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
		return fn(df)
	})
}
