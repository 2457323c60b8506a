package objective

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BootstrapFunc estimates the value of continuing from a state which
// ends an n-step window
type BootstrapFunc func(nextState *mat.VecDense) (float64, error)

// BootstrapFrom returns a BootstrapFunc which predicts with fn. If fn
// has a single output, that output is the estimate. Otherwise fn
// predicts action values and the estimate is their maximum.
//
// Ingest and EndEpisode take no context, so the prediction runs under
// context.Background and cannot be cancelled. fn.Predict must not
// block.
func BootstrapFrom(fn approximator.Approximator) BootstrapFunc {
	return func(nextState *mat.VecDense) (float64, error) {
		state := mat.VecDenseCopyOf(nextState).RawVector().Data
		values, err := fn.Predict(context.Background(), state)
		if err != nil {
			return 0, fmt.Errorf("bootstrap: %v", err)
		}
		if len(values) == 0 {
			return 0, fmt.Errorf("bootstrap: no predicted values")
		}
		return floats.Max(values), nil
	}
}
