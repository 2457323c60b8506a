package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter returns starting states as vectors of length one
// holding a category sampled from a categorical distribution. Category
// i is sampled with probability proportional to weights[i].
type CategoricalStarter struct {
	rand distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter
func NewCategoricalStarter(weights []float64,
	seed uint64) (CategoricalStarter, error) {
	if len(weights) == 0 {
		return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: " +
			"no categories")
	}
	for _, w := range weights {
		if w < 0 {
			return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: "+
				"negative weight %v", w)
		}
	}
	if floats.Sum(weights) <= 0 {
		return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: " +
			"weights must not all be zero")
	}

	source := rand.NewSource(seed)
	return CategoricalStarter{distuv.NewCategorical(weights, source)}, nil
}

// NewUniformCategoricalStarter returns a CategoricalStarter which
// samples categories 0, 1, ..., n-1 uniformly
func NewUniformCategoricalStarter(n int,
	seed uint64) (CategoricalStarter, error) {
	if n < 1 {
		return CategoricalStarter{}, fmt.Errorf("newUniformCategorical"+
			"Starter: need at least one category, have %v", n)
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return NewCategoricalStarter(weights, seed)
}

// Start returns a starting state vector
func (c CategoricalStarter) Start() *mat.VecDense {
	return mat.NewVecDense(1, []float64{c.rand.Rand()})
}
