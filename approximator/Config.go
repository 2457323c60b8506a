package approximator

import (
	"fmt"

	"github.com/samuelfneumann/advantage/initwfn"
	"github.com/samuelfneumann/advantage/network"
	"github.com/samuelfneumann/advantage/scope"
	"github.com/samuelfneumann/advantage/solver"
)

// MLPConfig implements a specific configuration of an MLP approximator
type MLPConfig struct {
	Scope string

	Features  int
	Outputs   int
	BatchSize int

	// Hidden layers
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation

	InitWFn *initwfn.InitWFn
	Solver  *solver.Solver
}

// Validate returns an error if the MLPConfig does not describe a
// valid MLP
func (c MLPConfig) Validate() error {
	if c.Features < 1 || c.Outputs < 1 || c.BatchSize < 1 {
		return fmt.Errorf("validate: features (%v), outputs (%v), and "+
			"batch size (%v) must be positive", c.Features, c.Outputs,
			c.BatchSize)
	}
	if len(c.HiddenSizes) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases \n\twant(%v)"+
			"\n\thave(%v)", len(c.HiddenSizes), len(c.Biases))
	}
	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations "+
			"\n\twant(%v)\n\thave(%v)", len(c.HiddenSizes),
			len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer specified")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver specified")
	}
	return nil
}

// Create returns the MLP described by the MLPConfig
func (c MLPConfig) Create() (*MLP, error) {
	return NewMLP(scope.Parse(c.Scope), c)
}
