// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/advantage/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If an episode should end, End
// marks the TimeStep as the last in its episode and returns true.
type Ender interface {
	End(t *timestep.TimeStep) bool
}

// Environment implements a simulated environment
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() (timestep.TimeStep, error)

	// Step takes an action in the environment. Stepping after the last
	// TimeStep of an episode is an error.
	Step(action *mat.VecDense) (timestep.TimeStep, error)

	ObservationSpec() Spec
	ActionSpec() Spec
}
