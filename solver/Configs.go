package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	Batch    int
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return New(&AdamConfig{
		StepSize: stepSize,
		Epsilon:  1e-8,
		Beta1:    0.9,
		Beta2:    0.999,
		Batch:    batchSize,
	})
}

func (a *AdamConfig) Type() Type { return Adam }

// Validate implements the Config interface
func (a *AdamConfig) Validate() error {
	if a.StepSize <= 0 {
		return fmt.Errorf("validate: adam step size must be positive")
	}
	if a.Batch < 1 {
		return fmt.Errorf("validate: adam batch must be positive")
	}
	return nil
}

// Create implements the Config interface
func (a *AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	)
}

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	return New(&VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	})
}

func (v *VanillaConfig) Type() Type { return Vanilla }

// Validate implements the Config interface
func (v *VanillaConfig) Validate() error {
	if v.StepSize <= 0 {
		return fmt.Errorf("validate: vanilla step size must be positive")
	}
	if v.Batch < 1 {
		return fmt.Errorf("validate: vanilla batch must be positive")
	}
	return nil
}

// Create implements the Config interface
func (v *VanillaConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	}
	if v.Clip > 0 {
		opts = append(opts, G.WithClip(v.Clip))
	}
	return G.NewVanillaSolver(opts...)
}

// RMSPropConfig describes a configuration of the RMSProp solver
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64
	Batch    int
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultRMSProp returns a new RMSProp Solver with default
// hyperparameters
func NewDefaultRMSProp(stepSize float64, batchSize int) (*Solver, error) {
	return New(&RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  1e-8,
		Rho:      0.999,
		Batch:    batchSize,
		Clip:     -1,
	})
}

func (r *RMSPropConfig) Type() Type { return RMSProp }

// Validate implements the Config interface
func (r *RMSPropConfig) Validate() error {
	if r.StepSize <= 0 {
		return fmt.Errorf("validate: rmsprop step size must be positive")
	}
	if r.Batch < 1 {
		return fmt.Errorf("validate: rmsprop batch must be positive")
	}
	return nil
}

// Create implements the Config interface
func (r *RMSPropConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(r.StepSize),
		G.WithEps(r.Epsilon),
		G.WithRho(r.Rho),
		G.WithBatchSize(float64(r.Batch)),
	}
	if r.Clip > 0 {
		opts = append(opts, G.WithClip(r.Clip))
	}
	return G.NewRMSPropSolver(opts...)
}
