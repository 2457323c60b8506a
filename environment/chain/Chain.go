// Package chain implements a discrete chain environment. The agent
// starts near the left end of a chain of states and moves left or
// right one state per step. Reaching the rightmost state ends the
// episode.
package chain

import (
	"fmt"

	"github.com/samuelfneumann/advantage/environment"
	ts "github.com/samuelfneumann/advantage/timestep"
	"github.com/samuelfneumann/advantage/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Actions of the chain
const (
	Left int = iota
	Right
)

// Config implements a specific configuration of a Chain
type Config struct {
	// Length is the number of states in the chain
	Length int

	// Slip is the probability that an action moves the agent in the
	// opposite direction
	Slip float64

	// EpisodeSteps is the maximum number of steps in an episode
	EpisodeSteps int

	// StartWeights are proportional to the probability of starting
	// in each non-terminal state. If empty, episodes start in state 0.
	StartWeights []float64

	GoalReward float64
	StepReward float64
}

// Validate returns an error if the Config cannot create a Chain
func (c Config) Validate() error {
	if c.Length < 2 {
		return fmt.Errorf("validate: chain length must be at least 2, "+
			"have %v", c.Length)
	}
	if c.Slip < 0 || c.Slip > 1 {
		return fmt.Errorf("validate: slip probability %v not in [0, 1]",
			c.Slip)
	}
	if c.EpisodeSteps < 1 {
		return fmt.Errorf("validate: episode steps must be positive")
	}
	if len(c.StartWeights) != 0 && len(c.StartWeights) != c.Length-1 {
		return fmt.Errorf("validate: invalid number of start weights "+
			"\n\twant(%v)\n\thave(%v)", c.Length-1, len(c.StartWeights))
	}
	return nil
}

// Create creates the Chain described by the Config
func (c Config) Create(seed uint64) (*Chain, error) {
	return New(c, seed)
}

// Chain implements a chain environment. Observations are one-hot
// vectors of the current state, and actions are vectors of length 1
// holding Left or Right.
type Chain struct {
	Config
	starter environment.Starter
	ender   environment.Ender
	rng     *rand.Rand

	position int
	lastStep ts.TimeStep
	started  bool
}

// New returns a new Chain
func New(c Config, seed uint64) (*Chain, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	weights := c.StartWeights
	if len(weights) == 0 {
		weights = make([]float64, c.Length-1)
		weights[0] = 1.0
	}
	starter, err := environment.NewCategoricalStarter(weights, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &Chain{
		Config:  c,
		starter: starter,
		ender:   environment.NewStepLimit(c.EpisodeSteps),
		rng:     rand.New(rand.NewSource(seed + 1)),
	}, nil
}

// Reset resets the environment and returns the first TimeStep of a new
// episode
func (c *Chain) Reset() (ts.TimeStep, error) {
	c.position = int(c.starter.Start().AtVec(0))
	c.lastStep = ts.New(ts.First, 0, c.observation(), 0)
	c.started = true
	return c.lastStep, nil
}

// Step takes one action in the environment
func (c *Chain) Step(action *mat.VecDense) (ts.TimeStep, error) {
	if !c.started {
		return ts.TimeStep{}, fmt.Errorf("step: environment must be " +
			"reset before stepping")
	}
	if c.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, " +
			"environment must be reset")
	}
	if action == nil || action.Len() != 1 {
		return ts.TimeStep{}, fmt.Errorf("step: actions must be vectors " +
			"of length 1")
	}

	var direction int
	switch int(action.AtVec(0)) {
	case Left:
		direction = -1
	case Right:
		direction = 1
	default:
		return ts.TimeStep{}, fmt.Errorf("step: invalid action %v",
			action.AtVec(0))
	}
	if c.Slip > 0 && c.rng.Float64() < c.Slip {
		direction = -direction
	}

	bounds := r1.Interval{Min: 0, Max: float64(c.Length - 1)}
	c.position = int(floatutils.ClipInterval(float64(c.position+direction),
		bounds))

	step := ts.New(ts.Mid, c.StepReward, c.observation(),
		c.lastStep.Number+1)
	if c.position == c.Length-1 {
		step.Reward = c.GoalReward
		step.SetEnd(ts.TerminalStateReached)
	} else {
		c.ender.End(&step)
	}

	c.lastStep = step
	return step, nil
}

// Position returns the index of the current state
func (c *Chain) Position() int {
	return c.position
}

// observation returns the one-hot encoding of the current state
func (c *Chain) observation() *mat.VecDense {
	obs := mat.NewVecDense(c.Length, nil)
	obs.SetVec(c.position, 1.0)
	return obs
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Chain) ObservationSpec() environment.Spec {
	lower := mat.NewVecDense(c.Length, nil)
	upper := mat.NewVecDense(c.Length, nil)
	for i := 0; i < c.Length; i++ {
		upper.SetVec(i, 1.0)
	}

	return environment.Spec{
		Shape:       c.Length,
		Type:        environment.Observation,
		LowerBound:  lower,
		UpperBound:  upper,
		Cardinality: environment.Discrete,
	}
}

// ActionSpec returns the action specification of the environment
func (c *Chain) ActionSpec() environment.Spec {
	return environment.Spec{
		Shape:       1,
		Type:        environment.Action,
		LowerBound:  mat.NewVecDense(1, []float64{float64(Left)}),
		UpperBound:  mat.NewVecDense(1, []float64{float64(Right)}),
		Cardinality: environment.Discrete,
	}
}
