package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/environment"
	"github.com/samuelfneumann/advantage/experiment/checkpointer"
	"github.com/samuelfneumann/advantage/experiment/tracker"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/objective"
	ts "github.com/samuelfneumann/advantage/timestep"
	"github.com/samuelfneumann/advantage/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var _ Experiment = &Online{}

// Online is an Experiment that trains an objective online only. No
// offline evaluation is performed.
//
// Each environment step is ingested by the objective, after which the
// objective is optimized once. Actions are greedy with respect to the
// approximator's predictions, with ties broken uniformly at random.
type Online struct {
	env       environment.Environment
	objective objective.Objective
	fn        approximator.Approximator
	rng       *rand.Rand

	batchSize    int
	maxSteps     int
	currentSteps int

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given objective. The approximator fn selects
// actions and must predict one value per discrete action. The maxSteps
// parameter determines how many timesteps the experiment is run for,
// and the t parameter determines what data is tracked.
func NewOnline(e environment.Environment, obj objective.Objective,
	fn approximator.Approximator, batchSize, maxSteps int, seed uint64,
	t ...tracker.Tracker) (*Online, error) {
	actions, err := e.ActionSpec().Actions()
	if err != nil {
		return nil, fmt.Errorf("newOnline: %v", err)
	}
	if fn.Outputs() != actions {
		return nil, fmt.Errorf("newOnline: approximator outputs (%v) "+
			"must match number of actions (%v)", fn.Outputs(), actions)
	}
	if fn.Features() != e.ObservationSpec().Shape {
		return nil, fmt.Errorf("newOnline: approximator features (%v) "+
			"must match observation size (%v)", fn.Features(),
			e.ObservationSpec().Shape)
	}

	return &Online{
		env:       e,
		objective: obj,
		fn:        fn,
		rng:       rand.New(rand.NewSource(seed)),
		batchSize: batchSize,
		maxSteps:  maxSteps,
		trackers:  t,
	}, nil
}

// Approximator returns the approximator which selects actions
func (o *Online) Approximator() approximator.Approximator {
	return o.fn
}

// Objective returns the objective trained by the experiment
func (o *Online) Objective() objective.Objective {
	return o.objective
}

// Steps returns the number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer adds a checkpointer which is called after each
// optimization
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	step, err := o.env.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		o.currentSteps++

		action, err := o.selectAction(ctx, step.Observation)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		next, err := o.env.Step(mat.NewVecDense(1,
			[]float64{float64(action)}))
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		o.track(next)

		raw := map[string]interface{}{
			expreplay.KeyState:     step.Observation,
			expreplay.KeyAction:    action,
			expreplay.KeyReward:    next.Reward,
			expreplay.KeyNextState: next.Observation,
			expreplay.KeyDone:      next.TerminalEnd(),
		}
		if err := o.objective.Ingest(raw); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		if err := o.objective.Optimize(ctx, o.batchSize); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		if err := o.checkpoint(); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		step = next
	}

	// Episodes cut off by a step limit must still have their pending
	// transitions bootstrapped
	if !step.TerminalEnd() {
		if ender, ok := o.objective.(objective.EpisodeEnder); ok {
			if err := ender.EndEpisode(); err != nil {
				return false, fmt.Errorf("runEpisode: %v", err)
			}
		}
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run(ctx context.Context) error {
	for {
		ended, err := o.RunEpisode(ctx)
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// selectAction returns the action with the largest predicted value
// in the state obs, breaking ties uniformly at random
func (o *Online) selectAction(ctx context.Context,
	obs *mat.VecDense) (int, error) {
	values, err := o.fn.Predict(ctx, obs.RawVector().Data)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %v", err)
	}

	_, indices := floatutils.MaxSlice(values)
	if len(indices) == 0 {
		return 0, fmt.Errorf("selectAction: no action values predicted")
	}
	return indices[o.rng.Intn(len(indices))], nil
}

// track sends the current timestep to each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// checkpoint calls each checkpointer with the number of improvement
// steps the objective has taken
func (o *Online) checkpoint() error {
	steps := o.objective.ImprovementSteps()
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(steps); err != nil {
			return err
		}
	}
	return nil
}
