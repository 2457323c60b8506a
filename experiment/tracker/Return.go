package tracker

import (
	"fmt"
	"os"

	ts "github.com/samuelfneumann/advantage/timestep"
	"gonum.org/v1/gonum/stat"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// An episode must finish for this Tracker to save its data. If the
// last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return.
//
// A first TimeStep always starts a new episode, discarding the return
// of an unfinished episode.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.currentReturn = 0.0
	} else if r.lastTimeStep+1 != step.Number {
		fmt.Fprintf(os.Stderr, "Warning: last two timesteps tracked are "+
			"not sequential: timestep %v --> timestep %v were tracked\n",
			r.lastTimeStep, step.Number)
	}
	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number

	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	}
}

// Returns returns the returns of all finished episodes
func (r *Return) Returns() []float64 {
	returns := make([]float64, len(r.episodeReturns))
	copy(returns, r.episodeReturns)
	return returns
}

// MeanReturn returns the mean return over the last n finished
// episodes, or over all finished episodes if fewer have finished. If
// no episode has finished, MeanReturn returns 0.
func (r *Return) MeanReturn(n int) float64 {
	if len(r.episodeReturns) == 0 || n < 1 {
		return 0.0
	}
	start := len(r.episodeReturns) - n
	if start < 0 {
		start = 0
	}
	return stat.Mean(r.episodeReturns[start:], nil)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}
