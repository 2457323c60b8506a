// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/advantage/approximator"
	"github.com/samuelfneumann/advantage/environment/chain"
	"github.com/samuelfneumann/advantage/experiment/checkpointer"
	"github.com/samuelfneumann/advantage/experiment/tracker"
	"github.com/samuelfneumann/advantage/expreplay"
	"github.com/samuelfneumann/advantage/objective"
)

// Experiment outlines structs that can run experiments. The Run()
// method runs all episodes until the maximum timestep limit is
// reached, and the RunEpisode() method runs a single episode.
//
// Experiments send each TimeStep to their Trackers, which determine
// which data generated during the experiment is saved. The Save()
// method saves the data of all Trackers.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode returns whether the maximum timestep limit has been
	// reached
	RunEpisode(ctx context.Context) (bool, error)

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment
	Register(t tracker.Tracker)

	// AddCheckpointer adds a checkpointer to the experiment
	AddCheckpointer(c checkpointer.Checkpointer)

	// Save saves all tracked data to disk
	Save() error
}

// Type describes the kinds of experiments available
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type
	MaxSteps  int
	BatchSize int
	Seed      uint64

	EnvConf          chain.Config
	ReplayConf       expreplay.Config
	ApproximatorConf approximator.MLPConfig
	ObjectiveConf    objective.Config
}

// LoadConfig loads a JSON encoded Config from filename
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not decode %v: %v",
			filename, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return c, nil
}

// Validate returns an error if the Config cannot create an Experiment
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("validate: max steps must be positive")
	}
	if c.BatchSize != c.ApproximatorConf.BatchSize {
		return fmt.Errorf("validate: batch size %v does not match "+
			"approximator batch size %v", c.BatchSize,
			c.ApproximatorConf.BatchSize)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: environment: %v", err)
	}
	if err := c.ReplayConf.Validate(); err != nil {
		return fmt.Errorf("validate: replay: %v", err)
	}
	if err := c.ApproximatorConf.Validate(); err != nil {
		return fmt.Errorf("validate: approximator: %v", err)
	}
	if err := c.ObjectiveConf.Validate(); err != nil {
		return fmt.Errorf("validate: objective: %v", err)
	}
	return nil
}

// CreateExp creates the experiment described by the Config, with its
// approximator and objective set up. The policyReturn argument is only
// used by policy-gradient objectives and may otherwise be nil.
func (c Config) CreateExp(ctx context.Context,
	policyReturn objective.ReturnBuilder) (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	env, err := c.EnvConf.Create(c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"environment: %v", err)
	}
	features := env.ObservationSpec().Shape
	actions, err := env.ActionSpec().Actions()
	if err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	fn, err := c.ApproximatorConf.Create()
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"approximator: %v", err)
	}
	if err := fn.Setup(ctx); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	// Action-value approximators select the value of the action taken
	// from one-hot actions
	var element expreplay.Element = expreplay.VectorElement{}
	actionSize := 1
	if fn.Outputs() > 1 {
		element = expreplay.OneHotElement{Actions: actions}
		actionSize = actions
	}
	replay, err := c.ReplayConf.Create(element, features, actionSize,
		c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create replay "+
			"buffer: %v", err)
	}

	obj, err := objective.New(c.ObjectiveConf, objective.Dependencies{
		Replay:       replay,
		Approximator: fn,
		PolicyReturn: policyReturn,
	})
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"objective: %v", err)
	}
	if err := obj.Setup(ctx); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, obj, fn, c.BatchSize, c.MaxSteps, c.Seed)
	}
	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
